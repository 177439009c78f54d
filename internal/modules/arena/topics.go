package arena

import (
	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/pubsub"
)

// Engine events, published per player in sequence order.
var (
	EventText  = pubsub.NewEvent[TextEvent]("battle.event.text", "Battle message shown in the text box")
	EventHP    = pubsub.NewEvent[HPEvent]("battle.event.hp", "Hit points of one combatant changed")
	EventPhase = pubsub.NewEvent[PhaseEvent]("battle.event.phase", "The battle entered a new phase")
	EventInput = pubsub.NewEvent[InputEvent]("battle.event.input", "Move buttons were enabled or disabled")
)

// Commands sent by websocket clients. Each is whitelisted on the bridge.
var (
	ClientSelect = pubsub.NewEvent[SelectCommand]("battle.client.select", "Player picked a move from the menu")
	ClientPose   = pubsub.NewEvent[PoseCommand]("battle.client.pose", "Pose classifier sample from the browser")
	ClientReset  = pubsub.NewEvent[ResetCommand]("battle.client.reset", "Player asked for a fresh battle")
	ClientVoice  = pubsub.NewEvent[VoiceCommand]("battle.client.voice", "Speech transcript from the menu voice control")
)

// ClientActions lists the topics websocket clients may publish.
func ClientActions() []string {
	return []string{ClientSelect.Name(), ClientPose.Name(), ClientReset.Name(), ClientVoice.Name()}
}

// TextEvent carries a battle message.
type TextEvent struct {
	Seq  uint64 `json:"seq"`
	Text string `json:"text"`
}

// HPEvent carries the hit points of one side.
type HPEvent struct {
	Seq   uint64      `json:"seq"`
	Who   battle.Side `json:"who"`
	HP    int         `json:"hp"`
	MaxHP int         `json:"max_hp"`
}

// PhaseEvent carries a phase change.
type PhaseEvent struct {
	Seq   uint64       `json:"seq"`
	Phase battle.Phase `json:"phase"`
}

// InputEvent tells the client whether move input is accepted.
type InputEvent struct {
	Seq     uint64 `json:"seq"`
	Enabled bool   `json:"enabled"`
}

// SelectCommand picks a move.
type SelectCommand struct {
	Move string `json:"move" form:"move" validate:"required"`
}

// PoseCommand is one classifier sample.
type PoseCommand struct {
	Label      string  `json:"label" form:"label" validate:"required"`
	Confidence float64 `json:"confidence" form:"confidence" validate:"gte=0,lte=1"`
}

// ResetCommand restarts the battle.
type ResetCommand struct{}

// VoiceCommand is a speech transcript.
type VoiceCommand struct {
	Transcript string `json:"transcript" form:"transcript" validate:"required"`
}

// PoseStatus answers a pose sample.
type PoseStatus struct {
	Accepted   bool             `json:"accepted"`
	Level      battle.PoseLevel `json:"level"`
	Label      string           `json:"label"`
	Confidence float64          `json:"confidence"`
}
