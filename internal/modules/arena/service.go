package arena

import (
	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/voice"
	"github.com/nfrund/exerbeasts/internal/websocket"
)

// Connections tracks and closes the websocket clients of a player.
type Connections interface {
	Disconnect(userID string, final []byte)
	ClientCount(userID string) int
}

// Service is the player-facing battle API shared by HTTP and websocket commands.
type Service struct {
	sessions *Sessions
	conns    Connections
}

// NewService creates a Service. conns may be nil.
func NewService(sessions *Sessions, conns Connections) *Service {
	return &Service{sessions: sessions, conns: conns}
}

// Sessions returns the session table.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// State returns the player's battle. Players without one see the opening
// state of a new battle; no session is started for them.
func (s *Service) State(playerID string) battle.Snapshot {
	return s.sessions.Snapshot(playerID)
}

// Select picks a move for the player.
func (s *Service) Select(playerID, move string) (battle.Snapshot, error) {
	e := s.sessions.Get(playerID)
	if err := e.SelectMove(battle.MoveID(move)); err != nil {
		return battle.Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// Pose feeds a classifier sample and reports how it was judged.
func (s *Service) Pose(playerID, label string, confidence float64) PoseStatus {
	status := PoseStatus{Label: label, Confidence: confidence, Level: battle.PoseLevelNone}
	e, ok := s.sessions.Lookup(playerID)
	if !ok {
		// Without a battle nothing is awaiting a pose.
		return status
	}
	required := e.Snapshot().RequiredPose
	if required != "" {
		status.Level = battle.ClassifyPose(required, label, confidence)
	}
	status.Accepted = e.OnPoseSample(label, confidence)
	if status.Accepted {
		status.Level = battle.PoseLevelConfirmed
	} else if status.Level == battle.PoseLevelConfirmed {
		// Another sample latched first.
		status.Level = battle.PoseLevelNone
	}
	return status
}

// Reset starts a fresh battle for the player.
func (s *Service) Reset(playerID string) battle.Snapshot {
	e := s.sessions.Get(playerID)
	e.Reset()
	return e.Snapshot()
}

// Voice runs a menu voice command. Start resets the battle; exit ends the session
// and closes the player's websocket clients.
func (s *Service) Voice(playerID, transcript string) voice.Command {
	cmd := voice.MapTranscript(transcript)
	switch cmd {
	case voice.CommandStart:
		s.Reset(playerID)
	case voice.CommandExit:
		s.Close(playerID)
	}
	return cmd
}

// Close ends the player's session.
func (s *Service) Close(playerID string) {
	s.sessions.Close(playerID)
	if s.conns != nil {
		s.conns.Disconnect(playerID, websocket.NewCommand(websocket.CmdSessionClosed, nil))
	}
}

// ClientLeft ends the player's battle once their last websocket client is gone.
// It reports whether a battle was closed.
func (s *Service) ClientLeft(playerID string) bool {
	if s.conns == nil || s.conns.ClientCount(playerID) > 0 {
		return false
	}
	return s.sessions.Close(playerID)
}
