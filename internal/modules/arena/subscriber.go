package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/handlers"
	"github.com/nfrund/exerbeasts/internal/modules/arena/components"
	"github.com/nfrund/exerbeasts/internal/pubsub"
	"github.com/nfrund/exerbeasts/internal/rendering"
	"github.com/nfrund/exerbeasts/internal/voice"
	"github.com/nfrund/exerbeasts/internal/websocket"
)

// Data frame types sent to data clients.
const (
	FrameText     = "battle.text"
	FrameHP       = "battle.hp"
	FramePhase    = "battle.phase"
	FrameInput    = "battle.input"
	FrameSnapshot = "battle.snapshot"
	FramePose     = "battle.pose"
	FrameVoice    = "battle.voice"
)

// Subscriber turns battle events into websocket frames and client commands
// into engine calls.
type Subscriber struct {
	subscriber pubsub.Subscriber
	publisher  pubsub.Publisher
	renderer   rendering.Renderer
	service    *Service
	validator  *handlers.CustomValidator
	moves      []battle.Move
	logger     *slog.Logger
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(sub pubsub.Subscriber, pub pubsub.Publisher, renderer rendering.Renderer, service *Service, catalog *battle.Catalog, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = battle.DefaultCatalog()
	}
	return &Subscriber{
		subscriber: sub,
		publisher:  pub,
		renderer:   renderer,
		service:    service,
		validator:  handlers.NewValidator(),
		moves:      catalog.Moves(),
		logger:     logger,
	}
}

// Start subscribes every handler. Subscriptions end with ctx.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("Starting battle subscriber")

	subs := []func() error{
		func() error { return pubsub.Subscribe(ctx, s.subscriber, EventText, s.handleText) },
		func() error { return pubsub.Subscribe(ctx, s.subscriber, EventHP, s.handleHP) },
		func() error { return pubsub.Subscribe(ctx, s.subscriber, EventPhase, s.handlePhase) },
		func() error { return pubsub.Subscribe(ctx, s.subscriber, EventInput, s.handleInput) },
		func() error { return pubsub.Subscribe(ctx, s.subscriber, ClientSelect, s.handleSelect) },
		func() error { return pubsub.Subscribe(ctx, s.subscriber, ClientPose, s.handlePose) },
		func() error { return pubsub.Subscribe(ctx, s.subscriber, ClientReset, s.handleReset) },
		func() error { return pubsub.Subscribe(ctx, s.subscriber, ClientVoice, s.handleVoice) },
		func() error { return s.subscriber.Subscribe(ctx, websocket.TopicClientReady.Name(), s.handleClientReady) },
		func() error {
			return s.subscriber.Subscribe(ctx, websocket.TopicClientDisconnected.Name(), s.handleClientDisconnected)
		},
	}
	for _, sub := range subs {
		if err := sub(); err != nil {
			return fmt.Errorf("battle subscriber: %w", err)
		}
	}
	return nil
}

func (s *Subscriber) handleText(ctx context.Context, playerID string, ev TextEvent) error {
	return s.deliver(ctx, playerID, FrameText, ev, components.TextBox(ev.Text, true))
}

func (s *Subscriber) handleHP(ctx context.Context, playerID string, ev HPEvent) error {
	return s.deliver(ctx, playerID, FrameHP, ev, components.HPBox(ev.Who, battle.Combatant{HP: ev.HP, MaxHP: ev.MaxHP}, true))
}

func (s *Subscriber) handlePhase(ctx context.Context, playerID string, ev PhaseEvent) error {
	return s.deliver(ctx, playerID, FramePhase, ev, components.PhaseBadge(ev.Phase, true))
}

func (s *Subscriber) handleInput(ctx context.Context, playerID string, ev InputEvent) error {
	return s.deliver(ctx, playerID, FrameInput, ev, components.MoveMenu(s.moves, ev.Enabled, true))
}

// invalid checks a client command against its validate tags and answers the
// player with an error frame when it fails.
func (s *Subscriber) invalid(ctx context.Context, playerID, topic string, cmd any) (bool, error) {
	err := s.validator.Validate(cmd)
	if err == nil {
		return false, nil
	}
	s.logger.Debug("Rejected invalid client command", "player_id", playerID, "topic", topic, "error", err)
	return true, s.sendCommand(ctx, playerID, websocket.CmdError, handlers.ValidationMessage(err))
}

func (s *Subscriber) handleSelect(ctx context.Context, playerID string, cmd SelectCommand) error {
	if bad, err := s.invalid(ctx, playerID, ClientSelect.Name(), cmd); bad {
		return err
	}
	if _, err := s.service.Select(playerID, cmd.Move); err != nil {
		s.logger.Debug("Rejected move selection", "player_id", playerID, "move", cmd.Move, "error", err)
		return s.sendCommand(ctx, playerID, websocket.CmdError, err.Error())
	}
	return nil
}

func (s *Subscriber) handlePose(ctx context.Context, playerID string, cmd PoseCommand) error {
	if bad, err := s.invalid(ctx, playerID, ClientPose.Name(), cmd); bad {
		return err
	}
	status := s.service.Pose(playerID, cmd.Label, cmd.Confidence)
	return s.sendData(ctx, playerID, FramePose, status)
}

func (s *Subscriber) handleReset(_ context.Context, playerID string, _ ResetCommand) error {
	s.service.Reset(playerID)
	return nil
}

func (s *Subscriber) handleVoice(ctx context.Context, playerID string, cmd VoiceCommand) error {
	if bad, err := s.invalid(ctx, playerID, ClientVoice.Name(), cmd); bad {
		return err
	}
	result := s.service.Voice(playerID, cmd.Transcript)
	s.logger.Info("Voice command", "player_id", playerID, "command", result)
	if result == voice.CommandExit {
		// The player's clients are already closed.
		return nil
	}
	return s.sendData(ctx, playerID, FrameVoice, map[string]string{"transcript": cmd.Transcript, "command": string(result)})
}

func (s *Subscriber) handleClientReady(ctx context.Context, msg pubsub.Message) error {
	var ev websocket.ClientEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("failed to decode client event: %w", err)
	}
	if ev.UserID == "" {
		return errors.New("client event without user id")
	}

	snap := s.service.State(ev.UserID)
	switch ev.Endpoint {
	case websocket.ConnectionTypeData:
		return s.sendData(ctx, ev.UserID, FrameSnapshot, snap)
	case websocket.ConnectionTypeHTML:
		return s.sendHTML(ctx, ev.UserID, components.Sync(snap, s.moves))
	}
	return nil
}

func (s *Subscriber) handleClientDisconnected(_ context.Context, msg pubsub.Message) error {
	var ev websocket.ClientEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("failed to decode client event: %w", err)
	}
	if ev.UserID == "" {
		return errors.New("client event without user id")
	}
	if s.service.ClientLeft(ev.UserID) {
		s.logger.Info("Closed battle after last client left", "player_id", ev.UserID, "reason", ev.Reason)
	}
	return nil
}

// deliver sends one event to both kinds of clients of a player.
func (s *Subscriber) deliver(ctx context.Context, playerID, frameType string, payload any, fragment any) error {
	if playerID == "" {
		return errors.New("battle event without player id")
	}
	return errors.Join(
		s.sendData(ctx, playerID, frameType, payload),
		s.sendHTML(ctx, playerID, fragment),
	)
}

func (s *Subscriber) sendData(ctx context.Context, playerID, frameType string, payload any) error {
	frame, err := websocket.NewDataMessage(frameType, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", frameType, err)
	}
	return s.direct(ctx, websocket.TopicDataDirect.Name(), playerID, frame)
}

func (s *Subscriber) sendHTML(ctx context.Context, playerID string, fragment any) error {
	html, err := s.renderer.RenderComponent(ctx, fragment)
	if err != nil {
		return fmt.Errorf("failed to render battle fragment: %w", err)
	}
	return s.direct(ctx, websocket.TopicHTMLDirect.Name(), playerID, html)
}

func (s *Subscriber) sendCommand(ctx context.Context, playerID, name string, detail any) error {
	return s.direct(ctx, websocket.TopicDataDirect.Name(), playerID, websocket.NewCommand(name, detail))
}

func (s *Subscriber) direct(ctx context.Context, topic, playerID string, payload []byte) error {
	return s.publisher.Publish(ctx, pubsub.Message{
		Topic:    topic,
		UserID:   playerID,
		Payload:  payload,
		Metadata: map[string]string{websocket.MetaRecipientID: playerID},
	})
}
