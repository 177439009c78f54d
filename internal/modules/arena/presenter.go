package arena

import (
	"context"
	"log/slog"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/pubsub"
)

// busPresenter publishes one player's engine events on the battle.event.* topics.
type busPresenter struct {
	publisher pubsub.Publisher
	playerID  string
	logger    *slog.Logger
}

// NewBusPresenter returns the presenter factory used by Sessions.
func NewBusPresenter(pub pubsub.Publisher, logger *slog.Logger) func(playerID string) battle.Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return func(playerID string) battle.Presenter {
		return &busPresenter{publisher: pub, playerID: playerID, logger: logger}
	}
}

// Present implements battle.Presenter.
func (p *busPresenter) Present(ev battle.Event) {
	ctx := context.Background()

	var err error
	switch ev.Kind {
	case battle.EventText:
		err = pubsub.PublishFor(ctx, p.publisher, EventText, p.playerID, TextEvent{Seq: ev.Seq, Text: ev.Text})
	case battle.EventHP:
		err = pubsub.PublishFor(ctx, p.publisher, EventHP, p.playerID, HPEvent{Seq: ev.Seq, Who: ev.Who, HP: ev.HP, MaxHP: ev.MaxHP})
	case battle.EventPhase:
		err = pubsub.PublishFor(ctx, p.publisher, EventPhase, p.playerID, PhaseEvent{Seq: ev.Seq, Phase: ev.Phase})
	case battle.EventInput:
		err = pubsub.PublishFor(ctx, p.publisher, EventInput, p.playerID, InputEvent{Seq: ev.Seq, Enabled: ev.InputEnabled})
	default:
		p.logger.Warn("Unknown battle event kind", "kind", ev.Kind)
		return
	}
	if err != nil {
		p.logger.Error("Failed to publish battle event", "player_id", p.playerID, "kind", ev.Kind, "seq", ev.Seq, "error", err)
	}
}
