package topics

import (
	"io"
	"log/slog"

	// Module topics are declared at package level and register on import.
	_ "github.com/nfrund/exerbeasts/internal/modules/arena"
	"github.com/nfrund/exerbeasts/internal/topicmgr"
	"github.com/nfrund/exerbeasts/internal/websocket"
)

// Initialize registers every framework and module topic with the default
// manager and returns it. Logging is silenced to keep CLI output clean.
func Initialize() (*topicmgr.Manager, error) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	manager := topicmgr.Default()
	if err := websocket.RegisterTopics(manager); err != nil {
		return nil, err
	}
	return manager, nil
}
