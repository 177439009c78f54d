package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/exerbeasts/internal/middleware"
	"github.com/nfrund/exerbeasts/internal/pubsub"
	"github.com/nfrund/exerbeasts/internal/topicmgr"
)

const writeWait = 10 * time.Second

// ClientEvent is the payload of the ws.client.* lifecycle topics.
type ClientEvent struct {
	UserID       string         `json:"user_id"`
	Endpoint     ConnectionType `json:"endpoint"`
	ConnectionID string         `json:"connection_id"`
	Reason       string         `json:"reason,omitempty"`
}

// Bridge connects websocket clients to the bus. Client frames are published on
// the bus under their action; messages addressed to players are written back.
type Bridge struct {
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber
	whitelist  *Whitelist

	mu      sync.RWMutex
	clients map[string]map[string]*Client
}

// NewBridge creates a bridge. Clients may only publish actions in wl.
func NewBridge(pub pubsub.Publisher, sub pubsub.Subscriber, wl *Whitelist) *Bridge {
	if wl == nil {
		wl = NewWhitelist()
	}
	return &Bridge{
		publisher:  pub,
		subscriber: sub,
		whitelist:  wl,
		clients:    make(map[string]map[string]*Client),
	}
}

// Whitelist returns the actions clients may publish. Modules extend it while booting.
func (b *Bridge) Whitelist() *Whitelist {
	return b.whitelist
}

// Start forwards the ws.* delivery topics to connected clients until ctx ends.
func (b *Bridge) Start(ctx context.Context) error {
	routes := []struct {
		topic    topicmgr.Topic
		endpoint ConnectionType
		direct   bool
	}{
		{TopicHTMLBroadcast, ConnectionTypeHTML, false},
		{TopicHTMLDirect, ConnectionTypeHTML, true},
		{TopicDataBroadcast, ConnectionTypeData, false},
		{TopicDataDirect, ConnectionTypeData, true},
	}
	for _, r := range routes {
		r := r
		err := b.subscriber.Subscribe(ctx, r.topic.Name(), func(ctx context.Context, msg pubsub.Message) error {
			if !r.direct {
				b.Broadcast(msg.Payload, r.endpoint)
				return nil
			}
			recipient := msg.Metadata[MetaRecipientID]
			if recipient == "" {
				recipient = msg.UserID
			}
			if recipient == "" {
				return errors.New("direct message without recipient")
			}
			b.SendDirect(recipient, msg.Payload, r.endpoint)
			return nil
		})
		if err != nil {
			return err
		}
	}
	slog.Info("WebSocket bridge started", "allowed_actions", b.whitelist.Actions())
	return nil
}

// Handler upgrades the request to a websocket for the current player and
// serves it until the connection closes.
func (b *Bridge) Handler(endpoint ConnectionType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := middleware.PlayerID(c)
		if userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "no player session")
		}
		logger := middleware.FromContext(c.Request().Context())

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			// Accept has already answered the request.
			logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
		defer cancel()

		client := newClient(uuid.NewString(), userID, endpoint, conn)
		b.add(client)
		go b.writePump(client)

		b.publishLifecycle(ctx, TopicClientReady, client, "")
		reason := b.readPump(ctx, client)
		b.remove(client)
		b.publishLifecycle(ctx, TopicClientDisconnected, client, reason)
		return nil
	}
}

func (b *Bridge) readPump(ctx context.Context, client *Client) string {
	for {
		_, data, err := client.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				slog.Info("WebSocket closed normally by client", "user_id", client.UserID)
				return "client_closed"
			}
			if errors.Is(err, io.EOF) {
				return "client_closed"
			}
			slog.Debug("WebSocket read ended", "user_id", client.UserID, "error", err)
			return "connection_lost"
		}
		b.handleIncoming(ctx, client, data)
	}
}

func (b *Bridge) handleIncoming(ctx context.Context, client *Client, data []byte) {
	env, err := ParseEnvelope(data)
	if err != nil {
		slog.Warn("Dropping malformed client frame", "user_id", client.UserID, "error", err)
		client.SendMessage(NewCommand(CmdError, "malformed message"))
		return
	}
	if !b.whitelist.IsAllowed(env.Action) {
		slog.Warn("Client attempted to publish to a forbidden topic", "user_id", client.UserID, "action", env.Action)
		client.SendMessage(NewCommand(CmdError, "action not allowed"))
		return
	}

	err = b.publisher.Publish(ctx, pubsub.Message{
		Topic:   env.Action,
		UserID:  client.UserID,
		Payload: env.Payload,
		Metadata: map[string]string{
			"connection_id": client.ID,
			"endpoint":      string(client.Endpoint),
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		slog.Error("Failed to publish client message", "user_id", client.UserID, "action", env.Action, "error", err)
	}
}

func (b *Bridge) writePump(client *Client) {
	defer client.conn.Close(websocket.StatusNormalClosure, "closing")

	for msg := range client.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := client.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "user_id", client.UserID, "error", err)
			return
		}
	}
}

func (b *Bridge) publishLifecycle(ctx context.Context, topic topicmgr.Topic, client *Client, reason string) {
	payload, err := json.Marshal(ClientEvent{
		UserID:       client.UserID,
		Endpoint:     client.Endpoint,
		ConnectionID: client.ID,
		Reason:       reason,
	})
	if err != nil {
		return
	}
	if err := b.publisher.Publish(ctx, pubsub.Message{Topic: topic.Name(), UserID: client.UserID, Payload: payload}); err != nil {
		slog.Error("Failed to publish websocket lifecycle event", "topic", topic.Name(), "error", err)
	}
}

func (b *Bridge) add(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clients[client.UserID] == nil {
		b.clients[client.UserID] = make(map[string]*Client)
	}
	b.clients[client.UserID][client.ID] = client
	slog.Info("Client registered", "user_id", client.UserID, "type", client.Endpoint)
}

func (b *Bridge) remove(client *Client) {
	b.mu.Lock()
	if set, ok := b.clients[client.UserID]; ok {
		delete(set, client.ID)
		if len(set) == 0 {
			delete(b.clients, client.UserID)
		}
	}
	b.mu.Unlock()
	client.Close()
	slog.Info("Client unregistered", "user_id", client.UserID, "type", client.Endpoint)
}

func matches(client *Client, endpoints []ConnectionType) bool {
	if len(endpoints) == 0 {
		return true
	}
	for _, e := range endpoints {
		if client.Endpoint == e {
			return true
		}
	}
	return false
}

// Broadcast queues payload for every client of the given endpoints, or all clients.
func (b *Bridge) Broadcast(payload []byte, endpoints ...ConnectionType) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, set := range b.clients {
		for _, client := range set {
			if matches(client, endpoints) {
				client.SendMessage(payload)
			}
		}
	}
}

// SendDirect queues payload for one player's clients and returns how many accepted it.
func (b *Bridge) SendDirect(userID string, payload []byte, endpoints ...ConnectionType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sent := 0
	for _, client := range b.clients[userID] {
		if matches(client, endpoints) && client.SendMessage(payload) {
			sent++
		}
	}
	return sent
}

// Disconnect sends a final frame to every client of userID and closes them.
func (b *Bridge) Disconnect(userID string, final []byte) {
	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients[userID]))
	for _, client := range b.clients[userID] {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		if final != nil && client.Endpoint == ConnectionTypeData {
			client.SendMessage(final)
		}
		client.Close()
	}
}

// ClientCount returns the number of open connections of userID.
func (b *Bridge) ClientCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[userID])
}
