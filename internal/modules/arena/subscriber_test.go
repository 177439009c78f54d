package arena

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/pubsub"
	"github.com/nfrund/exerbeasts/internal/rendering"
	"github.com/nfrund/exerbeasts/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// outbox records what the subscriber addressed to websocket clients.
type outbox struct {
	mu   sync.Mutex
	data []frame
	html []string
}

func (o *outbox) frames() []frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]frame(nil), o.data...)
}

func (o *outbox) fragments() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.html...)
}

func (o *outbox) clear() {
	o.mu.Lock()
	o.data, o.html = nil, nil
	o.mu.Unlock()
}

func (o *outbox) types() []string {
	var out []string
	for _, f := range o.frames() {
		out = append(out, f.Type)
	}
	return out
}

func startSubscriber(t *testing.T, conns Connections) (*pubsub.WatermillBridge, *outbox, *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	out := &outbox{}
	require.NoError(t, bus.Subscribe(ctx, websocket.TopicDataDirect.Name(), func(ctx context.Context, msg pubsub.Message) error {
		assert.Equal(t, "p1", msg.Metadata[websocket.MetaRecipientID])
		var f frame
		if err := json.Unmarshal(msg.Payload, &f); err != nil {
			return err
		}
		out.mu.Lock()
		out.data = append(out.data, f)
		out.mu.Unlock()
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, websocket.TopicHTMLDirect.Name(), func(ctx context.Context, msg pubsub.Message) error {
		out.mu.Lock()
		out.html = append(out.html, string(msg.Payload))
		out.mu.Unlock()
		return nil
	}))

	sessions := NewSessions(SessionsConfig{
		Battle:       instant(),
		Scheduler:    battle.NewManualScheduler(),
		NewRNG:       func() battle.RNG { return topRNG{} },
		NewPresenter: NewBusPresenter(bus, nil),
	})
	svc := NewService(sessions, conns)
	sub := NewSubscriber(bus, bus, rendering.NewUniversalRenderer(), svc, nil, nil)
	require.NoError(t, sub.Start(ctx))
	return bus, out, svc
}

func TestSubscriber_ForwardsEngineEvents(t *testing.T) {
	bus, out, _ := startSubscriber(t, nil)
	ctx := context.Background()

	require.NoError(t, pubsub.PublishFor(ctx, bus, ClientSelect, "p1", SelectCommand{Move: "squat"}))
	require.Eventually(t, func() bool { return len(out.frames()) == 3 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{FramePhase, FrameInput, FrameText}, out.types())

	var text TextEvent
	require.NoError(t, json.Unmarshal(out.frames()[2].Payload, &text))
	assert.Equal(t, "Perform a SQUAT to execute Thunder Stomp!", text.Text)
	assert.Equal(t, uint64(3), text.Seq)

	require.Eventually(t, func() bool { return len(out.fragments()) == 3 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.fragments()[0], `id="battle-phase"`)
	assert.Contains(t, out.fragments()[1], `id="battle-menu"`)
	assert.Contains(t, out.fragments()[2], "Perform a SQUAT")

	out.clear()
	require.NoError(t, pubsub.PublishFor(ctx, bus, ClientPose, "p1", PoseCommand{Label: "squat", Confidence: 0.93}))
	require.Eventually(t, func() bool {
		types := out.types()
		return len(types) > 0 && types[len(types)-1] == FramePose
	}, time.Second, 10*time.Millisecond)

	// Sequence numbers stay strictly increasing across topics.
	var last uint64
	for _, f := range out.frames() {
		if f.Type == FramePose {
			continue
		}
		var ev struct {
			Seq uint64 `json:"seq"`
		}
		require.NoError(t, json.Unmarshal(f.Payload, &ev))
		assert.Greater(t, ev.Seq, last, "frame %s", f.Type)
		last = ev.Seq
	}

	var status PoseStatus
	frames := out.frames()
	require.NoError(t, json.Unmarshal(frames[len(frames)-1].Payload, &status))
	assert.True(t, status.Accepted)

	var sawEnemyHP bool
	for _, f := range frames {
		if f.Type != FrameHP {
			continue
		}
		var hp HPEvent
		require.NoError(t, json.Unmarshal(f.Payload, &hp))
		if hp.Who == battle.SideEnemy {
			sawEnemyHP = true
			assert.Equal(t, 80, hp.HP)
		}
	}
	assert.True(t, sawEnemyHP)
}

func TestSubscriber_RejectedSelectSendsError(t *testing.T) {
	bus, out, _ := startSubscriber(t, nil)
	ctx := context.Background()

	require.NoError(t, pubsub.PublishFor(ctx, bus, ClientSelect, "p1", SelectCommand{Move: "burpee"}))
	require.Eventually(t, func() bool { return len(out.frames()) == 1 }, time.Second, 10*time.Millisecond)

	f := out.frames()[0]
	assert.Equal(t, "command", f.Type)
	var cmd websocket.Command
	require.NoError(t, json.Unmarshal(f.Payload, &cmd))
	assert.Equal(t, websocket.CmdError, cmd.Name)
	assert.Contains(t, cmd.Detail, "unknown move")
}

func TestSubscriber_ClientReadySendsSnapshot(t *testing.T) {
	bus, out, svc := startSubscriber(t, nil)
	ctx := context.Background()

	_, err := svc.Select("p1", "tpose")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(out.frames()) == 3 }, time.Second, 10*time.Millisecond)
	out.clear()

	publishReady := func(endpoint websocket.ConnectionType) {
		payload, err := json.Marshal(websocket.ClientEvent{UserID: "p1", Endpoint: endpoint, ConnectionID: "c1"})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, pubsub.Message{Topic: websocket.TopicClientReady.Name(), UserID: "p1", Payload: payload}))
	}

	publishReady(websocket.ConnectionTypeData)
	require.Eventually(t, func() bool { return len(out.frames()) == 1 }, time.Second, 10*time.Millisecond)
	f := out.frames()[0]
	assert.Equal(t, FrameSnapshot, f.Type)
	var snap battle.Snapshot
	require.NoError(t, json.Unmarshal(f.Payload, &snap))
	assert.Equal(t, battle.PhaseAwaitingPose, snap.Phase)
	assert.Equal(t, battle.MoveTPose, snap.PendingMove)

	publishReady(websocket.ConnectionTypeHTML)
	require.Eventually(t, func() bool { return len(out.fragments()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.fragments()[0], "Perform a T-POSE to execute Intimidate!")
	assert.Contains(t, out.fragments()[0], `id="enemy-hp"`)
}

func TestSubscriber_VoiceStart(t *testing.T) {
	bus, out, svc := startSubscriber(t, nil)
	ctx := context.Background()

	_, err := svc.Select("p1", "lunge")
	require.NoError(t, err)

	require.NoError(t, pubsub.PublishFor(ctx, bus, ClientVoice, "p1", VoiceCommand{Transcript: "Start!"}))
	require.Eventually(t, func() bool {
		types := out.types()
		return len(types) > 0 && types[len(types)-1] == FrameVoice
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, battle.PhaseMenuSelection, svc.State("p1").Phase)
}

func TestSubscriber_InvalidCommandsSendError(t *testing.T) {
	bus, out, svc := startSubscriber(t, nil)
	ctx := context.Background()

	_, err := svc.Select("p1", "squat")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(out.frames()) == 3 }, time.Second, 10*time.Millisecond)
	out.clear()

	require.NoError(t, pubsub.PublishFor(ctx, bus, ClientPose, "p1", PoseCommand{Label: "squat", Confidence: 7}))
	require.Eventually(t, func() bool { return len(out.frames()) == 1 }, time.Second, 10*time.Millisecond)
	f := out.frames()[0]
	assert.Equal(t, "command", f.Type)
	var cmd websocket.Command
	require.NoError(t, json.Unmarshal(f.Payload, &cmd))
	assert.Equal(t, websocket.CmdError, cmd.Name)
	assert.Contains(t, cmd.Detail, "Confidence")
	assert.Equal(t, battle.PhaseAwaitingPose, svc.State("p1").Phase)

	out.clear()
	require.NoError(t, pubsub.PublishFor(ctx, bus, ClientSelect, "p2", SelectCommand{}))
	require.NoError(t, pubsub.PublishFor(ctx, bus, ClientVoice, "p2", VoiceCommand{}))
	require.Eventually(t, func() bool { return len(out.frames()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"command", "command"}, out.types())
	assert.Equal(t, 1, svc.Sessions().Count(), "invalid commands start no battle")
}

func TestSubscriber_LastClientLeavingClosesBattle(t *testing.T) {
	conns := &fakeConnections{}
	bus, _, svc := startSubscriber(t, conns)
	ctx := context.Background()

	_, err := svc.Select("p1", "plank")
	require.NoError(t, err)

	publishGone := func() {
		payload, err := json.Marshal(websocket.ClientEvent{UserID: "p1", Endpoint: websocket.ConnectionTypeHTML, ConnectionID: "c1", Reason: "client_closed"})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, pubsub.Message{Topic: websocket.TopicClientDisconnected.Name(), UserID: "p1", Payload: payload}))
	}

	// The data client is still open.
	conns.setCount("p1", 1)
	publishGone()
	assert.Never(t, func() bool { return svc.Sessions().Count() == 0 }, 100*time.Millisecond, 10*time.Millisecond)

	conns.setCount("p1", 0)
	publishGone()
	require.Eventually(t, func() bool { return svc.Sessions().Count() == 0 }, time.Second, 10*time.Millisecond)
}
