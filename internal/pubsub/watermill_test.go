package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingPayload struct {
	Seq  int    `json:"seq"`
	Note string `json:"note,omitempty"`
}

var pingEvent = NewEvent[pingPayload]("pubsubtest.event.ping", "Test ping with a sequence number")

func TestWatermillBridge_PreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bridge := NewWatermillBridge()
	defer bridge.Close()

	var mu sync.Mutex
	var seen []int
	done := make(chan struct{})
	require.NoError(t, Subscribe(ctx, bridge, pingEvent, func(ctx context.Context, userID string, p pingPayload) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p.Seq)
		if len(seen) == 50 {
			close(done)
		}
		return nil
	}))

	for i := 1; i <= 50; i++ {
		require.NoError(t, PublishFor(ctx, bridge, pingEvent, "p1", pingPayload{Seq: i}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all messages delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	for i, seq := range seen {
		assert.Equal(t, i+1, seq)
	}
}

func TestWatermillBridge_HandlerErrorDoesNotStall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bridge := NewWatermillBridge()
	defer bridge.Close()

	calls := make(chan int, 4)
	require.NoError(t, Subscribe(ctx, bridge, pingEvent, func(ctx context.Context, userID string, p pingPayload) error {
		calls <- p.Seq
		if p.Seq == 1 {
			return errors.New("boom")
		}
		return nil
	}))

	require.NoError(t, Publish(ctx, bridge, pingEvent, pingPayload{Seq: 1}))
	require.NoError(t, Publish(ctx, bridge, pingEvent, pingPayload{Seq: 2}))

	assert.Equal(t, 1, <-calls)
	assert.Equal(t, 2, <-calls)
}

func TestSubscribe_DecodeError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bridge := NewWatermillBridge()
	defer bridge.Close()

	called := make(chan struct{}, 1)
	require.NoError(t, Subscribe(ctx, bridge, pingEvent, func(ctx context.Context, userID string, p pingPayload) error {
		called <- struct{}{}
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: pingEvent.Name(), Payload: []byte("not json")}))
	require.NoError(t, Publish(ctx, bridge, pingEvent, pingPayload{Seq: 3}))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("valid message after a bad one was not delivered")
	}
	assert.Empty(t, called)
}
