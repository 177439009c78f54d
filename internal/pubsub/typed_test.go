package pubsub

import (
	"testing"

	"github.com/nfrund/exerbeasts/internal/topicmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_RegistersTopic(t *testing.T) {
	topic, ok := topicmgr.Default().Get(pingEvent.Name())
	require.True(t, ok)

	assert.Equal(t, "pubsubtest", topic.Module())
	assert.Equal(t, topicmgr.ScopeModule, topic.Scope())

	meta := topic.Metadata()
	assert.Equal(t, []string{"seq", "note"}, meta["payload_fields"])
	assert.Equal(t, "pingPayload", meta["type_name"])
	assert.Equal(t, true, meta["is_typed"])
}

func TestNewEvent_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewEvent[pingPayload](pingEvent.Name(), "again")
	})
}
