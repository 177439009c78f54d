package topics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/nfrund/exerbeasts/internal/topicmgr"
	"github.com/nfrund/exerbeasts/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	manager, err := Initialize()
	require.NoError(t, err)

	for _, name := range []string{"battle.event.text", "battle.client.select", "ws.client.ready"} {
		_, ok := manager.Get(name)
		assert.True(t, ok, name)
	}
	assert.NotEmpty(t, manager.ListByModule("battle"))
}

func TestDisplayTopicsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayTopicsTable(&buf, []topicmgr.Topic{websocket.TopicClientReady}))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "ws.client.ready")
	assert.Contains(t, out, "framework")
	assert.Contains(t, out, " - ")
}

func TestDisplayTopicsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayTopicsJSON(&buf, []topicmgr.Topic{websocket.TopicDataDirect, websocket.TopicHTMLDirect}))

	var out struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "ws.data.direct", out.Topics[0].Name)
	assert.Equal(t, "direct", out.Topics[0].Metadata["routing_type"])
}

func TestDisplayTopicDetails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayTopicDetails(&buf, websocket.TopicClientDisconnected, "table"))

	out := buf.String()
	assert.Contains(t, out, "Module:      (framework)")
	assert.Contains(t, out, `"reason":"client_closed"`)
	assert.Contains(t, out, "  event_type: lifecycle")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "...", truncateString("abcdef", 2))
}
