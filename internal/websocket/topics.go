package websocket

import (
	"errors"

	"github.com/nfrund/exerbeasts/internal/topicmgr"
)

// Metadata key naming the player a direct topic is addressed to.
const MetaRecipientID = "recipient_id"

var (
	TopicHTMLBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.broadcast",
		Description: "Broadcast an HTML fragment to every HTML client",
		Metadata:    map[string]interface{}{"endpoint_type": "html", "routing_type": "broadcast"},
	})

	TopicHTMLDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.direct",
		Description: "Send an HTML fragment to the HTML clients of one player",
		Metadata:    map[string]interface{}{"endpoint_type": "html", "routing_type": "direct", "requires": []string{MetaRecipientID}},
	})

	TopicDataBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.broadcast",
		Description: "Broadcast JSON to every data client",
		Metadata:    map[string]interface{}{"endpoint_type": "data", "routing_type": "broadcast"},
	})

	TopicDataDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.direct",
		Description: "Send JSON to the data clients of one player",
		Metadata:    map[string]interface{}{"endpoint_type": "data", "routing_type": "direct", "requires": []string{MetaRecipientID}},
	})

	TopicClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "A websocket client finished its handshake",
		Example:     `{"user_id":"6f1c2a4e-...","endpoint":"data","connection_id":"9b0d..."}`,
		Metadata:    map[string]interface{}{"event_type": "lifecycle"},
	})

	TopicClientDisconnected = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "A websocket client went away",
		Example:     `{"user_id":"6f1c2a4e-...","endpoint":"html","connection_id":"9b0d...","reason":"client_closed"}`,
		Metadata:    map[string]interface{}{"event_type": "lifecycle"},
	})
)

// RegisterTopics registers the websocket framework topics. Already registered
// topics are skipped so it is safe to call more than once.
func RegisterTopics(manager *topicmgr.Manager) error {
	for _, topic := range []topicmgr.Topic{
		TopicHTMLBroadcast,
		TopicHTMLDirect,
		TopicDataBroadcast,
		TopicDataDirect,
		TopicClientReady,
		TopicClientDisconnected,
	} {
		if err := manager.Register(topic); err != nil {
			var te *topicmgr.TopicError
			if errors.As(err, &te) && te.Type == topicmgr.ErrorDuplicateRegistration {
				continue
			}
			return err
		}
	}
	return nil
}
