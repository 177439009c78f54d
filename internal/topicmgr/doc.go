// Package topicmgr keeps the catalogue of bus topics.
//
// Framework topics belong to the websocket bridge and the server itself and
// start with "ws." or "server.". Module topics belong to a module such as
// "battle" and are usually declared through pubsub.NewEvent:
//
//	var HPChanged = pubsub.NewEvent[HPPayload]("battle.event.hp", "A combatant's hp changed")
//
// Untyped topics are declared with DefineFramework or DefineModule and
// registered on the default manager:
//
//	var ClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "ws.client.ready",
//		Description: "A websocket client finished its handshake",
//		Example:     `{"user_id":"6f1c...","endpoint":"data"}`,
//	})
//
// The CLI lists the catalogue with `exerbeasts-cli topics list`.
package topicmgr
