package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/exerbeasts/internal/topicmgr"
)

// Event is a topic whose payload is always a T encoded as JSON.
type Event[T any] struct {
	name string
}

// NewEvent declares a typed module topic and registers it with the default
// topic manager. The owning module is the first segment of name. It panics on
// an invalid or duplicate name, so declare events at package level.
func NewEvent[T any](name, description string) Event[T] {
	module, _, _ := strings.Cut(name, ".")

	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	topicmgr.Default().MustRegister(topicmgr.DefineModule(topicmgr.TopicConfig{
		Name:        name,
		Module:      module,
		Description: description,
		Pattern:     name,
		Metadata: map[string]interface{}{
			"payload_fields": payloadFields(typ),
			"type_name":      typ.Name(),
			"is_typed":       true,
		},
	}))
	return Event[T]{name: name}
}

func payloadFields(typ reflect.Type) []string {
	fields := []string{}
	if typ.Kind() != reflect.Struct {
		return fields
	}
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			fields = append(fields, name)
		}
	}
	return fields
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.name
}

// Publish broadcasts payload on the event topic.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	return PublishFor(ctx, p, event, "", payload)
}

// PublishFor publishes payload on the event topic on behalf of one player.
func PublishFor[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event.name, err)
	}
	return p.Publish(ctx, Message{Topic: event.name, UserID: userID, Payload: data})
}

// Subscribe consumes the event topic, decoding each payload into a T.
// Undecodable payloads are reported to the bus as handler errors.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, userID string, payload T) error) error {
	return s.Subscribe(ctx, event.name, func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.name, err)
		}
		return handler(ctx, msg.UserID, payload)
	})
}
