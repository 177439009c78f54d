package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
)

// Metadata keys that carry Message fields through watermill.
const (
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// WatermillBridge implements Publisher and Subscriber on an in-memory GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
}

// NewWatermillBridge creates an untraced in-process bus.
func NewWatermillBridge() *WatermillBridge {
	return NewWatermillBridgeWithTracer(nil)
}

// NewWatermillBridgeWithTracer creates an in-process bus whose publishes and
// handler invocations are recorded as spans. A nil tracer disables tracing.
func NewWatermillBridgeWithTracer(tracer trace.Tracer) *WatermillBridge {
	// Publishing blocks until every subscriber acked so consecutive events keep their order.
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NewStdLogger(false, false),
	)

	wb := &WatermillBridge{pub: goChannel, sub: goChannel, tracer: tracer}
	if tracer != nil {
		wb.pub = NewPublisherTracingMiddleware(goChannel, tracer)
	}
	return wb
}

func toWatermill(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

func fromWatermill(wmMsg *message.Message) Message {
	msg := Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: make(map[string]string, len(wmMsg.Metadata)),
	}
	for k, v := range wmMsg.Metadata {
		if k != metaKeyTopic && k != metaKeyUserID {
			msg.Metadata[k] = v
		}
	}
	return msg
}

// Publish implements Publisher.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	wmMsg := toWatermill(msg)
	wmMsg.SetContext(ctx)
	return wb.pub.Publish(msg.Topic, wmMsg)
}

// Subscribe implements Subscriber. Handler errors are logged; the message is
// acked either way because GoChannel redelivers nacked messages forever.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	process := func(wmMsg *message.Message) ([]*message.Message, error) {
		return nil, handler(wmMsg.Context(), fromWatermill(wmMsg))
	}
	if wb.tracer != nil {
		process = TracingMiddleware(wb.tracer)(process)
	}

	go func() {
		for wmMsg := range messages {
			if _, err := process(wmMsg); err != nil {
				slog.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		slog.Debug("Subscription message loop ended", "topic", topic)
	}()
	return nil
}

// Close shuts the bus down and ends every subscription loop.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}
