package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const payloadPreviewLen = 100

func startSpan(tracer trace.Tracer, op, topic string, msg *message.Message) (context.Context, trace.Span) {
	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	preview := string(msg.Payload)
	if len(preview) > payloadPreviewLen {
		preview = preview[:payloadPreviewLen] + "..."
	}

	return tracer.Start(ctx, fmt.Sprintf("pubsub.%s.%s", op, topic),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", op),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.message_id", msg.UUID),
			attribute.String("battle.player_id", msg.Metadata.Get(metaKeyUserID)),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
			attribute.String("messaging.message_payload_preview", preview),
		),
	)
}

// TracingMiddleware wraps a watermill handler in a "process" span.
func TracingMiddleware(tracer trace.Tracer) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx, span := startSpan(tracer, "process", msg.Metadata.Get(metaKeyTopic), msg)
			defer span.End()
			msg.SetContext(ctx)

			produced, err := h(msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			span.SetAttributes(attribute.Int("messaging.messages_produced", len(produced)))
			return produced, nil
		}
	}
}

// PublisherTracingMiddleware records a "publish" span per outgoing message.
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

// NewPublisherTracingMiddleware wraps publisher.
func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{publisher: publisher, tracer: tracer}
}

// Publish implements message.Publisher.
func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		ctx, span := startSpan(p.tracer, "publish", topic, msg)
		msg.SetContext(ctx)
		spans = append(spans, span)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}

// Close implements message.Publisher.
func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}
