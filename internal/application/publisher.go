package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/tourhub/service-booking/internal/platform/kafka"
)

const eventSource = "service-booking"

// EventPublisher delivers CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

type publisher struct {
	producer EventPublisher
	logger   *zap.Logger
}

// publish sends an event after the business operation committed. Failures are
// logged and never returned to the caller.
func (p publisher) publish(ctx context.Context, topic, eventType, key string, data interface{}) {
	if p.producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := p.producer.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
