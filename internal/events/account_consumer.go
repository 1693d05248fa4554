package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tourhub/service-booking/internal/application"
	"github.com/tourhub/service-booking/internal/platform/kafka"
	"github.com/tourhub/service-booking/internal/proto/events"
)

const deactivationReason = "account deactivated"

// BookingCanceller cancels every live booking of a user.
type BookingCanceller interface {
	CancelUserBookings(ctx context.Context, actor application.Actor, userID uuid.UUID, reason string) (int, error)
}

// AccountEventConsumer listens to account events and releases the capacity
// held by deactivated users.
type AccountEventConsumer struct {
	consumer *kafka.Consumer
	service  BookingCanceller
	logger   *zap.Logger
}

// NewAccountEventConsumer creates a new AccountEventConsumer.
func NewAccountEventConsumer(
	brokers []string,
	groupID string,
	service BookingCanceller,
	logger *zap.Logger,
) *AccountEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicAccountEvents, logger)
	return &AccountEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming account events. This blocks until the context is cancelled.
func (c *AccountEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.HandleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *AccountEventConsumer) Close() error {
	return c.consumer.Close()
}

// HandleMessage dispatches one account event. Malformed messages are logged
// and skipped.
func (c *AccountEventConsumer) HandleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from account topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil
	}

	switch cloudEvent.Type {
	case events.AccountDeactivated:
		return c.handleAccountDeactivated(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled account event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *AccountEventConsumer) handleAccountDeactivated(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.AccountDeactivatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse AccountDeactivatedEvent data", zap.Error(err))
		return nil
	}
	if evt.UserID == uuid.Nil {
		c.logger.Error("account deactivated event without user id", zap.String("event_id", cloudEvent.ID))
		return nil
	}
	if evt.DeactivatedBy == uuid.Nil {
		c.logger.Error("account deactivated event without deactivating staff id",
			zap.String("event_id", cloudEvent.ID),
			zap.String("user_id", evt.UserID.String()),
		)
		return nil
	}

	c.logger.Info("processing account deactivated event",
		zap.String("user_id", evt.UserID.String()),
		zap.String("deactivated_by", evt.DeactivatedBy.String()),
	)

	actor := application.Actor{UserID: evt.DeactivatedBy, IsStaff: true}
	cancelled, err := c.service.CancelUserBookings(ctx, actor, evt.UserID, deactivationReason)
	if err != nil {
		c.logger.Error("failed to cancel bookings of deactivated account",
			zap.String("user_id", evt.UserID.String()),
			zap.Int("cancelled", cancelled),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("bookings cancelled for deactivated account",
		zap.String("user_id", evt.UserID.String()),
		zap.Int("cancelled", cancelled),
	)
	return nil
}
