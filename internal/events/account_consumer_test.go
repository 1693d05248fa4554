package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourhub/service-booking/internal/application"
	"github.com/tourhub/service-booking/internal/platform/kafka"
	"github.com/tourhub/service-booking/internal/proto/events"
)

type fakeCanceller struct {
	calls []uuid.UUID
	actor application.Actor
	err   error
}

func (f *fakeCanceller) CancelUserBookings(_ context.Context, actor application.Actor, userID uuid.UUID, reason string) (int, error) {
	f.calls = append(f.calls, userID)
	f.actor = actor
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

func newTestConsumer(svc BookingCanceller) *AccountEventConsumer {
	return &AccountEventConsumer{service: svc, logger: zap.NewNop()}
}

func message(t *testing.T, eventType string, data any) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-booking", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

func TestHandleMessage_AccountDeactivated(t *testing.T) {
	svc := &fakeCanceller{}
	c := newTestConsumer(svc)
	userID, staffID := uuid.New(), uuid.New()

	err := c.HandleMessage(context.Background(), message(t, events.AccountDeactivated, events.AccountDeactivatedEvent{
		UserID:        userID,
		DeactivatedBy: staffID,
	}))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{userID}, svc.calls)
	assert.True(t, svc.actor.IsStaff)
	assert.Equal(t, staffID, svc.actor.UserID)
}

func TestHandleMessage_SkipsUnusableMessages(t *testing.T) {
	svc := &fakeCanceller{}
	c := newTestConsumer(svc)
	ctx := context.Background()

	assert.NoError(t, c.HandleMessage(ctx, kafkago.Message{Value: []byte("{not json")}))
	assert.NoError(t, c.HandleMessage(ctx, kafkago.Message{Value: []byte(`{"id":"1"}`)}))
	assert.NoError(t, c.HandleMessage(ctx, message(t, "account.created", map[string]string{"user_id": uuid.NewString()})))
	assert.NoError(t, c.HandleMessage(ctx, message(t, events.AccountDeactivated, events.AccountDeactivatedEvent{})))
	assert.NoError(t, c.HandleMessage(ctx, message(t, events.AccountDeactivated, events.AccountDeactivatedEvent{
		UserID: uuid.New(),
	})))

	assert.Empty(t, svc.calls)
}

func TestHandleMessage_PropagatesServiceError(t *testing.T) {
	boom := errors.New("database down")
	c := newTestConsumer(&fakeCanceller{err: boom})

	err := c.HandleMessage(context.Background(), message(t, events.AccountDeactivated, events.AccountDeactivatedEvent{
		UserID:        uuid.New(),
		DeactivatedBy: uuid.New(),
	}))
	assert.ErrorIs(t, err, boom)
}
