package booking

import (
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

func newPending(t *testing.T, people int) *Booking {
	t.Helper()
	b, err := NewBooking(uuid.New(), uuid.New(), people, 2500, "", NewPerPersonPricingStrategy())
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := newPending(t, 3)

	assert.Equal(t, StatusPending, b.Status())
	assert.Equal(t, int64(7500), b.TotalPriceCents())
	assert.Equal(t, domain.CurrencyUSD, b.Currency())
	assert.True(t, strings.HasPrefix(b.BookingNumber(), "TB-"))
	assert.Len(t, b.BookingNumber(), 9)
	assert.Equal(t, int64(1), b.Version())
}

func TestNewBooking_Validation(t *testing.T) {
	pricing := NewPerPersonPricingStrategy()
	tests := []struct {
		name   string
		tourID uuid.UUID
		userID uuid.UUID
		people int
		price  int64
	}{
		{"nil tour", uuid.Nil, uuid.New(), 1, 100},
		{"nil user", uuid.New(), uuid.Nil, 1, 100},
		{"zero people", uuid.New(), uuid.New(), 0, 100},
		{"negative people", uuid.New(), uuid.New(), -2, 100},
		{"overflow", uuid.New(), uuid.New(), 3, math.MaxInt64 / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBooking(tt.tourID, tt.userID, tt.people, tt.price, "USD", pricing)
			assert.True(t, domain.IsKind(err, domain.KindValidation), "got %v", err)
		})
	}
}

func TestBooking_Confirm(t *testing.T) {
	staff := uuid.New()
	b := newPending(t, 2)

	require.NoError(t, b.Confirm(staff))
	assert.Equal(t, StatusConfirmed, b.Status())
	require.NotNil(t, b.ConfirmedBy())
	assert.Equal(t, staff, *b.ConfirmedBy())
	assert.NotNil(t, b.ConfirmedAt())

	err := b.Confirm(staff)
	assert.True(t, domain.HasCode(err, CodeAlreadyConfirmed))
}

func TestBooking_ConfirmCancelled(t *testing.T) {
	b := newPending(t, 2)
	_, err := b.Cancel(uuid.New(), "")
	require.NoError(t, err)

	err = b.Confirm(uuid.New())
	assert.True(t, domain.HasCode(err, domain.CodeInvalidStateTransition))
	assert.Equal(t, StatusCancelled, b.Status())
}

func TestBooking_Cancel(t *testing.T) {
	for _, confirmFirst := range []bool{false, true} {
		b := newPending(t, 4)
		if confirmFirst {
			require.NoError(t, b.Confirm(uuid.New()))
		}

		actor := uuid.New()
		released, err := b.Cancel(actor, "plans changed")
		require.NoError(t, err)
		assert.Equal(t, 4, released)
		assert.Equal(t, StatusCancelled, b.Status())
		assert.Equal(t, "plans changed", b.CancelReason())
		assert.Equal(t, actor, *b.CancelledBy())

		released, err = b.Cancel(actor, "again")
		assert.True(t, domain.HasCode(err, CodeAlreadyCancelled))
		assert.Zero(t, released)
		assert.Equal(t, "plans changed", b.CancelReason())
	}
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusCancelled.HoldsCapacity())

	_, err := ParseBookingStatus("requested")
	assert.Error(t, err)
	s, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)
}

func TestPerPersonPricing(t *testing.T) {
	p := NewPerPersonPricingStrategy()

	total, err := p.Calculate(PricingParams{UnitPriceCents: 0, PeopleCount: 5})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = p.Calculate(PricingParams{UnitPriceCents: -1, PeopleCount: 1})
	assert.Error(t, err)
}
