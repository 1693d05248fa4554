package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Business error codes for booking transitions.
const (
	CodeAlreadyConfirmed = "ALREADY_CONFIRMED"
	CodeAlreadyCancelled = "ALREADY_CANCELLED"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	tourID        uuid.UUID
	userID        uuid.UUID
	peopleCount   int
	status        BookingStatus

	totalPriceCents int64
	currency        string

	confirmedAt  *time.Time
	confirmedBy  *uuid.UUID
	cancelledAt  *time.Time
	cancelledBy  *uuid.UUID
	cancelReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "TB-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "TB-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending. The total
// price is computed once here and never recomputed.
func NewBooking(
	tourID uuid.UUID,
	userID uuid.UUID,
	peopleCount int,
	unitPriceCents int64,
	currency string,
	pricing PricingStrategy,
) (*Booking, error) {
	if tourID == uuid.Nil {
		return nil, domain.NewValidationError("tour ID is required")
	}
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if peopleCount < 1 {
		return nil, domain.NewValidationError("people count must be at least 1")
	}
	if currency == "" {
		currency = domain.CurrencyUSD
	}

	total, err := pricing.Calculate(PricingParams{UnitPriceCents: unitPriceCents, PeopleCount: peopleCount})
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		tourID:          tourID,
		userID:          userID,
		peopleCount:     peopleCount,
		status:          StatusPending,
		totalPriceCents: total,
		currency:        currency,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	tourID uuid.UUID,
	userID uuid.UUID,
	peopleCount int,
	status BookingStatus,
	totalPriceCents int64,
	currency string,
	confirmedAt *time.Time,
	confirmedBy *uuid.UUID,
	cancelledAt *time.Time,
	cancelledBy *uuid.UUID,
	cancelReason string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		tourID:          tourID,
		userID:          userID,
		peopleCount:     peopleCount,
		status:          status,
		totalPriceCents: totalPriceCents,
		currency:        currency,
		confirmedAt:     confirmedAt,
		confirmedBy:     confirmedBy,
		cancelledAt:     cancelledAt,
		cancelledBy:     cancelledBy,
		cancelReason:    cancelReason,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// TourID returns the booked tour.
func (b *Booking) TourID() uuid.UUID { return b.tourID }

// UserID returns the user who made the booking.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// PeopleCount returns the number of reserved seats.
func (b *Booking) PeopleCount() int { return b.peopleCount }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalPriceCents returns the price frozen at creation, in cents.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }
func (b *Booking) ConfirmedBy() *uuid.UUID { return b.confirmedBy }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }
func (b *Booking) CancelledBy() *uuid.UUID { return b.cancelledBy }
func (b *Booking) CancelReason() string    { return b.cancelReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm(actorID uuid.UUID) error {
	if b.status == StatusConfirmed {
		return domain.NewConflictErrorWithCode(CodeAlreadyConfirmed, "booking is already confirmed")
	}
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.confirmedBy = &actorID
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled and returns the number of seats
// the tour gets back.
func (b *Booking) Cancel(actorID uuid.UUID, reason string) (int, error) {
	if b.status == StatusCancelled {
		return 0, domain.NewConflictErrorWithCode(CodeAlreadyCancelled, "booking is already cancelled")
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return 0, domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.cancelledBy = &actorID
	b.cancelReason = reason
	b.updatedAt = now
	return b.peopleCount, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
