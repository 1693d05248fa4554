// Package events defines the topics, event types and payloads exchanged over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicAccountEvents = "account.events"
)

// Event types.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"

	AccountDeactivated = "account.deactivated"
)

// BookingCreatedEvent is published after a booking is admitted.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	TourID          uuid.UUID `json:"tour_id"`
	UserID          uuid.UUID `json:"user_id"`
	PeopleCount     int       `json:"people_count"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published when staff confirm a booking.
type BookingConfirmedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	TourID        uuid.UUID `json:"tour_id"`
	UserID        uuid.UUID `json:"user_id"`
	ConfirmedBy   uuid.UUID `json:"confirmed_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled and its
// slots returned to the tour.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	TourID        uuid.UUID `json:"tour_id"`
	UserID        uuid.UUID `json:"user_id"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason,omitempty"`
	ReleasedSlots int       `json:"released_slots"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AccountDeactivatedEvent is published when staff deactivate a user account.
type AccountDeactivatedEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	DeactivatedBy uuid.UUID `json:"deactivated_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}
