package booking

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows booking listings. Zero values mean "any".
type ListFilter struct {
	UserID *uuid.UUID
	TourID *uuid.UUID
	Status *BookingStatus
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// List retrieves bookings matching filter, newest first, with pagination.
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Booking, int64, error)

	// FindLiveByUserID returns the user's pending and confirmed bookings.
	FindLiveByUserID(ctx context.Context, userID uuid.UUID) ([]*Booking, error)

	// SumLivePeople sums people_count over the tour's pending and confirmed bookings.
	SumLivePeople(ctx context.Context, tourID uuid.UUID) (int, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
