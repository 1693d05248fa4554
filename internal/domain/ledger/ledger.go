package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

// Error codes raised by the ledger.
const (
	CodeInsufficientCapacity  = "INSUFFICIENT_CAPACITY"
	CodeTourInactive          = "TOUR_INACTIVE"
	CodeCapacityBelowReserved = "CAPACITY_BELOW_RESERVED"
)

// NewInsufficientCapacityError reports a reservation that does not fit. The
// number of slots left at the moment of rejection is exposed as
// details.available.
func NewInsufficientCapacityError(requested, available int) *domain.AppError {
	return domain.NewConflictErrorWithCode(CodeInsufficientCapacity,
		fmt.Sprintf("not enough available slots: requested %d, available %d", requested, available)).
		WithDetail("available", available)
}

// NewTourInactiveError reports a reservation against a tour that is not bookable.
func NewTourInactiveError(tourID uuid.UUID) *domain.AppError {
	return domain.NewConflictErrorWithCode(CodeTourInactive,
		fmt.Sprintf("tour %s is not active", tourID))
}

// AvailableFrom extracts the available slot count from an insufficient
// capacity error.
func AvailableFrom(err error) (int, bool) {
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != CodeInsufficientCapacity {
		return 0, false
	}
	n, ok := appErr.Details["available"].(int)
	return n, ok
}

// Entry is the authoritative reservation counter for one tour.
// Invariant: 0 <= reservedCount <= maxPeople.
type Entry struct {
	tourID        uuid.UUID
	maxPeople     int
	reservedCount int
	active        bool
	version       int64
	updatedAt     time.Time
}

// NewEntry creates an empty entry for a newly created tour.
func NewEntry(tourID uuid.UUID, maxPeople int, active bool) (*Entry, error) {
	if tourID == uuid.Nil {
		return nil, domain.NewValidationError("tour ID is required")
	}
	if maxPeople < 1 {
		return nil, domain.NewValidationError("max people must be at least 1")
	}
	return &Entry{
		tourID:    tourID,
		maxPeople: maxPeople,
		active:    active,
		version:   1,
		updatedAt: time.Now().UTC(),
	}, nil
}

// ReconstructEntry rebuilds an Entry from persistence data (no validation).
func ReconstructEntry(tourID uuid.UUID, maxPeople, reservedCount int, active bool, version int64, updatedAt time.Time) *Entry {
	return &Entry{
		tourID:        tourID,
		maxPeople:     maxPeople,
		reservedCount: reservedCount,
		active:        active,
		version:       version,
		updatedAt:     updatedAt,
	}
}

func (e *Entry) TourID() uuid.UUID    { return e.tourID }
func (e *Entry) MaxPeople() int       { return e.maxPeople }
func (e *Entry) ReservedCount() int   { return e.reservedCount }
func (e *Entry) IsActive() bool       { return e.active }
func (e *Entry) Version() int64       { return e.version }
func (e *Entry) UpdatedAt() time.Time { return e.updatedAt }

// Available returns the number of unreserved slots.
func (e *Entry) Available() int {
	if n := e.maxPeople - e.reservedCount; n > 0 {
		return n
	}
	return 0
}

// TryReserve reserves count slots if the tour is active and they fit.
func (e *Entry) TryReserve(count int) error {
	if count <= 0 {
		return domain.NewValidationError("people count must be at least 1")
	}
	if !e.active {
		return NewTourInactiveError(e.tourID)
	}
	if e.reservedCount+count > e.maxPeople {
		return NewInsufficientCapacityError(count, e.Available())
	}
	e.reservedCount += count
	e.touch()
	return nil
}

// Release returns count slots. Releasing more than is reserved means the
// ledger and the bookings disagree, which is reported rather than clamped.
func (e *Entry) Release(count int) error {
	if count <= 0 {
		return domain.NewValidationError("release count must be at least 1")
	}
	if count > e.reservedCount {
		return domain.NewInternalError(
			fmt.Sprintf("ledger for tour %s would go negative: reserved %d, releasing %d", e.tourID, e.reservedCount, count),
			nil)
	}
	e.reservedCount -= count
	e.touch()
	return nil
}

// Resize changes the tour capacity. Shrinking below what is already reserved
// is rejected.
func (e *Entry) Resize(maxPeople int) error {
	if maxPeople < 1 {
		return domain.NewValidationError("max people must be at least 1")
	}
	if maxPeople < e.reservedCount {
		return domain.NewConflictErrorWithCode(CodeCapacityBelowReserved,
			fmt.Sprintf("cannot reduce capacity to %d: %d slots already reserved", maxPeople, e.reservedCount)).
			WithDetail("reserved", e.reservedCount)
	}
	if maxPeople != e.maxPeople {
		e.maxPeople = maxPeople
		e.touch()
	}
	return nil
}

// SetActive mirrors the tour's bookable flag.
func (e *Entry) SetActive(active bool) {
	if e.active != active {
		e.active = active
		e.touch()
	}
}

// Reconcile overwrites the reserved count with the value recomputed from live
// bookings and returns the drift (new minus old).
func (e *Entry) Reconcile(actual int) (int, error) {
	if actual < 0 {
		return 0, domain.NewValidationError("reserved count cannot be negative")
	}
	if actual > e.maxPeople {
		return 0, domain.NewInternalError(
			fmt.Sprintf("live bookings for tour %s exceed capacity: %d > %d", e.tourID, actual, e.maxPeople), nil)
	}
	drift := actual - e.reservedCount
	if drift != 0 {
		e.reservedCount = actual
		e.touch()
	}
	return drift, nil
}

func (e *Entry) touch() {
	e.version++
	e.updatedAt = time.Now().UTC()
}
