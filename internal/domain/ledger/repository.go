package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads and writes ledger entries.
type Repository interface {
	// FindByTourID returns a lock-free snapshot of the tour's entry.
	FindByTourID(ctx context.Context, tourID uuid.UUID) (*Entry, error)

	// FindByTourIDs returns snapshots keyed by tour ID. Missing tours are omitted.
	FindByTourIDs(ctx context.Context, tourIDs []uuid.UUID) (map[uuid.UUID]*Entry, error)

	// Save inserts a new entry. Used when a tour is created.
	Save(ctx context.Context, entry *Entry) error
}

// TourFunc runs inside a tour-scoped unit of work with the locked entry.
type TourFunc func(ctx context.Context, entry *Entry) error

// UnitOfWork scopes atomic work. Repositories called with the ctx handed to fn
// take part in the same unit.
type UnitOfWork interface {
	// Within runs fn atomically without taking any tour lock.
	Within(ctx context.Context, fn func(ctx context.Context) error) error

	// WithinTour takes the tour's exclusive lock with a bounded wait, loads
	// its entry, runs fn and persists the entry, committing everything or
	// nothing. Lock timeouts surface as transient BUSY errors and an unknown
	// tour as not found.
	WithinTour(ctx context.Context, tourID uuid.UUID, fn TourFunc) error
}
