// Package memory provides non-durable implementations of the repositories and
// the unit of work. They back service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/domain/account"
	"github.com/tourhub/service-booking/internal/domain/booking"
	"github.com/tourhub/service-booking/internal/domain/category"
	"github.com/tourhub/service-booking/internal/domain/ledger"
	"github.com/tourhub/service-booking/internal/domain/tour"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

const defaultLockTimeout = 2 * time.Second

// Store holds committed state. Writes made inside a unit of work are staged on
// the transaction and applied in one step at commit.
type Store struct {
	mu         sync.RWMutex
	bookings   map[uuid.UUID]*booking.Booking
	ledgers    map[uuid.UUID]*ledger.Entry
	tours      map[uuid.UUID]*tour.Tour
	categories map[uuid.UUID]*category.Category
	accounts   map[uuid.UUID]*account.Account

	locksMu     sync.Mutex
	tourLocks   map[uuid.UUID]chan struct{}
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long WithinTour waits for a tour's lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		bookings:    make(map[uuid.UUID]*booking.Booking),
		ledgers:     make(map[uuid.UUID]*ledger.Entry),
		tours:       make(map[uuid.UUID]*tour.Tour),
		categories:  make(map[uuid.UUID]*category.Category),
		accounts:    make(map[uuid.UUID]*account.Account),
		tourLocks:   make(map[uuid.UUID]chan struct{}),
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type txKey struct{}

type tx struct {
	bookings          map[uuid.UUID]*booking.Booking
	ledgers           map[uuid.UUID]*ledger.Entry
	tours             map[uuid.UUID]*tour.Tour
	categories        map[uuid.UUID]*category.Category
	deletedCategories map[uuid.UUID]bool
	accounts          map[uuid.UUID]*account.Account
	locked            map[uuid.UUID]bool
	live              map[uuid.UUID]*ledger.Entry
	releases          []func()
}

func newTx() *tx {
	return &tx{
		bookings:          make(map[uuid.UUID]*booking.Booking),
		ledgers:           make(map[uuid.UUID]*ledger.Entry),
		tours:             make(map[uuid.UUID]*tour.Tour),
		categories:        make(map[uuid.UUID]*category.Category),
		deletedCategories: make(map[uuid.UUID]bool),
		accounts:          make(map[uuid.UUID]*account.Account),
		locked:            make(map[uuid.UUID]bool),
		live:              make(map[uuid.UUID]*ledger.Entry),
	}
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// UnitOfWork returns the store's ledger.UnitOfWork.
func (s *Store) UnitOfWork() *UnitOfWork { return &UnitOfWork{s: s} }

// UnitOfWork implements ledger.UnitOfWork with per-tour lock channels.
type UnitOfWork struct {
	s *Store
}

// Within runs fn with staged writes, committing them if fn succeeds and ctx
// is still live.
func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.s.run(ctx, func(ctx context.Context, _ *tx) error { return fn(ctx) })
}

// WithinTour serializes fn with every other unit of work on the same tour.
// The lock is held until the outermost unit commits or rolls back. A nested
// call for the same tour shares the outer call's entry and the outer call
// stages it.
func (u *UnitOfWork) WithinTour(ctx context.Context, tourID uuid.UUID, fn ledger.TourFunc) error {
	return u.s.run(ctx, func(ctx context.Context, t *tx) error {
		if entry, ok := t.live[tourID]; ok {
			return fn(ctx, entry)
		}

		if !t.locked[tourID] {
			release, err := u.s.lockTour(ctx, tourID)
			if err != nil {
				return err
			}
			t.locked[tourID] = true
			t.releases = append(t.releases, release)
		}

		entry, ok := u.s.readLedger(t, tourID)
		if !ok {
			return domain.NewNotFoundError("Tour", tourID.String())
		}
		t.live[tourID] = entry
		defer delete(t.live, tourID)

		before := entry.Version()
		if err := fn(ctx, entry); err != nil {
			return err
		}
		if entry.Version() != before {
			t.ledgers[tourID] = cloneEntry(entry)
		}
		return nil
	})
}

// run executes fn in the transaction carried by ctx, or in a fresh one that
// is committed afterwards while its tour locks are still held.
func (s *Store) run(ctx context.Context, fn func(ctx context.Context, t *tx) error) error {
	if t := txFrom(ctx); t != nil {
		return fn(ctx, t)
	}

	t := newTx()
	defer t.releaseLocks()

	if err := fn(context.WithValue(ctx, txKey{}, t), t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) lockTour(ctx context.Context, tourID uuid.UUID) (func(), error) {
	s.locksMu.Lock()
	ch, ok := s.tourLocks[tourID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.tourLocks[tourID] = ch
	}
	s.locksMu.Unlock()

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, domain.NewTransientError(domain.CodeBusy, "tour is busy, try again",
			fmt.Errorf("lock wait exceeded %s", s.lockTimeout))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// commit applies staged writes atomically. The ledger invariant is checked
// first, mirroring the database CHECK constraint.
func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range t.ledgers {
		if e.ReservedCount() < 0 || e.ReservedCount() > e.MaxPeople() {
			return domain.NewInternalError(
				fmt.Sprintf("ledger invariant violated for tour %s: reserved %d of %d", id, e.ReservedCount(), e.MaxPeople()), nil)
		}
	}

	for id, c := range t.categories {
		s.categories[id] = c
	}
	for id := range t.deletedCategories {
		delete(s.categories, id)
	}
	for id, tr := range t.tours {
		s.tours[id] = tr
	}
	for id, e := range t.ledgers {
		s.ledgers[id] = e
	}
	for id, b := range t.bookings {
		s.bookings[id] = b
	}
	for id, a := range t.accounts {
		s.accounts[id] = a
	}
	return nil
}

func (t *tx) releaseLocks() {
	for i := len(t.releases) - 1; i >= 0; i-- {
		t.releases[i]()
	}
}

func (s *Store) readLedger(t *tx, tourID uuid.UUID) (*ledger.Entry, bool) {
	if t != nil {
		if e, ok := t.live[tourID]; ok {
			return cloneEntry(e), true
		}
		if e, ok := t.ledgers[tourID]; ok {
			return cloneEntry(e), true
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.ledgers[tourID]
	if !ok {
		return nil, false
	}
	return cloneEntry(e), true
}

// write stages fn's changes on the transaction in ctx, or applies them
// immediately when there is none.
func (s *Store) write(ctx context.Context, fn func(t *tx) error) error {
	if t := txFrom(ctx); t != nil {
		return fn(t)
	}
	t := newTx()
	if err := fn(t); err != nil {
		return err
	}
	return s.commit(t)
}
