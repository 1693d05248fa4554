package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourhub/service-booking/internal/domain/booking"
	"github.com/tourhub/service-booking/internal/domain/category"
	"github.com/tourhub/service-booking/internal/domain/ledger"
	"github.com/tourhub/service-booking/internal/domain/tour"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

func seedTour(t *testing.T, s *Store, maxPeople int) *tour.Tour {
	t.Helper()
	ctx := context.Background()

	c, err := category.NewCategory("Walking " + uuid.NewString()[:6])
	require.NoError(t, err)
	require.NoError(t, s.Categories().Save(ctx, c))

	tr, err := tour.NewTour(tour.NewTourParams{
		Title:      "Old town",
		CategoryID: c.ID(),
		City:       "Lisbon",
		Country:    "Portugal",
		PriceCents: 2500,
		StartDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		MaxPeople:  maxPeople,
	})
	require.NoError(t, err)
	entry, err := ledger.NewEntry(tr.ID(), tr.MaxPeople(), true)
	require.NoError(t, err)

	require.NoError(t, s.UnitOfWork().Within(ctx, func(ctx context.Context) error {
		if err := s.Tours().Save(ctx, tr); err != nil {
			return err
		}
		return s.Ledgers().Save(ctx, entry)
	}))
	return tr
}

func TestWithinTour_CommitsEntryAndWrites(t *testing.T) {
	s := NewStore()
	tr := seedTour(t, s, 5)
	ctx := context.Background()

	var bk *booking.Booking
	err := s.UnitOfWork().WithinTour(ctx, tr.ID(), func(ctx context.Context, e *ledger.Entry) error {
		if err := e.TryReserve(3); err != nil {
			return err
		}
		var err error
		bk, err = booking.NewBooking(tr.ID(), uuid.New(), 3, tr.PriceCents(), "", booking.NewPerPersonPricingStrategy())
		if err != nil {
			return err
		}
		return s.Bookings().Save(ctx, bk)
	})
	require.NoError(t, err)

	entry, err := s.Ledgers().FindByTourID(ctx, tr.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, entry.ReservedCount())

	stored, err := s.Bookings().FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(7500), stored.TotalPriceCents())
}

func TestWithinTour_RollsBackOnError(t *testing.T) {
	s := NewStore()
	tr := seedTour(t, s, 5)
	ctx := context.Background()
	boom := errors.New("boom")

	var bookingID uuid.UUID
	err := s.UnitOfWork().WithinTour(ctx, tr.ID(), func(ctx context.Context, e *ledger.Entry) error {
		require.NoError(t, e.TryReserve(2))
		bk, err := booking.NewBooking(tr.ID(), uuid.New(), 2, 100, "", booking.NewPerPersonPricingStrategy())
		require.NoError(t, err)
		bookingID = bk.ID()
		require.NoError(t, s.Bookings().Save(ctx, bk))
		return boom
	})
	require.ErrorIs(t, err, boom)

	entry, err := s.Ledgers().FindByTourID(ctx, tr.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, entry.ReservedCount())

	_, err = s.Bookings().FindByID(ctx, bookingID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestWithinTour_RollsBackOnCancelledContext(t *testing.T) {
	s := NewStore()
	tr := seedTour(t, s, 5)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.UnitOfWork().WithinTour(ctx, tr.ID(), func(ctx context.Context, e *ledger.Entry) error {
		require.NoError(t, e.TryReserve(4))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	entry, err := s.Ledgers().FindByTourID(context.Background(), tr.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, entry.ReservedCount())
}

func TestWithinTour_UnknownTour(t *testing.T) {
	s := NewStore()
	err := s.UnitOfWork().WithinTour(context.Background(), uuid.New(), func(context.Context, *ledger.Entry) error {
		t.Fatal("fn must not run")
		return nil
	})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "TOUR_NOT_FOUND", appErr.Code)
}

func TestWithinTour_LockTimeoutIsBusy(t *testing.T) {
	s := NewStore(WithLockTimeout(20 * time.Millisecond))
	tr := seedTour(t, s, 5)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.UnitOfWork().WithinTour(context.Background(), tr.ID(), func(context.Context, *ledger.Entry) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := s.UnitOfWork().WithinTour(context.Background(), tr.ID(), func(context.Context, *ledger.Entry) error {
		return nil
	})
	assert.True(t, domain.IsTransient(err))
	assert.True(t, domain.HasCode(err, domain.CodeBusy))

	close(release)
	require.NoError(t, <-done)
}

func TestWithinTour_DifferentToursDoNotContend(t *testing.T) {
	s := NewStore(WithLockTimeout(20 * time.Millisecond))
	a := seedTour(t, s, 5)
	b := seedTour(t, s, 5)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.UnitOfWork().WithinTour(context.Background(), a.ID(), func(context.Context, *ledger.Entry) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := s.UnitOfWork().WithinTour(context.Background(), b.ID(), func(_ context.Context, e *ledger.Entry) error {
		return e.TryReserve(1)
	})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestNestedWithinTour_JoinsOuterUnit(t *testing.T) {
	s := NewStore(WithLockTimeout(20 * time.Millisecond))
	tr := seedTour(t, s, 5)
	uow := s.UnitOfWork()

	err := uow.WithinTour(context.Background(), tr.ID(), func(ctx context.Context, e *ledger.Entry) error {
		require.NoError(t, e.TryReserve(1))
		return uow.WithinTour(ctx, tr.ID(), func(_ context.Context, inner *ledger.Entry) error {
			return inner.TryReserve(1)
		})
	})
	require.NoError(t, err)

	entry, err := s.Ledgers().FindByTourID(context.Background(), tr.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ReservedCount())
}

func TestNestedWithinTour_SharesEntryAndReads(t *testing.T) {
	s := NewStore(WithLockTimeout(20 * time.Millisecond))
	tr := seedTour(t, s, 5)
	uow := s.UnitOfWork()

	err := uow.WithinTour(context.Background(), tr.ID(), func(ctx context.Context, outer *ledger.Entry) error {
		require.NoError(t, outer.TryReserve(2))

		seen, err := s.Ledgers().FindByTourID(ctx, tr.ID())
		require.NoError(t, err)
		assert.Equal(t, 2, seen.ReservedCount())

		err = uow.WithinTour(ctx, tr.ID(), func(_ context.Context, inner *ledger.Entry) error {
			assert.Same(t, outer, inner)
			return inner.TryReserve(4)
		})
		assert.True(t, domain.HasCode(err, ledger.CodeInsufficientCapacity))

		return uow.WithinTour(ctx, tr.ID(), func(_ context.Context, inner *ledger.Entry) error {
			return inner.TryReserve(3)
		})
	})
	require.NoError(t, err)

	entry, err := s.Ledgers().FindByTourID(context.Background(), tr.ID())
	require.NoError(t, err)
	assert.Equal(t, 5, entry.ReservedCount())
}

func TestSequentialWithinTour_InOneUnit(t *testing.T) {
	s := NewStore(WithLockTimeout(20 * time.Millisecond))
	tr := seedTour(t, s, 5)
	uow := s.UnitOfWork()

	err := uow.Within(context.Background(), func(ctx context.Context) error {
		for i := 0; i < 2; i++ {
			if err := uow.WithinTour(ctx, tr.ID(), func(_ context.Context, e *ledger.Entry) error {
				return e.TryReserve(2)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	entry, err := s.Ledgers().FindByTourID(context.Background(), tr.ID())
	require.NoError(t, err)
	assert.Equal(t, 4, entry.ReservedCount())
}

func TestBookingUpdate_OptimisticLock(t *testing.T) {
	s := NewStore()
	tr := seedTour(t, s, 5)
	ctx := context.Background()

	bk, err := booking.NewBooking(tr.ID(), uuid.New(), 1, 100, "", booking.NewPerPersonPricingStrategy())
	require.NoError(t, err)
	require.NoError(t, s.Bookings().Save(ctx, bk))

	first, _ := s.Bookings().FindByID(ctx, bk.ID())
	second, _ := s.Bookings().FindByID(ctx, bk.ID())

	require.NoError(t, first.Confirm(uuid.New()))
	first.IncrementVersion()
	require.NoError(t, s.Bookings().Update(ctx, first))

	_, err = second.Cancel(uuid.New(), "")
	require.NoError(t, err)
	second.IncrementVersion()
	err = s.Bookings().Update(ctx, second)
	assert.True(t, domain.HasCode(err, domain.CodeConcurrentModification))
}

func TestCategoryConstraints(t *testing.T) {
	s := NewStore()
	tr := seedTour(t, s, 5)
	ctx := context.Background()

	dup, err := category.NewCategory("walking")
	require.NoError(t, err)
	require.NoError(t, s.Categories().Save(ctx, dup))
	again, _ := category.NewCategory("Walking")
	assert.True(t, domain.IsKind(s.Categories().Save(ctx, again), domain.KindConflict))

	err = s.Categories().Delete(ctx, tr.CategoryID())
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	require.NoError(t, s.Categories().Delete(ctx, dup.ID()))
	_, err = s.Categories().FindByID(ctx, dup.ID())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestTourList_FiltersAndOrders(t *testing.T) {
	s := NewStore()
	cheap := seedTour(t, s, 5)
	pricey := seedTour(t, s, 5)
	ctx := context.Background()

	price := int64(9000)
	require.NoError(t, pricey.Update(tour.UpdateParams{PriceCents: &price}))
	require.NoError(t, s.Tours().Update(ctx, pricey))

	items, total, err := s.Tours().List(ctx, tour.Filter{Ordering: tour.OrderPriceDesc}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, pricey.ID(), items[0].ID())
	assert.Equal(t, cheap.ID(), items[1].ID())

	items, total, err = s.Tours().List(ctx, tour.Filter{PriceCents: &price}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, pricey.ID(), items[0].ID())

	_, total, err = s.Tours().List(ctx, tour.Filter{Search: "lisb"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
