package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/domain/account"
	"github.com/tourhub/service-booking/internal/domain/booking"
	"github.com/tourhub/service-booking/internal/domain/category"
	"github.com/tourhub/service-booking/internal/domain/ledger"
	"github.com/tourhub/service-booking/internal/domain/tour"
)

// Aggregates are stored as private copies so callers cannot mutate committed
// state through a returned pointer.

func cloneEntry(e *ledger.Entry) *ledger.Entry {
	return ledger.ReconstructEntry(e.TourID(), e.MaxPeople(), e.ReservedCount(), e.IsActive(), e.Version(), e.UpdatedAt())
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	return booking.ReconstructBooking(
		b.ID(), b.BookingNumber(), b.TourID(), b.UserID(), b.PeopleCount(), b.Status(),
		b.TotalPriceCents(), b.Currency(),
		copyTime(b.ConfirmedAt()), copyID(b.ConfirmedBy()),
		copyTime(b.CancelledAt()), copyID(b.CancelledBy()),
		b.CancelReason(), b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func cloneTour(t *tour.Tour) *tour.Tour {
	return tour.Reconstruct(
		t.ID(), t.Title(), t.Description(), t.CategoryID(), t.City(), t.Country(),
		t.PriceCents(), t.Currency(), t.DurationHours(), t.StartDate(), t.EndDate(),
		t.MaxPeople(), t.IsActive(), t.Version(), t.CreatedAt(), t.UpdatedAt(),
	)
}

func cloneCategory(c *category.Category) *category.Category {
	return category.Reconstruct(c.ID(), c.Name(), c.CreatedAt())
}

func cloneAccount(a *account.Account) *account.Account {
	return account.Reconstruct(a.ID(), a.Email(), a.FirstName(), a.LastName(), a.Phone(), a.PasswordHash(),
		a.IsStaff(), a.IsActive(), a.CreatedAt(), a.UpdatedAt())
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
