package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/domain/account"
	"github.com/tourhub/service-booking/internal/domain/booking"
	"github.com/tourhub/service-booking/internal/domain/category"
	"github.com/tourhub/service-booking/internal/domain/ledger"
	"github.com/tourhub/service-booking/internal/domain/tour"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

// Repository accessors.
func (s *Store) Bookings() *BookingRepository     { return &BookingRepository{s: s} }
func (s *Store) Ledgers() *LedgerRepository       { return &LedgerRepository{s: s} }
func (s *Store) Tours() *TourRepository           { return &TourRepository{s: s} }
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }
func (s *Store) Accounts() *AccountRepository     { return &AccountRepository{s: s} }

// merged returns committed values overlaid with those staged on t.
func merged[T any](s *Store, committed map[uuid.UUID]T, staged map[uuid.UUID]T) map[uuid.UUID]T {
	s.mu.RLock()
	out := make(map[uuid.UUID]T, len(committed)+len(staged))
	for id, v := range committed {
		out[id] = v
	}
	s.mu.RUnlock()
	for id, v := range staged {
		out[id] = v
	}
	return out
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if limit <= 0 || start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- Bookings ---

// BookingRepository implements booking.BookingRepository.
type BookingRepository struct{ s *Store }

func (r *BookingRepository) all(ctx context.Context) map[uuid.UUID]*booking.Booking {
	var staged map[uuid.UUID]*booking.Booking
	if t := txFrom(ctx); t != nil {
		staged = t.bookings
	}
	return merged(r.s, r.s.bookings, staged)
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	if b, ok := r.all(ctx)[id]; ok {
		return cloneBooking(b), nil
	}
	return nil, domain.NewNotFoundError("Booking", id.String())
}

func (r *BookingRepository) FindByNumber(ctx context.Context, number string) (*booking.Booking, error) {
	for _, b := range r.all(ctx) {
		if b.BookingNumber() == number {
			return cloneBooking(b), nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *BookingRepository) List(ctx context.Context, filter booking.ListFilter, page, limit int) ([]*booking.Booking, int64, error) {
	var matched []*booking.Booking
	for _, b := range r.all(ctx) {
		if filter.UserID != nil && b.UserID() != *filter.UserID {
			continue
		}
		if filter.TourID != nil && b.TourID() != *filter.TourID {
			continue
		}
		if filter.Status != nil && b.Status() != *filter.Status {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].ID().String() < matched[j].ID().String()
		}
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})

	pageItems := paginate(matched, page, limit)
	out := make([]*booking.Booking, len(pageItems))
	for i, b := range pageItems {
		out[i] = cloneBooking(b)
	}
	return out, int64(len(matched)), nil
}

func (r *BookingRepository) FindLiveByUserID(ctx context.Context, userID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.all(ctx) {
		if b.UserID() == userID && b.Status().HoldsCapacity() {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (r *BookingRepository) SumLivePeople(ctx context.Context, tourID uuid.UUID) (int, error) {
	sum := 0
	for _, b := range r.all(ctx) {
		if b.TourID() == tourID && b.Status().HoldsCapacity() {
			sum += b.PeopleCount()
		}
	}
	return sum, nil
}

func (r *BookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, b := range r.all(ctx) {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	return r.s.write(ctx, func(t *tx) error {
		for _, existing := range r.all(ctx) {
			if existing.ID() == b.ID() || existing.BookingNumber() == b.BookingNumber() {
				return domain.NewConflictError("booking number collision, please retry")
			}
		}
		t.bookings[b.ID()] = cloneBooking(b)
		return nil
	})
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	return r.s.write(ctx, func(t *tx) error {
		current, ok := r.all(ctx)[b.ID()]
		if !ok || current.Version() != b.Version()-1 {
			return domain.NewConflictErrorWithCode(domain.CodeConcurrentModification,
				"booking was modified by another transaction")
		}
		t.bookings[b.ID()] = cloneBooking(b)
		return nil
	})
}

// --- Ledger ---

// LedgerRepository implements ledger.Repository.
type LedgerRepository struct{ s *Store }

func (r *LedgerRepository) FindByTourID(ctx context.Context, tourID uuid.UUID) (*ledger.Entry, error) {
	if e, ok := r.s.readLedger(txFrom(ctx), tourID); ok {
		return e, nil
	}
	return nil, domain.NewNotFoundError("Tour", tourID.String())
}

func (r *LedgerRepository) FindByTourIDs(ctx context.Context, tourIDs []uuid.UUID) (map[uuid.UUID]*ledger.Entry, error) {
	out := make(map[uuid.UUID]*ledger.Entry, len(tourIDs))
	t := txFrom(ctx)
	for _, id := range tourIDs {
		if e, ok := r.s.readLedger(t, id); ok {
			out[id] = e
		}
	}
	return out, nil
}

func (r *LedgerRepository) Save(ctx context.Context, e *ledger.Entry) error {
	return r.s.write(ctx, func(t *tx) error {
		if _, exists := r.s.readLedger(t, e.TourID()); exists {
			return domain.NewConflictError(fmt.Sprintf("ledger entry for tour %s already exists", e.TourID()))
		}
		t.ledgers[e.TourID()] = cloneEntry(e)
		return nil
	})
}

// --- Tours ---

// TourRepository implements tour.TourRepository.
type TourRepository struct{ s *Store }

func (r *TourRepository) all(ctx context.Context) map[uuid.UUID]*tour.Tour {
	var staged map[uuid.UUID]*tour.Tour
	if t := txFrom(ctx); t != nil {
		staged = t.tours
	}
	return merged(r.s, r.s.tours, staged)
}

func (r *TourRepository) FindByID(ctx context.Context, id uuid.UUID) (*tour.Tour, error) {
	if t, ok := r.all(ctx)[id]; ok {
		return cloneTour(t), nil
	}
	return nil, domain.NewNotFoundError("Tour", id.String())
}

func (r *TourRepository) List(ctx context.Context, f tour.Filter, page, limit int) ([]*tour.Tour, int64, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []*tour.Tour
	for _, t := range r.all(ctx) {
		switch {
		case f.ActiveOnly && !t.IsActive():
			continue
		case f.CategoryID != nil && t.CategoryID() != *f.CategoryID:
			continue
		case f.City != "" && t.City() != f.City:
			continue
		case f.Country != "" && t.Country() != f.Country:
			continue
		case f.PriceCents != nil && t.PriceCents() != *f.PriceCents:
			continue
		}
		if search != "" && !containsFold(search, t.Title(), t.Description(), t.City(), t.Country()) {
			continue
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool { return lessTour(f.Ordering, matched[i], matched[j]) })

	pageItems := paginate(matched, page, limit)
	out := make([]*tour.Tour, len(pageItems))
	for i, t := range pageItems {
		out[i] = cloneTour(t)
	}
	return out, int64(len(matched)), nil
}

func (r *TourRepository) Save(ctx context.Context, t *tour.Tour) error {
	return r.s.write(ctx, func(tx *tx) error {
		if !r.s.categoryExists(ctx, t.CategoryID()) {
			return domain.NewValidationError("category does not exist")
		}
		tx.tours[t.ID()] = cloneTour(t)
		return nil
	})
}

func (r *TourRepository) Update(ctx context.Context, t *tour.Tour) error {
	return r.s.write(ctx, func(tx *tx) error {
		current, ok := r.all(ctx)[t.ID()]
		if !ok || current.Version() != t.Version()-1 {
			return domain.NewConflictErrorWithCode(domain.CodeConcurrentModification,
				"tour was modified by another transaction")
		}
		if !r.s.categoryExists(ctx, t.CategoryID()) {
			return domain.NewValidationError("category does not exist")
		}
		tx.tours[t.ID()] = cloneTour(t)
		return nil
	})
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func lessTour(o tour.Ordering, a, b *tour.Tour) bool {
	switch o {
	case tour.OrderPriceAsc:
		return a.PriceCents() < b.PriceCents()
	case tour.OrderPriceDesc:
		return a.PriceCents() > b.PriceCents()
	case tour.OrderCreatedAsc:
		return a.CreatedAt().Before(b.CreatedAt())
	case tour.OrderStartDateAsc:
		return a.StartDate().Before(b.StartDate())
	case tour.OrderStartDateDesc:
		return a.StartDate().After(b.StartDate())
	default:
		return a.CreatedAt().After(b.CreatedAt())
	}
}

// --- Categories ---

// CategoryRepository implements category.CategoryRepository.
type CategoryRepository struct{ s *Store }

func (s *Store) categoriesView(ctx context.Context) map[uuid.UUID]*category.Category {
	t := txFrom(ctx)
	var staged map[uuid.UUID]*category.Category
	if t != nil {
		staged = t.categories
	}
	out := merged(s, s.categories, staged)
	if t != nil {
		for id := range t.deletedCategories {
			delete(out, id)
		}
	}
	return out
}

func (s *Store) categoryExists(ctx context.Context, id uuid.UUID) bool {
	_, ok := s.categoriesView(ctx)[id]
	return ok
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	if c, ok := r.s.categoriesView(ctx)[id]; ok {
		return cloneCategory(c), nil
	}
	return nil, domain.NewNotFoundError("Category", id.String())
}

func (r *CategoryRepository) List(ctx context.Context) ([]*category.Category, error) {
	var out []*category.Category
	for _, c := range r.s.categoriesView(ctx) {
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (r *CategoryRepository) Save(ctx context.Context, c *category.Category) error {
	return r.s.write(ctx, func(t *tx) error {
		if r.nameTaken(ctx, c) {
			return domain.NewConflictError(fmt.Sprintf("category %q already exists", c.Name()))
		}
		t.categories[c.ID()] = cloneCategory(c)
		delete(t.deletedCategories, c.ID())
		return nil
	})
}

func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	return r.s.write(ctx, func(t *tx) error {
		if !r.s.categoryExists(ctx, c.ID()) {
			return domain.NewNotFoundError("Category", c.ID().String())
		}
		if r.nameTaken(ctx, c) {
			return domain.NewConflictError(fmt.Sprintf("category %q already exists", c.Name()))
		}
		t.categories[c.ID()] = cloneCategory(c)
		return nil
	})
}

func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(t *tx) error {
		if !r.s.categoryExists(ctx, id) {
			return domain.NewNotFoundError("Category", id.String())
		}
		for _, tr := range r.s.Tours().all(ctx) {
			if tr.CategoryID() == id {
				return domain.NewConflictError("category is still used by tours")
			}
		}
		delete(t.categories, id)
		t.deletedCategories[id] = true
		return nil
	})
}

func (r *CategoryRepository) nameTaken(ctx context.Context, c *category.Category) bool {
	for id, existing := range r.s.categoriesView(ctx) {
		if id != c.ID() && strings.EqualFold(existing.Name(), c.Name()) {
			return true
		}
	}
	return false
}

// --- Accounts ---

// AccountRepository implements account.AccountRepository.
type AccountRepository struct{ s *Store }

func (r *AccountRepository) all(ctx context.Context) map[uuid.UUID]*account.Account {
	var staged map[uuid.UUID]*account.Account
	if t := txFrom(ctx); t != nil {
		staged = t.accounts
	}
	return merged(r.s, r.s.accounts, staged)
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if a, ok := r.all(ctx)[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.NewNotFoundError("User", id.String())
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	email = account.NormalizeEmail(email)
	for _, a := range r.all(ctx) {
		if a.Email() == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.NewNotFoundError("User", email)
}

func (r *AccountRepository) Save(ctx context.Context, a *account.Account) error {
	return r.s.write(ctx, func(t *tx) error {
		for _, existing := range r.all(ctx) {
			if existing.Email() == a.Email() {
				return domain.NewConflictError("a user with this email already exists")
			}
		}
		t.accounts[a.ID()] = cloneAccount(a)
		return nil
	})
}

func (r *AccountRepository) Update(ctx context.Context, a *account.Account) error {
	return r.s.write(ctx, func(t *tx) error {
		if _, ok := r.all(ctx)[a.ID()]; !ok {
			return domain.NewNotFoundError("User", a.ID().String())
		}
		t.accounts[a.ID()] = cloneAccount(a)
		return nil
	})
}
