package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	categoryDomain "github.com/tourhub/service-booking/internal/domain/category"
	"github.com/tourhub/service-booking/internal/domain/ledger"
	tourDomain "github.com/tourhub/service-booking/internal/domain/tour"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

const dateLayout = "2006-01-02"

// CreateTourRequest is the request DTO for creating a tour.
type CreateTourRequest struct {
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	CategoryID    uuid.UUID `json:"category_id"`
	City          string    `json:"city" binding:"required"`
	Country       string    `json:"country" binding:"required"`
	PriceCents    int64     `json:"price_cents"`
	Currency      string    `json:"currency"`
	DurationHours int       `json:"duration_hours"`
	StartDate     string    `json:"start_date" binding:"required"`
	EndDate       string    `json:"end_date" binding:"required"`
	MaxPeople     int       `json:"max_people"`
}

// UpdateTourRequest is a partial update; omitted fields are unchanged.
type UpdateTourRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	CategoryID    *uuid.UUID `json:"category_id"`
	City          *string    `json:"city"`
	Country       *string    `json:"country"`
	PriceCents    *int64     `json:"price_cents"`
	DurationHours *int       `json:"duration_hours"`
	StartDate     *string    `json:"start_date"`
	EndDate       *string    `json:"end_date"`
	MaxPeople     *int       `json:"max_people"`
	IsActive      *bool      `json:"is_active"`
}

// TourQuery holds listing filters as received from the API.
type TourQuery struct {
	CategoryID *uuid.UUID
	City       string
	Country    string
	PriceCents *int64
	Search     string
	Ordering   string
	Page       int
	Limit      int
}

// TourDTO is the API representation of a tour with its current availability.
type TourDTO struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CategoryID     uuid.UUID `json:"category_id"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	PriceCents     int64     `json:"price_cents"`
	Currency       string    `json:"currency"`
	DurationHours  int       `json:"duration_hours"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	MaxPeople      int       `json:"max_people"`
	AvailableSlots int       `json:"available_slots"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TourService implements catalog use cases for tours. Capacity and activation
// changes run in the tour's ledger scope so they serialize with admissions.
type TourService struct {
	tours      tourDomain.TourRepository
	categories categoryDomain.CategoryRepository
	ledgers    ledger.Repository
	uow        ledger.UnitOfWork
	retry      RetryPolicy
	logger     *zap.Logger
}

// NewTourService creates a new TourService.
func NewTourService(
	tours tourDomain.TourRepository,
	categories categoryDomain.CategoryRepository,
	ledgers ledger.Repository,
	uow ledger.UnitOfWork,
	retry RetryPolicy,
	logger *zap.Logger,
) *TourService {
	return &TourService{
		tours:      tours,
		categories: categories,
		ledgers:    ledgers,
		uow:        uow,
		retry:      retry,
		logger:     logger,
	}
}

// ListTours returns a filtered page of tours. Non-staff only see active tours.
func (s *TourService) ListTours(ctx context.Context, actor Actor, q TourQuery) (*domain.PaginatedResult[TourDTO], error) {
	ordering, err := tourDomain.ParseOrdering(q.Ordering)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	filter := tourDomain.Filter{
		CategoryID: q.CategoryID,
		City:       q.City,
		Country:    q.Country,
		PriceCents: q.PriceCents,
		Search:     q.Search,
		ActiveOnly: !actor.IsStaff,
		Ordering:   ordering,
	}

	tours, total, err := s.tours.List(ctx, filter, q.Page, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}

	ids := make([]uuid.UUID, len(tours))
	for i, t := range tours {
		ids[i] = t.ID()
	}
	entries, err := s.ledgers.FindByTourIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	dtos := make([]TourDTO, len(tours))
	for i, t := range tours {
		dtos[i] = toTourDTO(t, entries[t.ID()])
	}

	result := domain.NewPaginatedResult(dtos, total, q.Page, q.Limit)
	return &result, nil
}

// GetTour returns a tour with its available slots.
func (s *TourService) GetTour(ctx context.Context, actor Actor, id uuid.UUID) (*TourDTO, error) {
	t, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() && !actor.IsStaff {
		return nil, domain.NewNotFoundError("Tour", id.String())
	}

	entry, err := s.ledgers.FindByTourID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toTourDTO(t, entry)
	return &result, nil
}

// CreateTour stores a tour and seeds its ledger entry atomically. Staff only.
func (s *TourService) CreateTour(ctx context.Context, actor Actor, req CreateTourRequest) (*TourDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	t, err := tourDomain.NewTour(tourDomain.NewTourParams{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		City:          req.City,
		Country:       req.Country,
		PriceCents:    req.PriceCents,
		Currency:      req.Currency,
		DurationHours: req.DurationHours,
		StartDate:     start,
		EndDate:       end,
		MaxPeople:     req.MaxPeople,
	})
	if err != nil {
		return nil, err
	}

	entry, err := ledger.NewEntry(t.ID(), t.MaxPeople(), t.IsActive())
	if err != nil {
		return nil, err
	}

	err = s.uow.Within(ctx, func(ctx context.Context) error {
		if _, err := s.categories.FindByID(ctx, t.CategoryID()); err != nil {
			if domain.IsKind(err, domain.KindNotFound) {
				return domain.NewValidationError("category does not exist")
			}
			return err
		}
		if err := s.tours.Save(ctx, t); err != nil {
			return err
		}
		return s.ledgers.Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tour created",
		zap.String("tour_id", t.ID().String()),
		zap.Int("max_people", t.MaxPeople()),
	)

	result := toTourDTO(t, entry)
	return &result, nil
}

// UpdateTour applies a partial update. Capacity may not drop below what is
// already reserved. Staff only.
func (s *TourService) UpdateTour(ctx context.Context, actor Actor, id uuid.UUID, req UpdateTourRequest) (*TourDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	params := tourDomain.UpdateParams{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		City:          req.City,
		Country:       req.Country,
		PriceCents:    req.PriceCents,
		DurationHours: req.DurationHours,
		MaxPeople:     req.MaxPeople,
		IsActive:      req.IsActive,
	}
	if req.StartDate != nil {
		d, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			return nil, err
		}
		params.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := parseDate("end_date", *req.EndDate)
		if err != nil {
			return nil, err
		}
		params.EndDate = &d
	}

	var (
		updated  *tourDomain.Tour
		snapshot *ledger.Entry
	)
	err := withRetry(ctx, s.retry, s.logger, "update_tour", func() error {
		return s.uow.WithinTour(ctx, id, func(ctx context.Context, entry *ledger.Entry) error {
			t, err := s.tours.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if err := t.Update(params); err != nil {
				return err
			}
			if err := entry.Resize(t.MaxPeople()); err != nil {
				return err
			}
			entry.SetActive(t.IsActive())
			if err := s.tours.Update(ctx, t); err != nil {
				return err
			}
			updated, snapshot = t, entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tour updated", zap.String("tour_id", id.String()))

	result := toTourDTO(updated, snapshot)
	return &result, nil
}

// ArchiveTour takes a tour off sale. Existing bookings keep their slots.
// Staff only.
func (s *TourService) ArchiveTour(ctx context.Context, actor Actor, id uuid.UUID) (*TourDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	var (
		archived *tourDomain.Tour
		snapshot *ledger.Entry
	)
	err := withRetry(ctx, s.retry, s.logger, "archive_tour", func() error {
		return s.uow.WithinTour(ctx, id, func(ctx context.Context, entry *ledger.Entry) error {
			t, err := s.tours.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if t.IsActive() {
				t.Archive()
				if err := s.tours.Update(ctx, t); err != nil {
					return err
				}
			}
			entry.SetActive(false)
			archived, snapshot = t, entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tour archived", zap.String("tour_id", id.String()))

	result := toTourDTO(archived, snapshot)
	return &result, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return d, nil
}

func toTourDTO(t *tourDomain.Tour, entry *ledger.Entry) TourDTO {
	dto := TourDTO{
		ID:            t.ID(),
		Title:         t.Title(),
		Description:   t.Description(),
		CategoryID:    t.CategoryID(),
		City:          t.City(),
		Country:       t.Country(),
		PriceCents:    t.PriceCents(),
		Currency:      t.Currency(),
		DurationHours: t.DurationHours(),
		StartDate:     t.StartDate().Format(dateLayout),
		EndDate:       t.EndDate().Format(dateLayout),
		MaxPeople:     t.MaxPeople(),
		IsActive:      t.IsActive(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}
	if entry != nil {
		dto.AvailableSlots = entry.Available()
	}
	return dto
}
