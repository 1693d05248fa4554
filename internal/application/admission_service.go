package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/tourhub/service-booking/internal/domain/booking"
	"github.com/tourhub/service-booking/internal/domain/ledger"
	tourDomain "github.com/tourhub/service-booking/internal/domain/tour"
	"github.com/tourhub/service-booking/internal/platform/domain"
	"github.com/tourhub/service-booking/internal/proto/events"
)

// CreateBookingRequest holds the data needed to reserve slots on a tour.
type CreateBookingRequest struct {
	TourID      uuid.UUID `json:"tour_id"`
	PeopleCount int       `json:"people_count"`
}

// CancelBookingRequest carries an optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// ListBookingsQuery narrows a booking listing.
type ListBookingsQuery struct {
	TourID *uuid.UUID
	Status *bookingDomain.BookingStatus
	Page   int
	Limit  int
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID  `json:"id"`
	BookingNumber   string     `json:"booking_number"`
	TourID          uuid.UUID  `json:"tour_id"`
	UserID          uuid.UUID  `json:"user_id"`
	PeopleCount     int        `json:"people_count"`
	Status          string     `json:"status"`
	TotalPriceCents int64      `json:"total_price_cents"`
	Currency        string     `json:"currency"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy     *uuid.UUID `json:"confirmed_by,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy     *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BookingStatsDTO holds booking counts for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ReconcileReportDTO describes the outcome of a ledger reconciliation.
type ReconcileReportDTO struct {
	TourID        uuid.UUID `json:"tour_id"`
	MaxPeople     int       `json:"max_people"`
	ReservedCount int       `json:"reserved_count"`
	Drift         int       `json:"drift"`
}

// AdmissionService admits, confirms and cancels bookings against the
// capacity ledger.
type AdmissionService struct {
	bookings bookingDomain.BookingRepository
	tours    tourDomain.TourRepository
	ledgers  ledger.Repository
	uow      ledger.UnitOfWork
	pricing  bookingDomain.PricingStrategy
	events   publisher
	retry    RetryPolicy
	logger   *zap.Logger
}

// AdmissionOption customizes an AdmissionService.
type AdmissionOption func(*AdmissionService)

// WithRetryPolicy overrides the transient failure retry policy.
func WithRetryPolicy(p RetryPolicy) AdmissionOption {
	return func(s *AdmissionService) { s.retry = p }
}

// WithPricingStrategy overrides per-person pricing.
func WithPricingStrategy(p bookingDomain.PricingStrategy) AdmissionOption {
	return func(s *AdmissionService) { s.pricing = p }
}

// NewAdmissionService creates a new AdmissionService.
func NewAdmissionService(
	bookings bookingDomain.BookingRepository,
	tours tourDomain.TourRepository,
	ledgers ledger.Repository,
	uow ledger.UnitOfWork,
	producer EventPublisher,
	logger *zap.Logger,
	opts ...AdmissionOption,
) *AdmissionService {
	s := &AdmissionService{
		bookings: bookings,
		tours:    tours,
		ledgers:  ledgers,
		uow:      uow,
		pricing:  bookingDomain.NewPerPersonPricingStrategy(),
		events:   publisher{producer: producer, logger: logger},
		retry:    DefaultRetryPolicy(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking reserves people_count slots on the tour and records a pending
// booking in the same unit of work.
func (s *AdmissionService) CreateBooking(ctx context.Context, actor Actor, req CreateBookingRequest) (*BookingDTO, error) {
	if req.PeopleCount < 1 {
		return nil, domain.NewValidationError("people count must be at least 1")
	}
	if req.TourID == uuid.Nil {
		return nil, domain.NewValidationError("tour_id is required")
	}

	t, err := s.tours.FindByID(ctx, req.TourID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, ledger.NewTourInactiveError(t.ID())
	}

	var created *bookingDomain.Booking
	err = withRetry(ctx, s.retry, s.logger, "create_booking", func() error {
		return s.uow.WithinTour(ctx, t.ID(), func(ctx context.Context, entry *ledger.Entry) error {
			if err := entry.TryReserve(req.PeopleCount); err != nil {
				return err
			}
			bk, err := bookingDomain.NewBooking(t.ID(), actor.UserID, req.PeopleCount, t.PriceCents(), t.Currency(), s.pricing)
			if err != nil {
				return err
			}
			if err := s.bookings.Save(ctx, bk); err != nil {
				return err
			}
			created = bk
			return nil
		})
	})
	if err != nil {
		if available, ok := ledger.AvailableFrom(err); ok {
			s.logger.Info("booking rejected, not enough slots",
				zap.String("tour_id", t.ID().String()),
				zap.Int("requested", req.PeopleCount),
				zap.Int("available", available),
			)
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", created.ID().String()),
		zap.String("tour_id", t.ID().String()),
		zap.Int("people_count", created.PeopleCount()),
	)

	s.events.publish(ctx, events.TopicBookingEvents, events.BookingCreated, created.ID().String(), events.BookingCreatedEvent{
		BookingID:       created.ID(),
		BookingNumber:   created.BookingNumber(),
		TourID:          created.TourID(),
		UserID:          created.UserID(),
		PeopleCount:     created.PeopleCount(),
		TotalPriceCents: created.TotalPriceCents(),
		Currency:        created.Currency(),
		OccurredAt:      time.Now().UTC(),
	})

	result := toBookingDTO(created)
	return &result, nil
}

// ConfirmBooking moves a pending booking to confirmed. Staff only.
func (s *AdmissionService) ConfirmBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var confirmed *bookingDomain.Booking
	err = withRetry(ctx, s.retry, s.logger, "confirm_booking", func() error {
		return s.uow.WithinTour(ctx, bk.TourID(), func(ctx context.Context, _ *ledger.Entry) error {
			current, err := s.bookings.FindByID(ctx, bookingID)
			if err != nil {
				return err
			}
			if err := current.Confirm(actor.UserID); err != nil {
				return err
			}
			current.IncrementVersion()
			if err := s.bookings.Update(ctx, current); err != nil {
				return err
			}
			confirmed = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking confirmed",
		zap.String("booking_id", confirmed.ID().String()),
		zap.String("confirmed_by", actor.UserID.String()),
	)

	s.events.publish(ctx, events.TopicBookingEvents, events.BookingConfirmed, confirmed.ID().String(), events.BookingConfirmedEvent{
		BookingID:     confirmed.ID(),
		BookingNumber: confirmed.BookingNumber(),
		TourID:        confirmed.TourID(),
		UserID:        confirmed.UserID(),
		ConfirmedBy:   actor.UserID,
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(confirmed)
	return &result, nil
}

// CancelBooking cancels a live booking and returns its slots to the tour.
// The owner or staff may cancel.
func (s *AdmissionService) CancelBooking(ctx context.Context, actor Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwnerOrStaff(actor, bk.UserID()); err != nil {
		return nil, err
	}

	var (
		cancelled *bookingDomain.Booking
		released  int
	)
	err = withRetry(ctx, s.retry, s.logger, "cancel_booking", func() error {
		return s.uow.WithinTour(ctx, bk.TourID(), func(ctx context.Context, entry *ledger.Entry) error {
			current, err := s.bookings.FindByID(ctx, bookingID)
			if err != nil {
				return err
			}
			n, err := current.Cancel(actor.UserID, reason)
			if err != nil {
				return err
			}
			if err := entry.Release(n); err != nil {
				return err
			}
			current.IncrementVersion()
			if err := s.bookings.Update(ctx, current); err != nil {
				return err
			}
			cancelled, released = current, n
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", cancelled.ID().String()),
		zap.String("cancelled_by", actor.UserID.String()),
		zap.Int("released_slots", released),
	)

	s.events.publish(ctx, events.TopicBookingEvents, events.BookingCancelled, cancelled.ID().String(), events.BookingCancelledEvent{
		BookingID:     cancelled.ID(),
		BookingNumber: cancelled.BookingNumber(),
		TourID:        cancelled.TourID(),
		UserID:        cancelled.UserID(),
		CancelledBy:   actor.UserID,
		Reason:        reason,
		ReleasedSlots: released,
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(cancelled)
	return &result, nil
}

// AvailableSlots returns max_people minus reserved_count from a lock-free
// snapshot of the ledger.
func (s *AdmissionService) AvailableSlots(ctx context.Context, tourID uuid.UUID) (int, error) {
	entry, err := s.ledgers.FindByTourID(ctx, tourID)
	if err != nil {
		return 0, err
	}
	return entry.Available(), nil
}

// GetBooking retrieves a booking visible to the actor.
func (s *AdmissionService) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwnerOrStaff(actor, bk.UserID()); err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns the actor's bookings, or every booking for staff.
func (s *AdmissionService) ListBookings(ctx context.Context, actor Actor, q ListBookingsQuery) (*domain.PaginatedResult[BookingDTO], error) {
	filter := bookingDomain.ListFilter{TourID: q.TourID, Status: q.Status}
	if !actor.IsStaff {
		userID := actor.UserID
		filter.UserID = &userID
	}

	bookings, total, err := s.bookings.List(ctx, filter, q.Page, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, q.Page, q.Limit)
	return &result, nil
}

// GetBookingStats returns booking counts by status. Staff only.
func (s *AdmissionService) GetBookingStats(ctx context.Context, actor Actor) (*BookingStatsDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// ReconcileLedger recomputes a tour's reserved_count from its live bookings
// while holding the tour lock. Staff only.
func (s *AdmissionService) ReconcileLedger(ctx context.Context, actor Actor, tourID uuid.UUID) (*ReconcileReportDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	var report ReconcileReportDTO
	err := withRetry(ctx, s.retry, s.logger, "reconcile_ledger", func() error {
		return s.uow.WithinTour(ctx, tourID, func(ctx context.Context, entry *ledger.Entry) error {
			actual, err := s.bookings.SumLivePeople(ctx, tourID)
			if err != nil {
				return err
			}
			drift, err := entry.Reconcile(actual)
			if err != nil {
				return err
			}
			report = ReconcileReportDTO{
				TourID:        tourID,
				MaxPeople:     entry.MaxPeople(),
				ReservedCount: entry.ReservedCount(),
				Drift:         drift,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if report.Drift != 0 {
		s.logger.Warn("ledger drift corrected",
			zap.String("tour_id", tourID.String()),
			zap.Int("drift", report.Drift),
			zap.Int("reserved_count", report.ReservedCount),
		)
	}
	return &report, nil
}

// CancelUserBookings cancels every live booking of a user, e.g. after the
// account was deactivated. It returns how many bookings were cancelled.
// Bookings that were cancelled concurrently are skipped.
func (s *AdmissionService) CancelUserBookings(ctx context.Context, actor Actor, userID uuid.UUID, reason string) (int, error) {
	if err := authorizeStaff(actor); err != nil {
		return 0, err
	}

	live, err := s.bookings.FindLiveByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load live bookings: %w", err)
	}

	cancelled := 0
	for _, bk := range live {
		if _, err := s.CancelBooking(ctx, actor, bk.ID(), reason); err != nil {
			if domain.HasCode(err, bookingDomain.CodeAlreadyCancelled) {
				continue
			}
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		TourID:          bk.TourID(),
		UserID:          bk.UserID(),
		PeopleCount:     bk.PeopleCount(),
		Status:          string(bk.Status()),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		ConfirmedAt:     bk.ConfirmedAt(),
		ConfirmedBy:     bk.ConfirmedBy(),
		CancelledAt:     bk.CancelledAt(),
		CancelledBy:     bk.CancelledBy(),
		CancelReason:    bk.CancelReason(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}
