package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/kafka"
	"github.com/tourhub/service-booking/internal/repository/memory"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	topics []string
	fail   bool
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store      *memory.Store
	publisher  *recordingPublisher
	admission  *AdmissionService
	tours      *TourService
	categories *CategoryService
	accounts   *AccountService
	jwt        *auth.JWTManager
	staff      Actor
	user       Actor
}

var fastRetry = RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore(opts...)
	pub := &recordingPublisher{}
	jwt := auth.NewJWTManager("test-secret", time.Minute, time.Hour)

	return &fixture{
		store:     store,
		publisher: pub,
		admission: NewAdmissionService(store.Bookings(), store.Tours(), store.Ledgers(), store.UnitOfWork(), pub, logger,
			WithRetryPolicy(fastRetry)),
		tours:      NewTourService(store.Tours(), store.Categories(), store.Ledgers(), store.UnitOfWork(), fastRetry, logger),
		categories: NewCategoryService(store.Categories(), logger),
		accounts:   NewAccountService(store.Accounts(), jwt, pub, logger),
		jwt:        jwt,
		staff:      Actor{UserID: uuid.New(), IsStaff: true},
		user:       Actor{UserID: uuid.New()},
	}
}

// createTour adds an active tour with the given capacity priced at 25.00 per person.
func (f *fixture) createTour(t *testing.T, maxPeople int) *TourDTO {
	t.Helper()
	ctx := context.Background()

	cat, err := f.categories.CreateCategory(ctx, f.staff, CategoryRequest{Name: "City walks " + uuid.NewString()[:8]})
	require.NoError(t, err)

	tour, err := f.tours.CreateTour(ctx, f.staff, CreateTourRequest{
		Title:      "Old town walk",
		CategoryID: cat.ID,
		City:       "Lisbon",
		Country:    "Portugal",
		PriceCents: 2500,
		StartDate:  "2026-06-01",
		EndDate:    "2026-06-01",
		MaxPeople:  maxPeople,
	})
	require.NoError(t, err)
	return tour
}

func (f *fixture) available(t *testing.T, tourID uuid.UUID) int {
	t.Helper()
	n, err := f.admission.AvailableSlots(context.Background(), tourID)
	require.NoError(t, err)
	return n
}
