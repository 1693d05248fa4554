package tour

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

// Defaults applied when a tour is created without them.
const (
	DefaultDurationHours = 2
	DefaultMaxPeople     = 10
)

// Tour is the aggregate root for a bookable tour in the catalog.
type Tour struct {
	id            uuid.UUID
	title         string
	description   string
	categoryID    uuid.UUID
	city          string
	country       string
	priceCents    int64
	currency      string
	durationHours int
	startDate     time.Time
	endDate       time.Time
	maxPeople     int
	active        bool
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewTourParams holds the fields of a tour being created.
type NewTourParams struct {
	Title         string
	Description   string
	CategoryID    uuid.UUID
	City          string
	Country       string
	PriceCents    int64
	Currency      string
	DurationHours int
	StartDate     time.Time
	EndDate       time.Time
	MaxPeople     int
}

// NewTour creates a new active tour with validated fields.
func NewTour(p NewTourParams) (*Tour, error) {
	if p.DurationHours == 0 {
		p.DurationHours = DefaultDurationHours
	}
	if p.MaxPeople == 0 {
		p.MaxPeople = DefaultMaxPeople
	}
	if p.Currency == "" {
		p.Currency = domain.CurrencyUSD
	}

	now := time.Now().UTC()
	t := &Tour{
		id:            uuid.New(),
		title:         strings.TrimSpace(p.Title),
		description:   p.Description,
		categoryID:    p.CategoryID,
		city:          strings.TrimSpace(p.City),
		country:       strings.TrimSpace(p.Country),
		priceCents:    p.PriceCents,
		currency:      strings.ToUpper(p.Currency),
		durationHours: p.DurationHours,
		startDate:     truncateDate(p.StartDate),
		endDate:       truncateDate(p.EndDate),
		maxPeople:     p.MaxPeople,
		active:        true,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reconstruct rebuilds a Tour from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	title, description string,
	categoryID uuid.UUID,
	city, country string,
	priceCents int64,
	currency string,
	durationHours int,
	startDate, endDate time.Time,
	maxPeople int,
	active bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Tour {
	return &Tour{
		id:            id,
		title:         title,
		description:   description,
		categoryID:    categoryID,
		city:          city,
		country:       country,
		priceCents:    priceCents,
		currency:      currency,
		durationHours: durationHours,
		startDate:     startDate,
		endDate:       endDate,
		maxPeople:     maxPeople,
		active:        active,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

func (t *Tour) ID() uuid.UUID         { return t.id }
func (t *Tour) Title() string         { return t.title }
func (t *Tour) Description() string   { return t.description }
func (t *Tour) CategoryID() uuid.UUID { return t.categoryID }
func (t *Tour) City() string          { return t.city }
func (t *Tour) Country() string       { return t.country }
func (t *Tour) PriceCents() int64     { return t.priceCents }
func (t *Tour) Currency() string      { return t.currency }
func (t *Tour) DurationHours() int    { return t.durationHours }
func (t *Tour) StartDate() time.Time  { return t.startDate }
func (t *Tour) EndDate() time.Time    { return t.endDate }
func (t *Tour) MaxPeople() int        { return t.maxPeople }
func (t *Tour) IsActive() bool        { return t.active }
func (t *Tour) Version() int64        { return t.version }
func (t *Tour) CreatedAt() time.Time  { return t.createdAt }
func (t *Tour) UpdatedAt() time.Time  { return t.updatedAt }

// --- Behavior ---

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Title         *string
	Description   *string
	CategoryID    *uuid.UUID
	City          *string
	Country       *string
	PriceCents    *int64
	DurationHours *int
	StartDate     *time.Time
	EndDate       *time.Time
	MaxPeople     *int
	IsActive      *bool
}

// Update applies a partial update and re-validates the result. On error the
// tour is left unchanged.
func (t *Tour) Update(p UpdateParams) error {
	next := *t
	if p.Title != nil {
		next.title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.description = *p.Description
	}
	if p.CategoryID != nil {
		next.categoryID = *p.CategoryID
	}
	if p.City != nil {
		next.city = strings.TrimSpace(*p.City)
	}
	if p.Country != nil {
		next.country = strings.TrimSpace(*p.Country)
	}
	if p.PriceCents != nil {
		next.priceCents = *p.PriceCents
	}
	if p.DurationHours != nil {
		next.durationHours = *p.DurationHours
	}
	if p.StartDate != nil {
		next.startDate = truncateDate(*p.StartDate)
	}
	if p.EndDate != nil {
		next.endDate = truncateDate(*p.EndDate)
	}
	if p.MaxPeople != nil {
		next.maxPeople = *p.MaxPeople
	}
	if p.IsActive != nil {
		next.active = *p.IsActive
	}
	if err := next.validate(); err != nil {
		return err
	}

	next.version++
	next.updatedAt = time.Now().UTC()
	*t = next
	return nil
}

// Archive takes the tour off sale. Existing bookings are untouched.
func (t *Tour) Archive() {
	if !t.active {
		return
	}
	t.active = false
	t.version++
	t.updatedAt = time.Now().UTC()
}

func (t *Tour) validate() error {
	switch {
	case t.title == "":
		return domain.NewValidationError("title is required")
	case len(t.title) > 200:
		return domain.NewValidationError("title must be at most 200 characters")
	case t.categoryID == uuid.Nil:
		return domain.NewValidationError("category is required")
	case t.city == "":
		return domain.NewValidationError("city is required")
	case t.country == "":
		return domain.NewValidationError("country is required")
	case t.priceCents < 0:
		return domain.NewValidationError("price cannot be negative")
	case len(t.currency) != 3:
		return domain.NewValidationError("currency must be a 3-letter code")
	case t.durationHours < 1:
		return domain.NewValidationError("duration must be at least 1 hour")
	case t.maxPeople < 1:
		return domain.NewValidationError("max people must be at least 1")
	case t.startDate.IsZero() || t.endDate.IsZero():
		return domain.NewValidationError("start and end dates are required")
	case t.startDate.After(t.endDate):
		return domain.NewValidationError("start date must be on or before end date")
	}
	return nil
}

func truncateDate(d time.Time) time.Time {
	if d.IsZero() {
		return d
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
