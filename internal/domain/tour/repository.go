package tour

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Ordering is a whitelisted sort order for tour listings.
type Ordering string

const (
	OrderPriceAsc      Ordering = "price"
	OrderPriceDesc     Ordering = "-price"
	OrderCreatedAsc    Ordering = "created_at"
	OrderCreatedDesc   Ordering = "-created_at"
	OrderStartDateAsc  Ordering = "start_date"
	OrderStartDateDesc Ordering = "-start_date"
)

var orderingColumns = map[Ordering]string{
	OrderPriceAsc:      "price_cents ASC",
	OrderPriceDesc:     "price_cents DESC",
	OrderCreatedAsc:    "created_at ASC",
	OrderCreatedDesc:   "created_at DESC",
	OrderStartDateAsc:  "start_date ASC",
	OrderStartDateDesc: "start_date DESC",
}

// ParseOrdering validates an ordering query value. Empty means newest first.
func ParseOrdering(s string) (Ordering, error) {
	if s == "" {
		return OrderCreatedDesc, nil
	}
	o := Ordering(s)
	if _, ok := orderingColumns[o]; !ok {
		return "", fmt.Errorf("invalid ordering: %s", s)
	}
	return o, nil
}

// SQL returns the ORDER BY clause for o.
func (o Ordering) SQL() string {
	if col, ok := orderingColumns[o]; ok {
		return col
	}
	return orderingColumns[OrderCreatedDesc]
}

// Filter narrows tour listings. Zero values mean "any".
type Filter struct {
	CategoryID *uuid.UUID
	City       string
	Country    string
	PriceCents *int64
	Search     string
	ActiveOnly bool
	Ordering   Ordering
}

// TourRepository defines persistence operations for tours.
type TourRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tour, error)
	List(ctx context.Context, filter Filter, page, limit int) ([]*Tour, int64, error)
	Save(ctx context.Context, tour *Tour) error
	Update(ctx context.Context, tour *Tour) error
}
