package category

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

const maxNameLength = 100

// Category groups tours in the catalog.
type Category struct {
	id        uuid.UUID
	name      string
	createdAt time.Time
}

// NewCategory creates a new category.
func NewCategory(name string) (*Category, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	return &Category{
		id:        uuid.New(),
		name:      name,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Category from persistence.
func Reconstruct(id uuid.UUID, name string, createdAt time.Time) *Category {
	return &Category{id: id, name: name, createdAt: createdAt}
}

// Getters.
func (c *Category) ID() uuid.UUID        { return c.id }
func (c *Category) Name() string         { return c.name }
func (c *Category) CreatedAt() time.Time { return c.createdAt }

// Rename changes the category name.
func (c *Category) Rename(name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	c.name = name
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("category name is required")
	}
	if len(name) > maxNameLength {
		return "", domain.NewValidationError("category name must be at most 100 characters")
	}
	return name, nil
}
