package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	tourDomain "github.com/tourhub/service-booking/internal/domain/tour"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

// TourModel is the GORM model for the tours table.
type TourModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title         string    `gorm:"type:varchar(200);not null"`
	Description   string    `gorm:"type:text;not null;default:''"`
	CategoryID    uuid.UUID `gorm:"type:uuid;not null;index"`
	City          string    `gorm:"type:varchar(100);not null;index"`
	Country       string    `gorm:"type:varchar(100);not null"`
	PriceCents    int64     `gorm:"not null"`
	Currency      string    `gorm:"type:varchar(3);not null;default:'USD'"`
	DurationHours int       `gorm:"not null;default:2"`
	StartDate     time.Time `gorm:"type:date;not null"`
	EndDate       time.Time `gorm:"type:date;not null"`
	MaxPeople     int       `gorm:"not null;default:10"`
	IsActive      bool      `gorm:"not null;default:true;index"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt     time.Time `gorm:"type:timestamptz;not null"`
}

func (TourModel) TableName() string { return "tours" }

// GormTourRepository implements TourRepository using GORM.
type GormTourRepository struct {
	db *gorm.DB
}

func NewGormTourRepository(db *gorm.DB) *GormTourRepository {
	return &GormTourRepository{db: db}
}

func (r *GormTourRepository) FindByID(ctx context.Context, id uuid.UUID) (*tourDomain.Tour, error) {
	var model TourModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Tour", id.String())
		}
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	return toTourDomain(&model), nil
}

// List returns tours matching filter. Search is a case-insensitive substring
// match over title, description, city and country.
func (r *GormTourRepository) List(ctx context.Context, filter tourDomain.Filter, page, limit int) ([]*tourDomain.Tour, int64, error) {
	filtered := func(db *gorm.DB) *gorm.DB {
		if filter.ActiveOnly {
			db = db.Where("is_active = ?", true)
		}
		if filter.CategoryID != nil {
			db = db.Where("category_id = ?", *filter.CategoryID)
		}
		if filter.City != "" {
			db = db.Where("city = ?", filter.City)
		}
		if filter.Country != "" {
			db = db.Where("country = ?", filter.Country)
		}
		if filter.PriceCents != nil {
			db = db.Where("price_cents = ?", *filter.PriceCents)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + escapeLike(s) + "%"
			db = db.Where("title ILIKE ? OR description ILIKE ? OR city ILIKE ? OR country ILIKE ?", like, like, like, like)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&TourModel{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tours: %w", err)
	}

	var models []TourModel
	if err := conn(ctx, r.db).
		Scopes(filtered).
		Order(filter.Ordering.SQL()).
		Order("id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tours: %w", err)
	}

	tours := make([]*tourDomain.Tour, len(models))
	for i := range models {
		tours[i] = toTourDomain(&models[i])
	}
	return tours, total, nil
}

func (r *GormTourRepository) Save(ctx context.Context, t *tourDomain.Tour) error {
	if err := conn(ctx, r.db).Create(toTourModel(t)).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError("category does not exist")
		}
		return fmt.Errorf("failed to save tour: %w", translateError(err))
	}
	return nil
}

// Update writes the tour with optimistic locking on version.
func (r *GormTourRepository) Update(ctx context.Context, t *tourDomain.Tour) error {
	model := toTourModel(t)
	result := conn(ctx, r.db).Model(&TourModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"title":          model.Title,
			"description":    model.Description,
			"category_id":    model.CategoryID,
			"city":           model.City,
			"country":        model.Country,
			"price_cents":    model.PriceCents,
			"duration_hours": model.DurationHours,
			"start_date":     model.StartDate,
			"end_date":       model.EndDate,
			"max_people":     model.MaxPeople,
			"is_active":      model.IsActive,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return domain.NewValidationError("category does not exist")
		}
		return fmt.Errorf("failed to update tour: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictErrorWithCode(domain.CodeConcurrentModification,
			"tour was modified by another transaction")
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toTourModel(t *tourDomain.Tour) *TourModel {
	return &TourModel{
		ID:            t.ID(),
		Title:         t.Title(),
		Description:   t.Description(),
		CategoryID:    t.CategoryID(),
		City:          t.City(),
		Country:       t.Country(),
		PriceCents:    t.PriceCents(),
		Currency:      t.Currency(),
		DurationHours: t.DurationHours(),
		StartDate:     t.StartDate(),
		EndDate:       t.EndDate(),
		MaxPeople:     t.MaxPeople(),
		IsActive:      t.IsActive(),
		Version:       t.Version(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}
}

func toTourDomain(m *TourModel) *tourDomain.Tour {
	return tourDomain.Reconstruct(
		m.ID,
		m.Title, m.Description,
		m.CategoryID,
		m.City, m.Country,
		m.PriceCents,
		m.Currency,
		m.DurationHours,
		m.StartDate.UTC(), m.EndDate.UTC(),
		m.MaxPeople,
		m.IsActive,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
