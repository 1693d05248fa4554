package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	categoryDomain "github.com/tourhub/service-booking/internal/domain/category"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

// CategoryModel is the GORM model for the tour_categories table.
type CategoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (CategoryModel) TableName() string { return "tour_categories" }

// GormCategoryRepository implements CategoryRepository using GORM.
type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*categoryDomain.Category, error) {
	var model CategoryModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Category", id.String())
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return categoryDomain.Reconstruct(model.ID, model.Name, model.CreatedAt), nil
}

func (r *GormCategoryRepository) List(ctx context.Context) ([]*categoryDomain.Category, error) {
	var models []CategoryModel
	if err := conn(ctx, r.db).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]*categoryDomain.Category, len(models))
	for i, m := range models {
		out[i] = categoryDomain.Reconstruct(m.ID, m.Name, m.CreatedAt)
	}
	return out, nil
}

func (r *GormCategoryRepository) Save(ctx context.Context, c *categoryDomain.Category) error {
	model := CategoryModel{ID: c.ID(), Name: c.Name(), CreatedAt: c.CreatedAt()}
	if err := conn(ctx, r.db).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError(fmt.Sprintf("category %q already exists", c.Name()))
		}
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (r *GormCategoryRepository) Update(ctx context.Context, c *categoryDomain.Category) error {
	result := conn(ctx, r.db).Model(&CategoryModel{}).Where("id = ?", c.ID()).Update("name", c.Name())
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domain.NewConflictError(fmt.Sprintf("category %q already exists", c.Name()))
		}
		return fmt.Errorf("failed to update category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Category", c.ID().String())
	}
	return nil
}

// Delete removes a category. Categories still referenced by tours are kept.
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&CategoryModel{})
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return domain.NewConflictError("category is still used by tours")
		}
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Category", id.String())
	}
	return nil
}
