package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	categoryDomain "github.com/tourhub/service-booking/internal/domain/category"
)

// CategoryRequest is the request DTO for creating or renaming a category.
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CategoryDTO is the API representation of a tour category.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryService implements use cases for tour categories.
type CategoryService struct {
	repo   categoryDomain.CategoryRepository
	logger *zap.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo categoryDomain.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

// ListCategories returns all categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	return dtos, nil
}

// GetCategory returns one category.
func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toCategoryDTO(c)
	return &result, nil
}

// CreateCategory adds a category. Staff only.
func (s *CategoryService) CreateCategory(ctx context.Context, actor Actor, req CategoryRequest) (*CategoryDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	c, err := categoryDomain.NewCategory(req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("category created", zap.String("category_id", c.ID().String()), zap.String("name", c.Name()))

	result := toCategoryDTO(c)
	return &result, nil
}

// RenameCategory changes a category's name. Staff only.
func (s *CategoryService) RenameCategory(ctx context.Context, actor Actor, id uuid.UUID, req CategoryRequest) (*CategoryDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	result := toCategoryDTO(c)
	return &result, nil
}

// DeleteCategory removes a category no tour refers to. Staff only.
func (s *CategoryService) DeleteCategory(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := authorizeStaff(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.String("category_id", id.String()))
	return nil
}

func toCategoryDTO(c *categoryDomain.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID(), Name: c.Name(), CreatedAt: c.CreatedAt()}
}
