package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tourhub/service-booking/internal/application"
	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/middleware"
	"github.com/tourhub/service-booking/internal/platform/response"
)

// CategoryHandler handles HTTP requests for tour categories.
type CategoryHandler struct {
	service *application.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *application.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// RegisterRoutes registers category routes.
func (h *CategoryHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	categories := r.Group("/api/v1/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)

		staff := categories.Group("", middleware.AuthMiddleware(jwtManager), middleware.RequireStaff())
		staff.POST("", h.CreateCategory)
		staff.PUT("/:id", h.RenameCategory)
		staff.DELETE("/:id", h.DeleteCategory)
	}
}

// ListCategories handles GET /api/v1/categories.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	result, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetCategory handles GET /api/v1/categories/:id.
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := paramID(c, "category")
	if !ok {
		return
	}

	result, err := h.service.GetCategory(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateCategory handles POST /api/v1/categories.
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateCategory(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// RenameCategory handles PUT /api/v1/categories/:id.
func (h *CategoryHandler) RenameCategory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "category")
	if !ok {
		return
	}

	var req application.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RenameCategory(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteCategory handles DELETE /api/v1/categories/:id.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "category")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
