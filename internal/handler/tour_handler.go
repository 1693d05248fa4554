package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tourhub/service-booking/internal/application"
	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/middleware"
	"github.com/tourhub/service-booking/internal/platform/response"
)

// TourHandler handles HTTP requests for the tour catalog.
type TourHandler struct {
	service *application.TourService
}

// NewTourHandler creates a new TourHandler.
func NewTourHandler(service *application.TourService) *TourHandler {
	return &TourHandler{service: service}
}

// RegisterRoutes registers tour routes. Reads are public; writes need staff.
func (h *TourHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	tours := r.Group("/api/v1/tours")
	{
		tours.GET("", middleware.OptionalAuthMiddleware(jwtManager), h.ListTours)
		tours.GET("/:id", middleware.OptionalAuthMiddleware(jwtManager), h.GetTour)

		staff := tours.Group("", middleware.AuthMiddleware(jwtManager), middleware.RequireStaff())
		staff.POST("", h.CreateTour)
		staff.PUT("/:id", h.UpdateTour)
		staff.PATCH("/:id", h.UpdateTour)
		staff.DELETE("/:id", h.ArchiveTour)
	}
}

// ListTours handles GET /api/v1/tours.
func (h *TourHandler) ListTours(c *gin.Context) {
	page, limit := parsePagination(c)
	q := application.TourQuery{
		City:     c.Query("city"),
		Country:  c.Query("country"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Page:     page,
		Limit:    limit,
	}

	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}
	q.CategoryID = categoryID

	if raw := c.Query("price_cents"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid price_cents")
			return
		}
		q.PriceCents = &price
	}

	result, err := h.service.ListTours(c.Request.Context(), optionalActor(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetTour handles GET /api/v1/tours/:id.
func (h *TourHandler) GetTour(c *gin.Context) {
	tourID, ok := paramID(c, "tour")
	if !ok {
		return
	}

	result, err := h.service.GetTour(c.Request.Context(), optionalActor(c), tourID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateTour handles POST /api/v1/tours.
func (h *TourHandler) CreateTour(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateTour(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateTour handles PUT and PATCH /api/v1/tours/:id.
func (h *TourHandler) UpdateTour(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	tourID, ok := paramID(c, "tour")
	if !ok {
		return
	}

	var req application.UpdateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateTour(c.Request.Context(), actor, tourID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ArchiveTour handles DELETE /api/v1/tours/:id. The tour is deactivated, not
// removed.
func (h *TourHandler) ArchiveTour(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	tourID, ok := paramID(c, "tour")
	if !ok {
		return
	}

	result, err := h.service.ArchiveTour(c.Request.Context(), actor, tourID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
