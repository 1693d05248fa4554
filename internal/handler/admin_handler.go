package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tourhub/service-booking/internal/application"
	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/middleware"
	"github.com/tourhub/service-booking/internal/platform/response"
)

// AdminHandler handles staff-only HTTP requests.
type AdminHandler struct {
	bookings *application.AdmissionService
	accounts *application.AccountService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings *application.AdmissionService, accounts *application.AccountService) *AdminHandler {
	return &AdminHandler{bookings: bookings, accounts: accounts}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireStaff())
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/tours/:id/reconcile", h.ReconcileLedger)
		admin.POST("/users/:id/deactivate", h.DeactivateUser)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	query, ok := bookingQuery(c)
	if !ok {
		return
	}

	result, err := h.bookings.ListBookings(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stats, err := h.bookings.GetBookingStats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ReconcileLedger handles POST /api/v1/admin/tours/:id/reconcile.
func (h *AdminHandler) ReconcileLedger(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	tourID, ok := paramID(c, "tour")
	if !ok {
		return
	}

	report, err := h.bookings.ReconcileLedger(c.Request.Context(), actor, tourID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}

// DeactivateUser handles POST /api/v1/admin/users/:id/deactivate.
func (h *AdminHandler) DeactivateUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "user")
	if !ok {
		return
	}

	result, err := h.accounts.Deactivate(c.Request.Context(), actor, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
