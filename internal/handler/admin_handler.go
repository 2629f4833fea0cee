package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamstay/service-booking/internal/application"
	"github.com/roamstay/service-booking/internal/pkg/auth"
	"github.com/roamstay/service-booking/internal/pkg/middleware"
	"github.com/roamstay/service-booking/internal/pkg/response"
)

// AdminHandler handles admin HTTP requests for booking operations.
type AdminHandler struct {
	bookingService *application.BookingService
	promoService   *application.PromoService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookingService *application.BookingService, promoService *application.PromoService) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingService,
		promoService:   promoService,
	}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/bookings/:id/audit", h.AuditTrail)
		admin.POST("/bookings/:id/supplier-cancel", h.SupplierCancel)
		admin.GET("/promos", h.ListPromos)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookingService.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// AuditTrail handles GET /api/v1/admin/bookings/:id/audit.
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	entries, err := h.bookingService.GetAuditTrail(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entries)
}

// SupplierCancel handles POST /api/v1/admin/bookings/:id/supplier-cancel.
// Manual compensation: releases the supplier reservation for a booking the
// local ledger could not reconcile.
func (h *AdminHandler) SupplierCancel(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	if err := h.bookingService.SupplierCancel(c.Request.Context(), bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"cancelled": true})
}

// ListPromos handles GET /api/v1/admin/promos.
func (h *AdminHandler) ListPromos(c *gin.Context) {
	promos, err := h.promoService.GetActivePromos(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, promos)
}
