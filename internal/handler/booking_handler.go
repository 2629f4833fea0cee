package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamstay/service-booking/internal/application"
	"github.com/roamstay/service-booking/internal/orchestrator"
	"github.com/roamstay/service-booking/internal/pkg/auth"
	"github.com/roamstay/service-booking/internal/pkg/middleware"
	"github.com/roamstay/service-booking/internal/pkg/response"
)

// BookingHandler handles HTTP requests for the booking pipeline.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers session and booking routes.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	sessions := r.Group("/sessions")
	sessions.Use(authMW)
	{
		sessions.POST("/hold", h.StartHold)
		sessions.GET("/:id", h.GetState)
		sessions.PUT("/:id/guest", h.SubmitGuestDetails)
		sessions.POST("/:id/pay", h.Pay)
		sessions.DELETE("/:id", h.Abandon)
	}

	bookings := r.Group("/bookings")
	bookings.Use(authMW)
	{
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/cancellation-quote", h.QuoteCancellation)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// StartHold handles POST /api/v1/sessions/hold.
func (h *BookingHandler) StartHold(c *gin.Context) {
	var req application.StartHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.StartHold(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetState handles GET /api/v1/sessions/:id.
func (h *BookingHandler) GetState(c *gin.Context) {
	result, err := h.service.GetState(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SubmitGuestDetails handles PUT /api/v1/sessions/:id/guest.
func (h *BookingHandler) SubmitGuestDetails(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.GuestDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SubmitGuestDetails(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Pay handles POST /api/v1/sessions/:id/pay. A step-up authentication demand
// answers 202 with the action URL; a confirmed booking answers 201.
func (h *BookingHandler) Pay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Pay(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.State == string(orchestrator.StateAwaitingAction) {
		response.Accepted(c, result)
		return
	}
	if result.Booking != nil {
		response.Created(c, result)
		return
	}
	response.Success(c, result)
}

// Abandon handles DELETE /api/v1/sessions/:id.
func (h *BookingHandler) Abandon(c *gin.Context) {
	if err := h.service.Abandon(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	booking, refunds, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"booking": booking, "refunds": refunds})
}

// QuoteCancellation handles GET /api/v1/bookings/:id/cancellation-quote.
func (h *BookingHandler) QuoteCancellation(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	quote, err := h.service.QuoteCancellation(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, quote)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	var req application.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
