package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamstay/service-booking/internal/application"
	"github.com/roamstay/service-booking/internal/pkg/auth"
	"github.com/roamstay/service-booking/internal/pkg/middleware"
	"github.com/roamstay/service-booking/internal/pkg/response"
)

// RatePlanHandler handles HTTP requests for rate plans.
type RatePlanHandler struct {
	service *application.RatePlanService
}

// NewRatePlanHandler creates a new RatePlanHandler.
func NewRatePlanHandler(service *application.RatePlanService) *RatePlanHandler {
	return &RatePlanHandler{service: service}
}

// RegisterRoutes registers rate plan routes. Reads are public; writes are
// admin only.
func (h *RatePlanHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	plans := r.Group("/rate-plans")
	{
		plans.GET("", h.ListActivePlans)
		plans.GET("/:code", h.GetPlanByCode)
	}

	adminMW := []gin.HandlerFunc{middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin)}
	plans.POST("", append(adminMW, h.CreatePlan)...)
	plans.PATCH("/:id/price", append(adminMW, h.UpdatePlanPrice)...)
	plans.DELETE("/:id", append(adminMW, h.DeactivatePlan)...)
}

// ListActivePlans handles GET /api/v1/rate-plans.
func (h *RatePlanHandler) ListActivePlans(c *gin.Context) {
	result, err := h.service.ListActivePlans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetPlanByCode handles GET /api/v1/rate-plans/:code.
func (h *RatePlanHandler) GetPlanByCode(c *gin.Context) {
	result, err := h.service.GetPlanByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreatePlan handles POST /api/v1/rate-plans.
func (h *RatePlanHandler) CreatePlan(c *gin.Context) {
	var req application.CreateRatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdatePlanPrice handles PATCH /api/v1/rate-plans/:id/price.
func (h *RatePlanHandler) UpdatePlanPrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid rate plan id")
		return
	}

	var req application.UpdateRatePlanPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePlanPrice(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeactivatePlan handles DELETE /api/v1/rate-plans/:id.
func (h *RatePlanHandler) DeactivatePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid rate plan id")
		return
	}

	if err := h.service.DeactivatePlan(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deactivated": true})
}
