package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamstay/service-booking/internal/domain"
)

// Envelope is the standard JSON body for successful responses.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorBody is the standard JSON body for failed responses.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// Success writes a 200 with the data envelope.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with the data envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Accepted writes a 202 for suspended flows (e.g. requires_action).
func Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: message})
}

// Paginated writes a 200 with pagination metadata.
func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// Error maps domain and boundary errors to HTTP status codes.
func Error(c *gin.Context, err error) {
	var supErr *domain.SupplierError
	if errors.As(err, &supErr) {
		status := http.StatusConflict
		if supErr.Code == domain.SupplierUnavailable {
			status = http.StatusBadGateway
		}
		c.JSON(status, ErrorBody{Error: supErr.Message, Code: string(supErr.Code)})
		return
	}

	var payErr *domain.PaymentError
	if errors.As(err, &payErr) {
		status := http.StatusUnprocessableEntity
		if payErr.Code == domain.PaymentProcessorUnavailable {
			status = http.StatusBadGateway
		}
		c.JSON(status, ErrorBody{Error: payErr.Message, Code: string(payErr.Code)})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, ErrorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorBody{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
	}
}
