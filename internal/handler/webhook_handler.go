package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/events"
)

// WebhookHandler receives processor webhooks. It is the out-of-band signal
// that a suspended payment intent (step-up authentication) has resolved.
type WebhookHandler struct {
	resumer       events.SessionResumer
	webhookSecret string
	logger        *zap.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(resumer events.SessionResumer, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		resumer:       resumer,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// RegisterRoutes registers the webhook route. No auth middleware: the
// signature header is the authentication.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook handles POST /webhooks/stripe.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			h.logger.Error("failed to decode payment intent from webhook", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
			return
		}

		h.logger.Info("processor webhook received",
			zap.String("event_type", string(event.Type)),
			zap.String("intent_id", pi.ID),
		)

		// Resume failures are retried by the processor's webhook redelivery.
		if err := h.resumer.ResumeByIntent(c.Request.Context(), pi.ID); err != nil {
			h.logger.Error("failed to resume session from webhook",
				zap.String("intent_id", pi.ID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resume failed"})
			return
		}

	default:
		h.logger.Debug("ignoring webhook event type", zap.String("event_type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
