package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

type recordingResumer struct {
	intentIDs []string
	err       error
}

func (r *recordingResumer) ResumeByIntent(ctx context.Context, intentID string) error {
	r.intentIDs = append(r.intentIDs, intentID)
	return r.err
}

func newWebhookRouter(resumer *recordingResumer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewWebhookHandler(resumer, testWebhookSecret, zap.NewNop())
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func signedEvent(eventType, intentID string) (string, string) {
	payload := fmt.Sprintf(`{"id":"evt_1","api_version":%q,"type":%q,"data":{"object":{"id":%q,"object":"payment_intent"}}}`,
		stripe.APIVersion, eventType, intentID)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
	return payload, signed.Header
}

func TestStripeWebhookResumesIntent(t *testing.T) {
	resumer := &recordingResumer{}
	router := newWebhookRouter(resumer)

	body, sig := signedEvent("payment_intent.succeeded", "pi_webhook_1")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", sig)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resumer.intentIDs, 1)
	assert.Equal(t, "pi_webhook_1", resumer.intentIDs[0])
}

func TestStripeWebhookIgnoresUnhandledEventTypes(t *testing.T) {
	resumer := &recordingResumer{}
	router := newWebhookRouter(resumer)

	body, sig := signedEvent("charge.refunded", "pi_webhook_2")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", sig)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resumer.intentIDs)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	resumer := &recordingResumer{}
	router := newWebhookRouter(resumer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, resumer.intentIDs)
}
