package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/domain"
)

// IntentStatus mirrors the processor's payment intent lifecycle.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
	IntentFailed                IntentStatus = "failed"
)

// Intent is a typed snapshot of a processor payment intent. The processor is
// the source of truth for Status; this struct never outlives the call that
// produced it.
type Intent struct {
	ID          string
	Status      IntentStatus
	AmountCents int64
	Currency    string
	CustomerRef string
	ChargeRef   string
	ActionURL   string
}

// ProcessorAdapter is the Anti-Corruption Layer for the payment processor.
// Every mutating call takes a caller-generated idempotency key so retries of
// the same logical attempt have at most one effect.
type ProcessorAdapter interface {
	// EnsureCustomer returns an existing customer for the email or creates one.
	EnsureCustomer(ctx context.Context, email, name string) (customerRef string, err error)

	// CreateIntent creates a payment intent for the booking reference.
	CreateIntent(ctx context.Context, amountCents int64, currency, customerRef, bookingRef, idempotencyKey string) (Intent, error)

	// ConfirmIntent attempts to confirm with the given payment method. A
	// requires_action status is reported in the returned Intent, not as an error.
	ConfirmIntent(ctx context.Context, intentID, paymentMethod string) (Intent, error)

	// RetrieveIntent fetches the current intent snapshot (reconciliation path).
	RetrieveIntent(ctx context.Context, intentID string) (Intent, error)

	// CancelIntent cancels a pre-capture intent. Captured intents fail with
	// an AlreadyCaptured payment error.
	CancelIntent(ctx context.Context, intentID string) error

	// Refund refunds part or all of a captured charge.
	Refund(ctx context.Context, chargeRef string, amountCents int64, idempotencyKey string) (refundRef string, err error)
}

// RefundCall records a refund request made against the mock processor.
type RefundCall struct {
	ChargeRef      string
	AmountCents    int64
	IdempotencyKey string
}

// MockProcessorAdapter is a development/testing implementation. Confirm
// outcomes can be scripted to exercise step-up authentication and decline
// paths.
type MockProcessorAdapter struct {
	mu        sync.Mutex
	intents   map[string]Intent
	customers map[string]string
	logger    *zap.Logger

	// ConfirmOutcomes is consumed one status per ConfirmIntent call; when
	// empty, confirms succeed.
	ConfirmOutcomes []IntentStatus
	ConfirmErr      error
	RetrieveErr     error
	RefundErr       error
	RefundCalls     []RefundCall
}

// NewMockProcessorAdapter creates a mock processor for development.
func NewMockProcessorAdapter(logger *zap.Logger) *MockProcessorAdapter {
	return &MockProcessorAdapter{
		intents:   make(map[string]Intent),
		customers: make(map[string]string),
		logger:    logger,
	}
}

// EnsureCustomer reuses a customer ref per email.
func (m *MockProcessorAdapter) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ref, ok := m.customers[email]; ok {
		return ref, nil
	}
	ref := fmt.Sprintf("cus_mock_%s", uuid.New().String()[:8])
	m.customers[email] = ref
	return ref, nil
}

// CreateIntent simulates creating a payment intent.
func (m *MockProcessorAdapter) CreateIntent(ctx context.Context, amountCents int64, currency, customerRef, bookingRef, idempotencyKey string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent := Intent{
		ID:          fmt.Sprintf("pi_mock_%s", uuid.New().String()[:8]),
		Status:      IntentRequiresPaymentMethod,
		AmountCents: amountCents,
		Currency:    currency,
		CustomerRef: customerRef,
	}
	m.intents[intent.ID] = intent

	m.logger.Info("[MOCK PROCESSOR] intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_cents", amountCents),
		zap.String("currency", currency),
		zap.String("booking_ref", bookingRef),
	)
	return intent, nil
}

// ConfirmIntent consumes the next scripted outcome, defaulting to succeeded.
func (m *MockProcessorAdapter) ConfirmIntent(ctx context.Context, intentID, paymentMethod string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ConfirmErr != nil {
		return Intent{}, m.ConfirmErr
	}

	intent, ok := m.intents[intentID]
	if !ok {
		return Intent{}, domain.NewNotFoundError("payment intent", intentID)
	}

	status := IntentSucceeded
	if len(m.ConfirmOutcomes) > 0 {
		status = m.ConfirmOutcomes[0]
		m.ConfirmOutcomes = m.ConfirmOutcomes[1:]
	}

	intent.Status = status
	if status == IntentRequiresAction {
		intent.ActionURL = fmt.Sprintf("https://processor.example/3ds/%s", intentID)
	}
	if status == IntentSucceeded {
		intent.ChargeRef = fmt.Sprintf("ch_mock_%s", uuid.New().String()[:8])
	}
	m.intents[intentID] = intent

	m.logger.Info("[MOCK PROCESSOR] intent confirmed",
		zap.String("intent_id", intentID),
		zap.String("status", string(status)),
	)
	return intent, nil
}

// RetrieveIntent returns the current snapshot.
func (m *MockProcessorAdapter) RetrieveIntent(ctx context.Context, intentID string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RetrieveErr != nil {
		return Intent{}, m.RetrieveErr
	}

	intent, ok := m.intents[intentID]
	if !ok {
		return Intent{}, domain.NewNotFoundError("payment intent", intentID)
	}
	return intent, nil
}

// CancelIntent cancels pre-capture intents only.
func (m *MockProcessorAdapter) CancelIntent(ctx context.Context, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[intentID]
	if !ok {
		return domain.NewNotFoundError("payment intent", intentID)
	}
	if intent.Status == IntentSucceeded {
		return domain.NewPaymentError(domain.PaymentAlreadyCaptured, "intent already captured")
	}
	intent.Status = IntentCanceled
	m.intents[intentID] = intent

	m.logger.Info("[MOCK PROCESSOR] intent cancelled", zap.String("intent_id", intentID))
	return nil
}

// Refund records the call and returns a mock refund reference.
func (m *MockProcessorAdapter) Refund(ctx context.Context, chargeRef string, amountCents int64, idempotencyKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RefundErr != nil {
		return "", m.RefundErr
	}

	m.RefundCalls = append(m.RefundCalls, RefundCall{
		ChargeRef:      chargeRef,
		AmountCents:    amountCents,
		IdempotencyKey: idempotencyKey,
	})

	ref := fmt.Sprintf("re_mock_%s", uuid.New().String()[:8])
	m.logger.Info("[MOCK PROCESSOR] refund created",
		zap.String("charge_ref", chargeRef),
		zap.Int64("amount_cents", amountCents),
		zap.String("refund_ref", ref),
	)
	return ref, nil
}

// ResolveAction marks a requires_action intent as succeeded, simulating the
// guest completing step-up authentication out of band.
func (m *MockProcessorAdapter) ResolveAction(intentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[intentID]
	if !ok {
		return
	}
	intent.Status = IntentSucceeded
	intent.ChargeRef = fmt.Sprintf("ch_mock_%s", uuid.New().String()[:8])
	m.intents[intentID] = intent
}
