package domain

import "fmt"

// SupplierErrorCode identifies a failure class returned by the inventory supplier.
type SupplierErrorCode string

const (
	SupplierNoAvailability SupplierErrorCode = "NO_AVAILABILITY"
	SupplierPriceChanged   SupplierErrorCode = "PRICE_CHANGED"
	SupplierHoldExpired    SupplierErrorCode = "HOLD_EXPIRED"
	SupplierUnavailable    SupplierErrorCode = "SUPPLIER_UNAVAILABLE"
)

// SupplierError is a typed failure from the supplier boundary. Callers should
// surface these to the guest with a retry or re-search suggestion.
type SupplierError struct {
	Code    SupplierErrorCode
	Message string
}

func (e *SupplierError) Error() string {
	return fmt.Sprintf("supplier: %s: %s", e.Code, e.Message)
}

// Retryable reports whether retrying the same call can succeed.
func (e *SupplierError) Retryable() bool {
	return e.Code == SupplierUnavailable
}

// NewSupplierError builds a SupplierError.
func NewSupplierError(code SupplierErrorCode, message string) *SupplierError {
	return &SupplierError{Code: code, Message: message}
}

// PaymentErrorCode identifies a failure class returned by the payment processor.
type PaymentErrorCode string

const (
	PaymentCardDeclined         PaymentErrorCode = "CARD_DECLINED"
	PaymentProcessorUnavailable PaymentErrorCode = "PROCESSOR_UNAVAILABLE"
	PaymentAlreadyCaptured      PaymentErrorCode = "ALREADY_CAPTURED"
)

// PaymentError is a typed failure from the payment processor boundary.
// A step-up authentication demand is NOT an error: the coordinator reports it
// as a requires_action result instead.
type PaymentError struct {
	Code    PaymentErrorCode
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment: %s: %s", e.Code, e.Message)
}

// Retryable reports whether retrying the same call can succeed.
func (e *PaymentError) Retryable() bool {
	return e.Code == PaymentProcessorUnavailable
}

// NewPaymentError builds a PaymentError.
func NewPaymentError(code PaymentErrorCode, message string) *PaymentError {
	return &PaymentError{Code: code, Message: message}
}

// PersistenceError wraps a ledger failure. Once the supplier or processor side
// has committed, these are absorbed locally and never surfaced to the guest.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrInvalidCancellation reports a cancellation against a booking that is not
// in a cancellable state.
var ErrInvalidCancellation = &DomainError{Err: ErrInvalidState, Message: "booking cannot be cancelled in its current state"}
