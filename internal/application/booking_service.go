package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain"
	bookingDomain "github.com/roamstay/service-booking/internal/domain/booking"
	"github.com/roamstay/service-booking/internal/hold"
	"github.com/roamstay/service-booking/internal/ledger"
	"github.com/roamstay/service-booking/internal/orchestrator"
)

const dateLayout = "2006-01-02"

// StartHoldRequest opens a booking session.
type StartHoldRequest struct {
	HotelID             string `json:"hotel_id" binding:"required"`
	RoomID              string `json:"room_id" binding:"required"`
	RateCode            string `json:"rate_code"`
	CheckIn             string `json:"check_in" binding:"required"`
	CheckOut            string `json:"check_out" binding:"required"`
	Occupancy           int    `json:"occupancy" binding:"required"`
	DisplayedPriceCents int64  `json:"displayed_price_cents"`
}

// GuestDetailsRequest attaches guest contact details to a session.
type GuestDetailsRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	PromoCode string `json:"promo_code"`
}

// PayRequest confirms payment for a session.
type PayRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// CancelBookingRequest cancels a confirmed booking.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// HoldDTO is the API representation of an active hold.
type HoldDTO struct {
	HotelID    string    `json:"hotel_id"`
	RoomID     string    `json:"room_id"`
	RateCode   string    `json:"rate_code,omitempty"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Occupancy  int       `json:"occupancy"`
	PriceCents int64     `json:"price_cents"`
	Currency   string    `json:"currency"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SessionDTO is the API representation of a booking session.
type SessionDTO struct {
	SessionID     string     `json:"session_id"`
	State         string     `json:"state"`
	Hold          *HoldDTO   `json:"hold,omitempty"`
	DiscountCents int64      `json:"discount_cents,omitempty"`
	ActionURL     string     `json:"action_url,omitempty"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty"`
	Booking       *BookingDTO `json:"booking,omitempty"`
}

// BookingDTO is the API representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID           `json:"id"`
	SupplierBookingID  string              `json:"supplier_booking_id"`
	HotelID            string              `json:"hotel_id"`
	RoomID             string              `json:"room_id"`
	RateCode           string              `json:"rate_code,omitempty"`
	CheckIn            string              `json:"check_in"`
	CheckOut           string              `json:"check_out"`
	Occupancy          int                 `json:"occupancy"`
	Guest              bookingDomain.Guest `json:"guest"`
	TotalCents         int64               `json:"total_cents"`
	Currency           string              `json:"currency"`
	Status             string              `json:"status"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// CancellationDTO reports the outcome of a cancellation.
type CancellationDTO struct {
	BookingID        uuid.UUID `json:"booking_id"`
	RefundCents      int64     `json:"refund_cents"`
	PenaltyCents     int64     `json:"penalty_cents"`
	RefundPercentage int       `json:"refund_percentage"`
	RefundStatus     string    `json:"refund_status"`
	Description      string    `json:"description"`
}

// CancellationQuoteDTO previews a cancellation without executing it.
type CancellationQuoteDTO struct {
	BookingID        uuid.UUID `json:"booking_id"`
	RefundCents      int64     `json:"refund_cents"`
	PenaltyCents     int64     `json:"penalty_cents"`
	RefundPercentage int       `json:"refund_percentage"`
	Description      string    `json:"description"`
}

// RefundDTO is the API representation of a refund record.
type RefundDTO struct {
	ID           uuid.UUID `json:"id"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	ProcessorRef string    `json:"processor_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BookingService is the application facade over the booking pipeline.
type BookingService struct {
	orch     *orchestrator.Orchestrator
	refunds  *orchestrator.RefundCoordinator
	promos   *PromoService
	supplier adapter.SupplierAdapter
	ledger   *ledger.Ledger
	logger   *zap.Logger
}

// NewBookingService creates a BookingService.
func NewBookingService(orch *orchestrator.Orchestrator, refunds *orchestrator.RefundCoordinator, promos *PromoService, supplier adapter.SupplierAdapter, l *ledger.Ledger, logger *zap.Logger) *BookingService {
	return &BookingService{
		orch:     orch,
		refunds:  refunds,
		promos:   promos,
		supplier: supplier,
		ledger:   l,
		logger:   logger,
	}
}

// StartHold opens a new session by placing a supplier hold.
func (s *BookingService) StartHold(ctx context.Context, req StartHoldRequest) (*SessionDTO, error) {
	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		return nil, domain.NewValidationError("check_in must be formatted YYYY-MM-DD")
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		return nil, domain.NewValidationError("check_out must be formatted YYYY-MM-DD")
	}

	sess, h, err := s.orch.StartHold(ctx, hold.HoldRequest{
		HotelID:             req.HotelID,
		RoomID:              req.RoomID,
		RateCode:            req.RateCode,
		CheckIn:             checkIn,
		CheckOut:            checkOut,
		Occupancy:           req.Occupancy,
		DisplayedPriceCents: req.DisplayedPriceCents,
	})
	if err != nil {
		return nil, err
	}
	return sessionDTO(sess, &h, nil), nil
}

// SubmitGuestDetails validates any promo code against the held price and
// attaches the details to the session.
func (s *BookingService) SubmitGuestDetails(ctx context.Context, userID uuid.UUID, sessionID string, req GuestDetailsRequest) (*SessionDTO, error) {
	guest := bookingDomain.Guest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}

	var discountCents int64
	if req.PromoCode != "" {
		_, h, err := s.orch.GetState(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, domain.NewSupplierError(domain.SupplierHoldExpired, "no active hold for session")
		}

		validation, err := s.promos.ValidatePromo(ctx, userID, ValidatePromoRequest{
			Code:        req.PromoCode,
			AmountCents: h.PriceCents,
			Nights:      h.Nights(),
			RateCode:    h.RateCode,
		})
		if err != nil {
			return nil, err
		}
		if !validation.Valid {
			return nil, domain.NewValidationError(validation.Message)
		}
		discountCents = validation.DiscountCents
	}

	sess, err := s.orch.SubmitGuestDetails(ctx, sessionID, guest, req.PromoCode, discountCents)
	if err != nil {
		return nil, err
	}
	return sessionDTO(sess, nil, nil), nil
}

// Pay drives the paid half of the pipeline. On confirmation it records promo
// usage; on requires_action it returns the suspension in the DTO.
func (s *BookingService) Pay(ctx context.Context, userID uuid.UUID, sessionID string, req PayRequest) (*SessionDTO, error) {
	outcome, err := s.orch.Pay(ctx, sessionID, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	dto := &SessionDTO{
		SessionID: outcome.SessionID,
		State:     string(outcome.State),
		ActionURL: outcome.ActionURL,
	}
	if outcome.Booking != nil {
		b := toBookingDTO(outcome.Booking)
		dto.Booking = &b
		bid := outcome.Booking.ID()
		dto.BookingID = &bid

		if sess, _, err := s.orch.GetState(ctx, sessionID); err == nil && sess.PromoCode != "" {
			if err := s.promos.RecordUsage(ctx, userID, bid, sess.PromoCode, sess.DiscountCents); err != nil {
				s.logger.Warn("failed to record promo usage",
					zap.String("promo_code", sess.PromoCode),
					zap.Error(err),
				)
			}
		}
	}
	return dto, nil
}

// GetState returns the session's current pipeline position.
func (s *BookingService) GetState(ctx context.Context, sessionID string) (*SessionDTO, error) {
	sess, h, err := s.orch.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var b *BookingDTO
	if sess.BookingID != nil {
		if record, err := s.ledger.Bookings().FindByID(ctx, *sess.BookingID); err == nil {
			dto := toBookingDTO(record)
			b = &dto
		}
	}
	return sessionDTO(sess, h, b), nil
}

// Abandon releases the session's hold and discards the session.
func (s *BookingService) Abandon(ctx context.Context, sessionID string) error {
	return s.orch.Abandon(ctx, sessionID)
}

// GetBooking returns a booking with its refund history.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, []RefundDTO, error) {
	b, err := s.ledger.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	refunds, err := s.ledger.Refunds().ListForBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	dto := toBookingDTO(b)
	refundDTOs := make([]RefundDTO, len(refunds))
	for i, r := range refunds {
		refundDTOs[i] = RefundDTO{
			ID:           r.ID,
			AmountCents:  r.AmountCents,
			Currency:     r.Currency,
			Status:       string(r.Status),
			Reason:       r.Reason,
			ProcessorRef: r.ProcessorRef,
			CreatedAt:    r.CreatedAt,
		}
	}
	return &dto, refundDTOs, nil
}

// QuoteCancellation previews the refund for cancelling right now.
func (s *BookingService) QuoteCancellation(ctx context.Context, bookingID uuid.UUID) (*CancellationQuoteDTO, error) {
	b, comp, err := s.refunds.Quote(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &CancellationQuoteDTO{
		BookingID:        b.ID(),
		RefundCents:      comp.RefundAmountCents,
		PenaltyCents:     comp.PenaltyCents,
		RefundPercentage: comp.RefundPercentage,
		Description:      comp.Description,
	}, nil
}

// CancelBooking cancels a confirmed booking per the cancellation policy.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, req CancelBookingRequest) (*CancellationDTO, error) {
	reason := req.Reason
	if reason == "" {
		reason = "guest requested cancellation"
	}

	result, err := s.refunds.Cancel(ctx, bookingID, reason)
	if err != nil {
		return nil, err
	}
	return &CancellationDTO{
		BookingID:        result.Booking.ID(),
		RefundCents:      result.RefundCents,
		PenaltyCents:     result.PenaltyCents,
		RefundPercentage: result.RefundPercentage,
		RefundStatus:     string(result.RefundStatus),
		Description:      result.Description,
	}, nil
}

// ListBookings returns bookings with pagination (admin).
func (s *BookingService) ListBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.ledger.Bookings().ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos, total, nil
}

// GetStats returns booking counts by status (admin).
func (s *BookingService) GetStats(ctx context.Context) (map[string]int64, error) {
	return s.ledger.Bookings().CountByStatus(ctx)
}

// GetAuditTrail returns the audit entries for a booking (admin).
func (s *BookingService) GetAuditTrail(ctx context.Context, bookingID uuid.UUID) ([]ledger.AuditEntry, error) {
	return s.ledger.Audits().ListForBooking(ctx, bookingID)
}

// SupplierCancel releases the supplier reservation for a booking. This is a
// manual operational compensation for supplier-wins gaps, not part of the
// guest cancellation flow.
func (s *BookingService) SupplierCancel(ctx context.Context, bookingID uuid.UUID) error {
	b, err := s.ledger.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.SupplierBookingID() == "" {
		return domain.NewValidationError("booking has no supplier reference")
	}
	if err := s.supplier.CancelReservation(ctx, b.SupplierBookingID()); err != nil {
		return err
	}
	bid := b.ID()
	s.ledger.Audit(ctx, &bid, ledger.ActionCancel, ledger.AuditSuccess, "manual supplier cancel", b.SupplierBookingID(), "")
	s.logger.Warn("supplier reservation cancelled manually",
		zap.String("booking_id", bid.String()),
		zap.String("supplier_booking_id", b.SupplierBookingID()),
	)
	return nil
}

func sessionDTO(sess *orchestrator.Session, h *hold.Hold, b *BookingDTO) *SessionDTO {
	dto := &SessionDTO{
		SessionID:     sess.ID,
		State:         string(sess.State),
		DiscountCents: sess.DiscountCents,
		ActionURL:     sess.ActionURL,
		BookingID:     sess.BookingID,
		Booking:       b,
	}
	if h != nil {
		dto.Hold = &HoldDTO{
			HotelID:    h.HotelID,
			RoomID:     h.RoomID,
			RateCode:   h.RateCode,
			CheckIn:    h.CheckIn.Format(dateLayout),
			CheckOut:   h.CheckOut.Format(dateLayout),
			Occupancy:  h.Occupancy,
			PriceCents: h.PriceCents,
			Currency:   h.Currency,
			ExpiresAt:  h.ExpiresAt,
		}
	}
	return dto
}

func toBookingDTO(b *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 b.ID(),
		SupplierBookingID:  b.SupplierBookingID(),
		HotelID:            b.HotelID(),
		RoomID:             b.RoomID(),
		RateCode:           b.RateCode(),
		CheckIn:            b.CheckIn().Format(dateLayout),
		CheckOut:           b.CheckOut().Format(dateLayout),
		Occupancy:          b.Occupancy(),
		Guest:              b.Guest(),
		TotalCents:         b.TotalCents(),
		Currency:           b.Currency(),
		Status:             string(b.Status()),
		CancelledAt:        b.CancelledAt(),
		CancellationReason: b.CancellationReason(),
		CreatedAt:          b.CreatedAt(),
	}
}
