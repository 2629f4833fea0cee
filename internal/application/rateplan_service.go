package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	rateplanDomain "github.com/roamstay/service-booking/internal/domain/rateplan"
	"github.com/roamstay/service-booking/internal/ledger"
)

// CreateRatePlanRequest holds data to create a rate plan (admin).
type CreateRatePlanRequest struct {
	Code              string `json:"code" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	NightlyCents      int64  `json:"nightly_cents" binding:"required"`
	Currency          string `json:"currency" binding:"required"`
	Refundable        bool   `json:"refundable"`
	BreakfastIncluded bool   `json:"breakfast_included"`
}

// UpdateRatePlanPriceRequest changes a plan's nightly price (admin).
type UpdateRatePlanPriceRequest struct {
	NightlyCents int64 `json:"nightly_cents" binding:"required"`
}

// RatePlanDTO is the API representation of a rate plan.
type RatePlanDTO struct {
	ID                uuid.UUID `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	NightlyCents      int64     `json:"nightly_cents"`
	Currency          string    `json:"currency"`
	Refundable        bool      `json:"refundable"`
	BreakfastIncluded bool      `json:"breakfast_included"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

// RatePlanService handles rate plan use cases.
type RatePlanService struct {
	repo   rateplanDomain.RatePlanRepository
	ledger *ledger.Ledger
	logger *zap.Logger
}

// NewRatePlanService creates a new RatePlanService.
func NewRatePlanService(repo rateplanDomain.RatePlanRepository, l *ledger.Ledger, logger *zap.Logger) *RatePlanService {
	return &RatePlanService{repo: repo, ledger: l, logger: logger}
}

// ListActivePlans returns the plans currently on sale.
func (s *RatePlanService) ListActivePlans(ctx context.Context) ([]*RatePlanDTO, error) {
	plans, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]*RatePlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toRatePlanDTO(p)
	}
	return dtos, nil
}

// GetPlanByCode returns a single plan by its rate code.
func (s *RatePlanService) GetPlanByCode(ctx context.Context, code string) (*RatePlanDTO, error) {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return toRatePlanDTO(p), nil
}

// CreatePlan creates a new rate plan (admin only).
func (s *RatePlanService) CreatePlan(ctx context.Context, req CreateRatePlanRequest) (*RatePlanDTO, error) {
	p, err := rateplanDomain.NewRatePlan(req.Code, req.Name, req.Description, req.NightlyCents, req.Currency, req.Refundable, req.BreakfastIncluded)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("rate plan created", zap.String("code", p.Code()))
	return toRatePlanDTO(p), nil
}

// UpdatePlanPrice changes a plan's nightly price (admin only). Existing
// bookings keep the price they paid.
func (s *RatePlanService) UpdatePlanPrice(ctx context.Context, id uuid.UUID, req UpdateRatePlanPriceRequest) (*RatePlanDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousCents := p.NightlyCents()
	if err := p.UpdatePrice(req.NightlyCents); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		s.ledger.Audit(ctx, nil, ledger.ActionUpdatePrice, ledger.AuditFailed, req, nil, "PERSISTENCE")
		return nil, err
	}
	s.ledger.Audit(ctx, nil, ledger.ActionUpdatePrice, ledger.AuditSuccess,
		map[string]any{"code": p.Code(), "previous_cents": previousCents},
		map[string]any{"nightly_cents": p.NightlyCents()},
		"")
	s.logger.Info("rate plan price updated",
		zap.String("code", p.Code()),
		zap.Int64("nightly_cents", p.NightlyCents()),
	)
	return toRatePlanDTO(p), nil
}

// DeactivatePlan removes a plan from sale (admin only).
func (s *RatePlanService) DeactivatePlan(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.Deactivate()
	return s.repo.Update(ctx, p)
}

func toRatePlanDTO(p *rateplanDomain.RatePlan) *RatePlanDTO {
	return &RatePlanDTO{
		ID:                p.ID(),
		Code:              p.Code(),
		Name:              p.Name(),
		Description:       p.Description(),
		NightlyCents:      p.NightlyCents(),
		Currency:          p.Currency(),
		Refundable:        p.Refundable(),
		BreakfastIncluded: p.BreakfastIncluded(),
		Active:            p.Active(),
		CreatedAt:         p.CreatedAt(),
	}
}
