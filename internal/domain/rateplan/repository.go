package rateplan

import (
	"context"

	"github.com/google/uuid"
)

// RatePlanRepository defines persistence operations for rate plans.
type RatePlanRepository interface {
	Save(ctx context.Context, p *RatePlan) error
	Update(ctx context.Context, p *RatePlan) error
	FindByCode(ctx context.Context, code string) (*RatePlan, error)
	FindByID(ctx context.Context, id uuid.UUID) (*RatePlan, error)
	ListActive(ctx context.Context) ([]*RatePlan, error)
}
