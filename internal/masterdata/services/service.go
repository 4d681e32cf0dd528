package services

import (
	"context"
	"strings"

	"github.com/velora-salon/velora-salon/internal/masterdata/shared"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// Catalog manages the service offering list.
type Catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) List(ctx context.Context, filters shared.ListFilters) ([]Service, int, error) {
	return c.repo.List(ctx, filters)
}

func (c *Catalog) Get(ctx context.Context, id int64) (Service, error) {
	if id <= 0 {
		return Service{}, apperr.E(apperr.KindValidation, "invalid service ID")
	}
	return c.repo.Get(ctx, id)
}

func (c *Catalog) Create(ctx context.Context, svc Service) (Service, error) {
	if err := validate(svc); err != nil {
		return Service{}, err
	}
	return c.repo.Create(ctx, svc)
}

func (c *Catalog) Update(ctx context.Context, id int64, svc Service) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid service ID")
	}
	if err := validate(svc); err != nil {
		return err
	}
	return c.repo.Update(ctx, id, svc)
}

func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid service ID")
	}
	return c.repo.Delete(ctx, id)
}

func validate(svc Service) error {
	if svc.BranchID <= 0 {
		return apperr.E(apperr.KindValidation, "branch is required")
	}
	if strings.TrimSpace(svc.Name) == "" {
		return apperr.E(apperr.KindValidation, "service name is required")
	}
	switch svc.Type {
	case TimeBased:
		if svc.DurationMin <= 0 {
			return apperr.E(apperr.KindInvalidServiceDuration, "time-based service requires a positive duration")
		}
	case UnitBased:
	default:
		return apperr.E(apperr.KindValidation, "unknown service type")
	}
	if svc.Price < 0 {
		return apperr.E(apperr.KindValidation, "price cannot be negative")
	}
	if svc.CommissionRate != nil && (*svc.CommissionRate < 0 || *svc.CommissionRate > 1) {
		return apperr.E(apperr.KindValidation, "commission rate must be within [0, 1]")
	}
	if svc.CommissionFixed != nil && *svc.CommissionFixed < 0 {
		return apperr.E(apperr.KindValidation, "fixed commission cannot be negative")
	}
	return nil
}
