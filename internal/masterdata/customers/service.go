package customers

import (
	"context"
	"strings"

	"github.com/velora-salon/velora-salon/internal/masterdata/shared"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, apperr.E(apperr.KindValidation, "invalid customer ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	if err := validate(c); err != nil {
		return Customer{}, err
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, c Customer) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid customer ID")
	}
	if err := validate(c); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, c)
}

// DiscountRate returns the customer's standing discount, applied by billing
// at settlement.
func (s *Service) DiscountRate(ctx context.Context, id int64) (float64, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.DiscountRate, nil
}

// Credit routes an amount into the customer's credit balance. Billing calls
// this when a caller chooses to bank an overpayment instead of lowering the
// tendered amount.
func (s *Service) Credit(ctx context.Context, id int64, amount float64) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid customer ID")
	}
	if amount <= 0 {
		return apperr.E(apperr.KindValidation, "credit amount must be positive")
	}
	return s.repo.AddCredit(ctx, id, amount)
}

// SpendCredit consumes credit, e.g. when a payment uses the CUSTOMER_CREDIT
// method.
func (s *Service) SpendCredit(ctx context.Context, id int64, amount float64) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid customer ID")
	}
	if amount <= 0 {
		return apperr.E(apperr.KindValidation, "credit amount must be positive")
	}
	return s.repo.AddCredit(ctx, id, -amount)
}

func validate(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.E(apperr.KindValidation, "customer name is required")
	}
	if c.DiscountRate < 0 || c.DiscountRate >= 1 {
		return apperr.E(apperr.KindValidation, "discount rate must be within [0, 1)")
	}
	return nil
}
