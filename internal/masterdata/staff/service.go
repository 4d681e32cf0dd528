package staff

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Member, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Member, error) {
	if id <= 0 {
		return Member{}, apperr.E(apperr.KindValidation, "invalid staff ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, m Member) (Member, error) {
	if err := validate(m); err != nil {
		return Member{}, err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id int64, m Member) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid staff ID")
	}
	if err := validate(m); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, m)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid staff ID")
	}
	return s.repo.Delete(ctx, id)
}

func validate(m Member) error {
	if strings.TrimSpace(m.Name) == "" {
		return apperr.E(apperr.KindValidation, "staff name is required")
	}
	if !m.Role.Valid() {
		return apperr.E(apperr.KindValidation, "unknown role")
	}
	if m.BranchID != nil && *m.BranchID <= 0 {
		return apperr.E(apperr.KindValidation, "invalid home branch")
	}
	return nil
}
