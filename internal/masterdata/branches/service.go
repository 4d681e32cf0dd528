package branches

import (
	"context"

	"github.com/velora-salon/velora-salon/internal/masterdata/shared"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// maxTreeDepth bounds the parent-chain walk; a deeper chain is treated as a
// cycle regardless.
const maxTreeDepth = 32

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Branch, error) {
	if id <= 0 {
		return Branch{}, apperr.E(apperr.KindValidation, "invalid branch ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Children(ctx context.Context, parentID int64) ([]Branch, error) {
	if parentID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid branch ID")
	}
	return s.repo.Children(ctx, parentID)
}

func (s *Service) Create(ctx context.Context, branch Branch) (Branch, error) {
	if err := s.validate(ctx, 0, branch); err != nil {
		return Branch{}, err
	}
	return s.repo.Create(ctx, branch)
}

func (s *Service) Update(ctx context.Context, id int64, branch Branch) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid branch ID")
	}
	if err := s.validate(ctx, id, branch); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, branch)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.E(apperr.KindValidation, "invalid branch ID")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Hours(ctx context.Context, branchID int64) ([]DayHours, error) {
	if branchID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid branch ID")
	}
	return s.repo.Hours(ctx, branchID)
}

func (s *Service) SetHours(ctx context.Context, branchID int64, hours []DayHours) error {
	if branchID <= 0 {
		return apperr.E(apperr.KindValidation, "invalid branch ID")
	}
	seen := map[int]bool{}
	for _, h := range hours {
		if h.Weekday < 0 || h.Weekday > 6 {
			return apperr.E(apperr.KindValidation, "weekday out of range")
		}
		if seen[int(h.Weekday)] {
			return apperr.E(apperr.KindValidation, "duplicate weekday in schedule")
		}
		seen[int(h.Weekday)] = true
		if h.OpenMinutes < 0 || h.CloseMinutes > 24*60 || h.OpenMinutes >= h.CloseMinutes {
			return apperr.E(apperr.KindValidation, "operating window must open before it closes")
		}
	}
	return s.repo.SetHours(ctx, branchID, hours)
}

// ensureNoCycle walks the proposed parent chain and rejects any assignment
// that would make id its own ancestor.
func (s *Service) ensureNoCycle(ctx context.Context, id int64, parentID *int64) error {
	cursor := parentID
	for depth := 0; cursor != nil; depth++ {
		if depth >= maxTreeDepth {
			return apperr.E(apperr.KindValidation, "branch tree too deep")
		}
		if id != 0 && *cursor == id {
			return apperr.E(apperr.KindValidation, "branch cannot be its own ancestor")
		}
		parent, err := s.repo.Get(ctx, *cursor)
		if err != nil {
			return err
		}
		cursor = parent.ParentID
	}
	return nil
}
