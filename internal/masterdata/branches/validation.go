package branches

import (
	"context"
	"strings"

	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

func (s *Service) validate(ctx context.Context, id int64, b Branch) error {
	if strings.TrimSpace(b.Name) == "" {
		return apperr.E(apperr.KindValidation, "branch name is required")
	}
	if b.ParentID != nil && *b.ParentID <= 0 {
		return apperr.E(apperr.KindValidation, "invalid parent branch ID")
	}
	return s.ensureNoCycle(ctx, id, b.ParentID)
}
