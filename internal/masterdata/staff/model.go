package staff

import (
	"time"

	"github.com/velora-salon/velora-salon/internal/shared"
)

// Member is a staff user. Only members with the STAFF role are schedulable
// resources.
type Member struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Role      shared.Role `json:"role"`
	BranchID  *int64      `json:"branch_id,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Principal converts the member into the authorization principal consumed by
// the branch-visibility predicate.
func (m Member) Principal() shared.Principal {
	return shared.Principal{UserID: m.ID, Role: m.Role, BranchID: m.BranchID}
}
