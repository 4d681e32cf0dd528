package shared

// Principal describes the authenticated actor.
type Principal struct {
	UserID   int64
	Role     Role
	BranchID *int64
}

// CanAccessBranch is the single branch-visibility predicate. Admins and
// super-branch managers see every branch; everyone else is scoped to their
// home branch.
func CanAccessBranch(p Principal, branchID int64) bool {
	switch p.Role {
	case RoleAdmin, RoleSuperBranchManager:
		return true
	case RoleBranchManager, RoleReception, RoleStaff:
		return p.BranchID != nil && *p.BranchID == branchID
	}
	return false
}
