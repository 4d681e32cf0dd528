package shared

// Role is a staff member's role within the organisation.
type Role string

const (
	RoleAdmin              Role = "ADMIN"
	RoleSuperBranchManager Role = "SUPER_BRANCH_MANAGER"
	RoleBranchManager      Role = "BRANCH_MANAGER"
	RoleReception          Role = "RECEPTION"
	RoleStaff              Role = "STAFF"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSuperBranchManager, RoleBranchManager, RoleReception, RoleStaff:
		return true
	}
	return false
}

// Schedulable reports whether staff with this role can be booked for
// appointments.
func (r Role) Schedulable() bool {
	return r == RoleStaff
}
