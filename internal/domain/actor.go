package domain

// Role classifies the acting identity for permission checks.
type Role string

const (
	RoleUser  Role = "USER"
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// Actor is the authenticated identity performing a transition.
type Actor struct {
	ID   string
	Role Role
}

// IsStaff reports whether the actor holds staff or admin privileges.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}
