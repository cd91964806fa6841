package domain

// Role is the authorization role carried by an authenticated subject.
type Role string

const (
	RoleAdmin    Role = "admin" // platform broker
	RoleBusiness Role = "business"
	RoleCompany  Role = "company"
	RoleDriver   Role = "driver"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

// Is reports whether the actor holds the given role.
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
