package model

// Role is the authorization role carried in the JWT `role` claim.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// Actor is the authenticated caller of an operation, extracted from the
// verified token by the identity middleware.
type Actor struct {
	UserID uint64
	Role   Role
}

// Admin reports whether the actor holds the admin role.
func (a Actor) Admin() bool { return a.Role == RoleAdmin }
