package entity

// Role names. Matching is exact and case-sensitive.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// DefaultRoles is assigned at registration.
func DefaultRoles() []string { return []string{RoleCustomer} }

// intersects reports whether have and want share at least one element.
func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// HasAnyRole reports whether the request identity holds at least one of roles.
func (a *AuthContext) HasAnyRole(roles ...string) bool {
	return a != nil && intersects(a.Roles, roles)
}
