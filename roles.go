package auth

// RoleValidator is the single authorization-decision surface. Route logic
// must consult these methods instead of comparing role strings inline.
type RoleValidator interface {
	HasRole(role string) bool
	IsAtLeast(minRole UserRole) bool
	IsAdmin() bool
}

// roleHierarchy orders roles from least to most privileged. Back-office
// roles sit between field workers and admins.
var roleHierarchy = map[UserRole]int{
	RoleUser:    0,
	RoleQC:      1,
	RoleHR:      2,
	RoleManager: 3,
	RoleAdmin:   4,
}

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	_, ok := roleHierarchy[r]
	return ok
}

// RoleIsAtLeast checks if role meets the minimum required level.
// Unknown roles never satisfy any minimum.
func RoleIsAtLeast(r, minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// RoleIsAdmin reports whether the role grants access to the admin surface.
func RoleIsAdmin(r UserRole) bool {
	return r == RoleAdmin
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleQC,
		RoleHR,
		RoleManager,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// DashboardPath returns the landing path the route guard redirects to for
// the given role.
func DashboardPath(r UserRole) string {
	if RoleIsAdmin(r) {
		return "/admin/dashboard"
	}
	return "/dashboard"
}
