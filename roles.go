package auth

// UserRole is the user's role within the platform
type UserRole = string

const (
	// RoleUser is the default role (browse projects, invest, comment)
	RoleUser UserRole = "user"
	// RoleProjectCreator can additionally publish and manage fundraising projects
	RoleProjectCreator UserRole = "project_creator"
	// RoleAdmin can moderate projects, articles, and user accounts
	RoleAdmin UserRole = "admin"
)

// roleRank orders roles from least to most privileged
func roleRank(r UserRole) int {
	switch r {
	case RoleUser:
		return 1
	case RoleProjectCreator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// IsValidRole checks if the role is one of the predefined platform roles
func IsValidRole(r UserRole) bool {
	return roleRank(r) > 0
}

// RoleIsAtLeast checks if role meets the minimum required role level
func RoleIsAtLeast(role, minRole UserRole) bool {
	have := roleRank(role)
	want := roleRank(minRole)
	if have == 0 || want == 0 {
		return false
	}
	return have >= want
}
