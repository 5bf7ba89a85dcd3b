package auth

import "strings"

// AccountRole is the account's role
type AccountRole string

const (
	// RoleStandard is the default role for self-service signups
	RoleStandard AccountRole = "user"
	// RoleGuide leads tours
	RoleGuide AccountRole = "guide"
	// RoleLeadGuide manages tours and guides
	RoleLeadGuide AccountRole = "lead-guide"
	// RoleAdmin can manage every resource, never assignable at signup
	RoleAdmin AccountRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r AccountRole) IsValid() bool {
	switch r {
	case RoleStandard, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r AccountRole) String() string {
	return string(r)
}

// In reports whether r is a member of roles
func (r AccountRole) In(roles ...AccountRole) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []AccountRole {
	return []AccountRole{
		RoleStandard,
		RoleGuide,
		RoleLeadGuide,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into an AccountRole
func ParseRole(roleStr string) (AccountRole, bool) {
	role := AccountRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}

// SignupRole resolves the role requested during self-service signup.
// An empty or admin request falls back to RoleStandard.
func SignupRole(requested string) (AccountRole, bool) {
	if strings.TrimSpace(requested) == "" {
		return RoleStandard, true
	}

	role, ok := ParseRole(requested)
	if !ok {
		return "", false
	}

	if role == RoleAdmin {
		return RoleStandard, true
	}

	return role, true
}
