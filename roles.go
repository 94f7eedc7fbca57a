package webcore

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest can view public content only
	RoleGuest UserRole = "guest"
	// RoleMember can view and edit their own records
	RoleMember UserRole = "member"
	// RoleAdmin can manage CRM records and dashboard content
	RoleAdmin UserRole = "admin"
	// RoleOwner can do everything, including destructive operations
	RoleOwner UserRole = "owner"
)

var roleRank = map[UserRole]int{
	RoleGuest:  0,
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// ParseRole validates a raw role string
func ParseRole(raw string) (UserRole, bool) {
	switch raw {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return raw, true
	default:
		return "", false
	}
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	_, ok := ParseRole(r)
	return ok
}

// RoleAtLeast checks if role meets the minimum required role level
func RoleAtLeast(role, minRole UserRole) bool {
	rank, ok := roleRank[role]
	if !ok {
		return false
	}
	minRank, ok := roleRank[minRole]
	if !ok {
		return false
	}
	return rank >= minRank
}
