package domain

import "strings"

type Role string

const (
	// Student browses the catalog, enrolls and pays for courses
	RoleStudent Role = "student"
	// Mentor teaches courses once an admin has approved the account
	RoleMentor Role = "mentor"
	// Admin moderates accounts, approves mentors and manages the catalog
	RoleAdmin Role = "admin"
)

// Roles lists every role a dispatch table must cover.
var Roles = []Role{RoleStudent, RoleMentor, RoleAdmin}

func IsValidRole(r string) bool {
	return r == string(RoleStudent) || r == string(RoleMentor) || r == string(RoleAdmin)
}

// ParseRole normalizes r; ok is false for anything outside Roles.
func ParseRole(r string) (Role, bool) {
	r = strings.ToLower(strings.TrimSpace(r))
	if !IsValidRole(r) {
		return "", false
	}
	return Role(r), true
}

// RoleRank: bigger => higher privilege
func RoleRank(r Role) int {
	switch r {
	case RoleStudent:
		return 1
	case RoleMentor:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
