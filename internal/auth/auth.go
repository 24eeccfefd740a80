// Package auth holds the authenticated-principal model, password hashing,
// and the identity resolver that verifies credentials against the store.
package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. Roles are disjoint; there is no
// hierarchy beyond the explicit rules in the authz package.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// ParseRole validates a role submitted at a boundary. Unknown values are
// rejected rather than stored.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Principal is the authenticated actor for one session. ProfileID links the
// identity to its Student or Teacher record and never changes after creation.
type Principal struct {
	IdentityID  int64 // credential record id; zero for demo principals
	Username    string
	DisplayName string
	Role        Role
	ProfileID   int64
}

func (p Principal) IsTeacher() bool {
	return p.Role == RoleTeacher
}

// IdentityKey identifies the principal for session-concurrency purposes.
// Demo principals have no credential record, so they key by display name.
func (p Principal) IdentityKey() string {
	if p.IdentityID == 0 {
		return "demo:" + strings.ToLower(strings.TrimSpace(p.DisplayName))
	}
	return fmt.Sprintf("user:%d", p.IdentityID)
}

// NormalizeUsername canonicalizes a submitted username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
