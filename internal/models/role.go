package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of principals the portal knows about.
type Role string

const (
	RoleStudent      Role = "student"
	RoleIntermediate Role = "intermediate" // triage: assigns or rejects open complaints
	RoleAdmin        Role = "admin"
	RoleSuperAdmin   Role = "superadmin"
)

// ErrUnknownRole is returned when a role string is not one of the known roles.
var ErrUnknownRole = errors.New("unknown role")

// AllRoles lists every role in a stable order.
var AllRoles = []Role{RoleStudent, RoleIntermediate, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleIntermediate, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// HomePath is the landing route for the role, "" for unknown roles.
func (r Role) HomePath() string {
	switch r {
	case RoleStudent:
		return "/student/home"
	case RoleIntermediate:
		return "/intermediate/complaints"
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleSuperAdmin:
		return "/superadmin/admins"
	default:
		return ""
	}
}

// ParseRole validates a role string coming from storage or the wire.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return r, nil
}
