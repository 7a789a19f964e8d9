package model

import "strings"

// Role is the authorization level attached to every user.  It decides
// which API groups a user may reach and where the dashboard lands the
// user after login.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleDirector    Role = "DIRECTOR"
	RoleCoordinador Role = "COORDINADOR"
	RoleCapturador  Role = "CAPTURADOR"
)

// Roles lists every valid role in menu order.
var Roles = []Role{RoleAdmin, RoleDirector, RoleCoordinador, RoleCapturador}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDirector, RoleCoordinador, RoleCapturador:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
