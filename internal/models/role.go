package models

import "strings"

// Role is the authorization level of a user.
type Role string

const (
	RoleUser   Role = "USER"
	RoleAuthor Role = "AUTHOR"
	RoleAdmin  Role = "ADMIN"
)

// authorityPrefix is the wire prefix used in token authorities.
const authorityPrefix = "ROLE_"

// ParseRole accepts "ADMIN", "admin" and "ROLE_ADMIN" style values.
func ParseRole(raw string) (Role, bool) {
	r := strings.ToUpper(strings.TrimSpace(raw))
	r = strings.TrimPrefix(r, authorityPrefix)
	switch Role(r) {
	case RoleUser, RoleAuthor, RoleAdmin:
		return Role(r), true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAuthor, RoleAdmin:
		return true
	}
	return false
}

// Authority returns the token authority name, e.g. "ROLE_AUTHOR".
func (r Role) Authority() string {
	return authorityPrefix + string(r)
}
