// Package auth issues and checks bearer tokens, hashes passwords and
// decides which roles may call which routes.
package auth

import (
	"time"

	"blog/internal/models"

	"github.com/google/uuid"
)

// Principal is the authenticated identity behind a request.
type Principal struct {
	UserID    uuid.UUID
	Username  string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// implied lists, per role, every role it satisfies.
var implied = map[models.Role][]models.Role{
	models.RoleAdmin:  {models.RoleAdmin, models.RoleAuthor, models.RoleUser},
	models.RoleAuthor: {models.RoleAuthor, models.RoleUser},
	models.RoleUser:   {models.RoleUser},
}

var impliedSet = func() map[models.Role]map[models.Role]bool {
	out := make(map[models.Role]map[models.Role]bool, len(implied))
	for role, grants := range implied {
		set := make(map[models.Role]bool, len(grants))
		for _, g := range grants {
			set[g] = true
		}
		out[role] = set
	}
	return out
}()

// Satisfies reports whether have grants need under ADMIN > AUTHOR > USER.
func Satisfies(have, need models.Role) bool {
	return impliedSet[have][need]
}

// Authorities returns the token authorities for role, highest first,
// e.g. ["ROLE_AUTHOR", "ROLE_USER"].
func Authorities(role models.Role) []string {
	grants := implied[role]
	out := make([]string, 0, len(grants))
	for _, g := range grants {
		out = append(out, g.Authority())
	}
	return out
}

// roleFromAuthorities picks the highest role named in authorities.
func roleFromAuthorities(authorities []string) (models.Role, bool) {
	best := models.Role("")
	for _, a := range authorities {
		role, ok := models.ParseRole(a)
		if !ok {
			continue
		}
		if best == "" || Satisfies(role, best) {
			best = role
		}
	}
	return best, best != ""
}
