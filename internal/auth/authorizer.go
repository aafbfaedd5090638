package auth

import (
	"strings"

	"blog/internal/models"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	// DenyUnauthenticated means the route needs a role and no principal was given.
	DenyUnauthenticated
	// DenyForbidden means the principal's role is too low.
	DenyForbidden
)

// Rule gates Method+Pattern behind Role. An empty Role permits everyone.
// In patterns "*" matches one path segment and "**" any remaining segments.
// Literal segments match regardless of case.
type Rule struct {
	Method  string
	Pattern string
	Role    models.Role
}

// DefaultRules is the route policy of the API. Order matters: the first
// matching rule decides.
var DefaultRules = []Rule{
	{Method: "PUT", Pattern: "/articles/*/comments/*"},
	{Method: "DELETE", Pattern: "/articles/*/comments/*"},
	{Method: "GET", Pattern: "/articles/*/comments"},
	{Method: "POST", Pattern: "/articles/*/comments", Role: models.RoleUser},
	{Method: "DELETE", Pattern: "/articles/**", Role: models.RoleAdmin},
	{Method: "PUT", Pattern: "/articles/**", Role: models.RoleAuthor},
	{Method: "POST", Pattern: "/articles/**", Role: models.RoleAuthor},
	{Method: "PUT", Pattern: "/users/*/role", Role: models.RoleAdmin},
	{Method: "PUT", Pattern: "/users/*", Role: models.RoleUser},
	{Method: "POST", Pattern: "/users/*/upload-profile-picture", Role: models.RoleUser},
	{Method: "GET", Pattern: "/users", Role: models.RoleAdmin},
	{Method: "POST", Pattern: "/users/register"},
	{Method: "POST", Pattern: "/users/login"},
	{Method: "DELETE", Pattern: "/users/*", Role: models.RoleAdmin},
}

// Authorizer evaluates an ordered rule list. Unmatched requests are allowed.
type Authorizer struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	segments []string
}

func NewAuthorizer(rules []Rule) *Authorizer {
	a := &Authorizer{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		a.rules = append(a.rules, compiledRule{Rule: r, segments: splitPath(r.Pattern)})
	}
	return a
}

// Authorize decides whether p (nil when anonymous) may call method on path.
func (a *Authorizer) Authorize(p *Principal, method, path string) Decision {
	segments := splitPath(path)
	for _, r := range a.rules {
		if !strings.EqualFold(r.Method, method) || !matchSegments(r.segments, segments) {
			continue
		}
		switch {
		case r.Role == "":
			return Allow
		case p == nil:
			return DenyUnauthenticated
		case Satisfies(p.Role, r.Role):
			return Allow
		default:
			return DenyForbidden
		}
	}
	return Allow
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, path []string) bool {
	for i, seg := range pattern {
		if seg == "**" {
			return true
		}
		if i >= len(path) {
			return false
		}
		if seg != "*" && !strings.EqualFold(seg, path[i]) {
			return false
		}
	}
	return len(pattern) == len(path)
}
