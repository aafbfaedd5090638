package middleware

import (
	"context"
	"log/slog"
	"strings"

	"blog/internal/auth"
	"blog/internal/models"
	"blog/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// PrincipalLocal is the Fiber locals key holding the request's auth.Principal.
const PrincipalLocal = "principal"

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RevocationChecker reports tokens revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

func unauthenticated(c *fiber.Ctx, reason, message string) error {
	observability.AuthFailures.WithLabelValues(reason).Inc()
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewAuthenticationError(message))
}

// bearerToken returns the token from "Authorization: Bearer <token>" or,
// when allowQuery is set, from the token query parameter.
func bearerToken(c *fiber.Ctx, allowQuery bool) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		if allowQuery {
			if t := c.Query("token"); t != "" {
				return t, true
			}
		}
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return parts[1], true
}

// Authenticate resolves an optional bearer token into a Principal. Requests
// without a token continue anonymously; a token that is present but invalid
// or revoked is rejected with 401. WebSocket upgrades may pass the token as
// the token query parameter.
func Authenticate(tokens TokenParser, revocations RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, present := bearerToken(c, strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket"))
		if !present {
			return c.Next()
		}
		if raw == "" {
			return unauthenticated(c, "malformed_header", "Invalid authorization header format")
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			return unauthenticated(c, "invalid_token", "Invalid or expired token")
		}
		p, err := claims.Principal()
		if err != nil {
			return unauthenticated(c, "invalid_token", "Invalid or expired token")
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.UserContext(), p.TokenID)
			if err != nil {
				Logger.WarnContext(c.UserContext(), "token revocation check failed", slog.String("error", err.Error()))
			}
			if revoked {
				return unauthenticated(c, "revoked_token", "Token has been revoked")
			}
		}

		c.Locals(PrincipalLocal, p)
		c.Locals("userID", p.UserID.String())
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, p.UserID.String()))
		return c.Next()
	}
}

// PrincipalFrom returns the Principal stored by Authenticate.
func PrincipalFrom(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(PrincipalLocal).(auth.Principal)
	return p, ok
}

// Authorize enforces the route policy. Anonymous callers of a gated route
// get 401, authenticated callers without the role get 403.
func Authorize(authorizer *auth.Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var principal *auth.Principal
		if p, ok := PrincipalFrom(c); ok {
			principal = &p
		}

		switch authorizer.Authorize(principal, c.Method(), c.Path()) {
		case auth.DenyUnauthenticated:
			return unauthenticated(c, "anonymous", "Authentication required")
		case auth.DenyForbidden:
			observability.AuthFailures.WithLabelValues("forbidden").Inc()
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewForbiddenError("Access denied"))
		}
		return c.Next()
	}
}
