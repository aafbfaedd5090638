// Package service implements the blog's business rules on top of the
// repositories.
package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"blog/internal/auth"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/notifications"
	"blog/internal/repository"
)

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// EventPublisher receives domain events after successful mutations.
type EventPublisher interface {
	Publish(ctx context.Context, ev notifications.Event) error
}

// Clock returns the current time at database precision.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// resolvePrincipal loads the user behind p. A token for a user that no
// longer exists yields NotFound "User not found".
func resolvePrincipal(ctx context.Context, users repository.UserRepository, p auth.Principal) (*models.User, error) {
	user, err := users.GetByUsername(ctx, p.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}
	return user, nil
}

func publish(ctx context.Context, pub EventPublisher, ev notifications.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("type", ev.Type), slog.String("error", err.Error()))
	}
}
