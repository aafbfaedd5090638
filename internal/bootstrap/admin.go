// Package bootstrap prepares runtime state that must exist before the
// server accepts requests.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blog/internal/config"
	"blog/internal/middleware"
	"blog/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultAdminUsername = "admin"

// EnsureDevAdmin creates or promotes the development admin account. It does
// nothing outside development or when no password is configured.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || cfg.DevAdminPassword == "" {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = defaultAdminUsername
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("username = ?", username).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				LastName:    "Admin",
				FirstName:   "Blog",
				Username:    username,
				Email:       username + "@blog.local",
				Password:    string(hashed),
				Categories:  []string{},
				Role:        models.RoleAdmin,
				CreatedDate: time.Now().UTC().Truncate(time.Microsecond),
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		case admin.Role != models.RoleAdmin:
			return tx.Model(&admin).Update("role", models.RoleAdmin).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure dev admin: %w", err)
	}

	middleware.Logger.Info("development admin ensured", slog.String("username", username))
	return nil
}
