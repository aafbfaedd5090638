package server

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"blog/internal/auth"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// localDateTime is the zone-less form the original clients send.
const localDateTime = "2006-01-02T15:04:05"

// respondError renders err with the status derived from its code.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

// parseUUID reads a path parameter. On failure it writes 400 "Invalid <label>"
// and returns false.
func parseUUID(c *fiber.Ctx, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		_ = badRequest(c, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// parseBody decodes the JSON body into dst or writes 400.
func parseBody(c *fiber.Ctx, dst any) bool {
	if err := c.BodyParser(dst); err != nil {
		_ = badRequest(c, "Invalid request body")
		return false
	}
	return true
}

// requirePrincipal returns the caller or writes 401.
func requirePrincipal(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized, models.NewAuthenticationError("Authentication required"))
		return auth.Principal{}, false
	}
	return p, true
}

// queryInt parses an optional integer query parameter.
func queryInt(c *fiber.Ctx, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		_ = badRequest(c, "Invalid "+key)
		return 0, false
	}
	return v, true
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

// parseDateTime accepts RFC 3339 or a zone-less timestamp read as UTC.
func parseDateTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localDateTime, raw, time.UTC)
}

// readUpload opens the multipart "file" field. The caller closes the
// returned upload via the close func.
func readUpload(c *fiber.Ctx) (service.Upload, func(), bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		_ = badRequest(c, "File is required")
		return service.Upload{}, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		_ = respondError(c, models.NewInternalError("", err))
		return service.Upload{}, nil, false
	}
	return service.Upload{Filename: fh.Filename, Reader: f}, func() { _ = f.Close() }, true
}

// parseCrop reads the optional cropX, cropY, cropWidth, cropHeight and
// cropScale form values.
func parseCrop(c *fiber.Ctx) (models.CropMeta, bool) {
	var meta models.CropMeta
	fields := []struct {
		key string
		dst **float64
	}{
		{"cropX", &meta.X},
		{"cropY", &meta.Y},
		{"cropWidth", &meta.Width},
		{"cropHeight", &meta.Height},
		{"cropScale", &meta.Scale},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(c.FormValue(f.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			_ = badRequest(c, "Invalid "+f.key)
			return models.CropMeta{}, false
		}
		*f.dst = &v
	}
	return meta, true
}
