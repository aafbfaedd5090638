package server

import (
	"log/slog"

	"blog/internal/middleware"
	"blog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RequireWebSocket rejects plain HTTP requests and anonymous callers before
// the upgrade.
func (s *Server) RequireWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired, models.NewValidationError("WebSocket upgrade required"))
	}
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	c.Locals("username", p.Username)
	return c.Next()
}

// EventStreamHandler godoc
// @Summary Stream article and comment events
// @Description Pass the token as Authorization header or ?token= on the upgrade request.
// @Tags events
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/events [get]
func (s *Server) EventStreamHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		username, _ := conn.Locals("username").(string)

		client, err := s.hub.Register(conn)
		if err != nil {
			middleware.Logger.Warn("event stream refused",
				slog.String("username", username), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Info("event stream connected", slog.String("username", username))
		go client.WritePump()
		client.ReadPump()
		middleware.Logger.Info("event stream disconnected", slog.String("username", username))
	})
}
