package server

import (
	"log"

	"rentloop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// AdminEventFeedHandler upgrades the connection and streams moderation events
// to the authenticated admin. Auth and principal loading run earlier in the
// chain; by the time the upgrade happens the principal is in Locals.
func (s *Server) AdminEventFeedHandler() fiber.Handler {
	wsHandler := websocket.New(func(conn *websocket.Conn) {
		admin, ok := conn.Locals("principal").(*models.Admin)
		if !ok {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "admin account required"))
			_ = conn.Close()
			return
		}

		client, err := s.feedHub.Register(admin.ID, conn)
		if err != nil {
			log.Printf("feed registration refused for admin %d: %v", admin.ID, err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		admin, err := currentAdmin(c)
		if err != nil {
			return respondError(c, err)
		}
		// Per-admin rollout flag; ships enabled when unconfigured.
		if !s.featureFlags.EnabledOr("event_feed", admin.ID, true) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Event feed is temporarily disabled",
			})
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return wsHandler(c)
	}
}
