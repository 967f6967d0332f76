package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/admin/feature-flags
// @Summary Inspect configured feature flags
// @Description Raw flag configuration plus evaluation for an optional user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "Evaluate rollout flags for this user"
// @Success 200 {object} object{flags=map[string]string,evaluated=map[string]bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := uint(c.QueryInt("user_id", 0))
	return c.JSON(fiber.Map{
		"flags":     s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
