package server

import (
	"rentloop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAdmins handles GET /api/admin/admins
// @Summary List admin accounts
// @Tags admin-lifecycle
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter (pending, active, banned)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Admin
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/admins [get]
func (s *Server) GetAdmins(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	admins, err := s.adminService.List(c.UserContext(),
		models.AdminStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(admins)
}

// ApproveAdmin handles POST /api/admin/admins/:id/approve
// @Summary Approve a pending admin
// @Tags admin-lifecycle
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Success 200 {object} models.Admin
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/admins/{id}/approve [post]
func (s *Server) ApproveAdmin(c *fiber.Ctx) error {
	actor, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	admin, err := s.adminService.Approve(c.UserContext(), actor.ID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(admin)
}

// RejectAdmin handles POST /api/admin/admins/:id/reject
// @Summary Reject a pending admin
// @Description Permanently deny a pending registration; requires a reason
// @Tags admin-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Param request body object{reason=string} true "Rejection reason (min 10 characters)"
// @Success 200 {object} models.Admin
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/admins/{id}/reject [post]
func (s *Server) RejectAdmin(c *fiber.Ctx) error {
	actor, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	admin, err := s.adminService.Reject(c.UserContext(), actor.ID, id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(admin)
}

// BanAdmin handles POST /api/admin/admins/:id/ban
// @Summary Ban an admin
// @Description Revokes all of the target's sessions before the ban lands
// @Tags admin-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Param request body object{reason=string} true "Ban reason (min 10 characters)"
// @Success 200 {object} models.Admin
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/admins/{id}/ban [post]
func (s *Server) BanAdmin(c *fiber.Ctx) error {
	actor, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	admin, err := s.adminService.Ban(c.UserContext(), actor.ID, id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(admin)
}

// UnbanAdmin handles POST /api/admin/admins/:id/unban
// @Summary Unban an admin
// @Tags admin-lifecycle
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Success 200 {object} models.Admin
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/admins/{id}/unban [post]
func (s *Server) UnbanAdmin(c *fiber.Ctx) error {
	actor, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	admin, err := s.adminService.Unban(c.UserContext(), actor.ID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(admin)
}

// DeleteAdmin handles DELETE /api/admin/admins/:id
// @Summary Delete an admin account
// @Tags admin-lifecycle
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Success 204 "Admin deleted"
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/admins/{id} [delete]
func (s *Server) DeleteAdmin(c *fiber.Ctx) error {
	actor, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.adminService.Delete(c.UserContext(), actor.ID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetAdminActions handles GET /api/admin/actions
// @Summary List the moderation audit trail
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param admin_id query int false "Filter by acting admin"
// @Param target_type query string false "Filter by target type (with target_id)"
// @Param target_id query int false "Filter by target ID (with target_type)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.AdminAction
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/actions [get]
func (s *Server) GetAdminActions(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	if adminID := c.QueryInt("admin_id", 0); adminID > 0 {
		actions, err := s.actionRepo.ListByAdmin(c.UserContext(), uint(adminID), page.Limit, page.Offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(actions)
	}

	targetType := c.Query("target_type")
	targetID := c.QueryInt("target_id", 0)
	if targetType != "" && targetID > 0 {
		actions, err := s.actionRepo.ListByTarget(c.UserContext(), targetType, uint(targetID), page.Limit, page.Offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(actions)
	}

	actions, err := s.actionRepo.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(actions)
}

// GetStatistics handles GET /api/admin/statistics
// @Summary Back-office dashboard statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Statistics
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/statistics [get]
func (s *Server) GetStatistics(c *fiber.Ctx) error {
	stats, err := s.adminService.GetStatistics(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
