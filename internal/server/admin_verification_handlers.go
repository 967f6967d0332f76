package server

import (
	"rentloop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPendingVerifications handles GET /api/admin/verifications/pending
// @Summary List identity submissions awaiting review
// @Description Oldest submissions first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.UserVerification
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/verifications/pending [get]
func (s *Server) GetPendingVerifications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	pending, err := s.verificationService.ListPending(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pending)
}

// GetAllVerifications handles GET /api/admin/verifications
// @Summary List identity submissions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter (pending, verified, rejected)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.UserVerification
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/verifications [get]
func (s *Server) GetAllVerifications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	verifications, err := s.verificationService.ListAll(c.UserContext(),
		models.VerificationStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(verifications)
}

// ReviewVerification handles POST /api/admin/verifications/:id/review
// @Summary Review an identity submission
// @Description Approve or reject a pending submission; rejection requires notes
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Verification ID"
// @Param request body object{verification_status=string,notes=string} true "Review decision"
// @Success 200 {object} models.UserVerification
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/verifications/{id}/review [post]
func (s *Server) ReviewVerification(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		VerificationStatus string `json:"verification_status"`
		Notes              string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	verification, err := s.verificationService.Review(c.UserContext(), id,
		models.VerificationStatus(req.VerificationStatus), req.Notes, admin.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(verification)
}
