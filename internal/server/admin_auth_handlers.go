package server

import (
	"rentloop/internal/models"
	"rentloop/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminRegister handles POST /api/admin/auth/register
// @Summary Register a moderator account
// @Description Create a moderator account pending super admin approval
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,password=string} true "Registration request"
// @Success 201 {object} object{message=string,admin=models.Admin}
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/auth/register [post]
func (s *Server) AdminRegister(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	admin, err := s.adminService.Register(c.UserContext(), service.RegisterAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	// No token: the account cannot sign in until a super admin approves it.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration received; account pending approval",
		"admin":   admin,
	})
}

// AdminLogin handles POST /api/admin/auth/login
// @Summary Admin login
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,admin=models.Admin}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/auth/login [post]
func (s *Server) AdminLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	token, admin, err := s.adminService.Login(c.UserContext(), service.AdminLoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"admin": admin,
	})
}

// AdminLogout handles POST /api/admin/auth/logout
// @Summary Admin logout
// @Description Record the logout; the token itself expires naturally
// @Tags admin-auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/auth/logout [post]
func (s *Server) AdminLogout(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.adminService.Logout(c.UserContext(), admin.ID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// AdminLogoutAll handles POST /api/admin/auth/logout-all
// @Summary Revoke all admin sessions
// @Tags admin-auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/auth/logout-all [post]
func (s *Server) AdminLogoutAll(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.adminService.LogoutAll(c.UserContext(), admin.ID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "All sessions revoked"})
}

// GetMyAdminProfile handles GET /api/admin/auth/me
// @Summary Get own admin profile
// @Tags admin-auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Admin
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/auth/me [get]
func (s *Server) GetMyAdminProfile(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(admin)
}
