package server

import (
	"io"

	"rentloop/internal/authz"
	"rentloop/internal/models"
	"rentloop/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{first_name=string,last_name=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 422 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    user.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondError(c, err)
	}
	updated.IdentityVerified = user.IdentityVerified

	return c.JSON(updated)
}

// UploadAvatar handles POST /api/users/me/avatar
// @Summary Upload profile avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} object{user=models.User,url=string}
// @Failure 422 {object} models.ErrorResponse
// @Router /users/me/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	content, contentType, err := readUploadedFile(c, "avatar")
	if err != nil {
		return respondError(c, err)
	}

	path, err := s.assetStore.SaveDocument(c.UserContext(), user.ID, content, contentType)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity,
			models.NewValidationError(err.Error()))
	}

	old := user.Avatar
	updated, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: user.ID,
		Avatar: path,
	})
	if err != nil {
		return respondError(c, err)
	}
	if old != "" && old != path {
		_ = s.assetStore.Delete(old)
	}
	updated.IdentityVerified = user.IdentityVerified

	return c.JSON(fiber.Map{
		"user": updated,
		"url":  s.assetStore.URL(path),
	})
}

// GetAllUsers handles GET /api/admin/users
// @Summary List user accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.userService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// AdminUpdateUser handles PUT /api/admin/users/:id
// @Summary Edit or disable a user account
// @Description Super admin only; deactivating revokes the user's sessions
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{first_name=string,last_name=string,active=bool} true "Account fields"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id} [put]
func (s *Server) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	principal, err := s.loadPrincipal(c)
	if err != nil {
		return respondError(c, err)
	}
	if !authz.ManageOwnProfile(principal, id) {
		return respondError(c, models.NewForbiddenError("Super admin access required"))
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Active    *bool  `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Active:    req.Active,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(updated)
}

// readUploadedFile reads a single multipart file field into memory and
// returns its bytes and declared content type.
func readUploadedFile(c *fiber.Ctx, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", models.NewValidationError("No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, "", models.NewValidationError("Unable to read uploaded file")
	}

	return content, file.Header.Get("Content-Type"), nil
}
