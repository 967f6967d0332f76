package server

import (
	"io"

	"rentloop/internal/authz"
	"rentloop/internal/models"
	"rentloop/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// collectDocumentUploads reads the multipart "images" field (1 to 3 files),
// stores each document through the asset store, and returns the stored paths.
// Files saved before a later failure are cleaned up.
func (s *Server) collectDocumentUploads(c *fiber.Ctx, userID uint) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Multipart form with document images is required")
	}

	files := form.File["images"]
	if len(files) == 0 || len(files) > validation.MaxVerificationImages {
		return nil, models.NewValidationError("Between 1 and 3 document images are required")
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			s.assetStore.DeleteAll(paths)
			return nil, models.NewValidationError("Unable to read uploaded file")
		}
		content, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			s.assetStore.DeleteAll(paths)
			return nil, models.NewValidationError("Unable to read uploaded file")
		}

		path, err := s.assetStore.SaveDocument(c.UserContext(), userID, content, file.Header.Get("Content-Type"))
		if err != nil {
			s.assetStore.DeleteAll(paths)
			return nil, models.NewValidationError(err.Error())
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// SubmitVerification handles POST /api/verification
// @Summary Submit identity verification documents
// @Description Upload 1 to 3 document images to start identity review
// @Tags verification
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param images formData file true "Document images (1 to 3 files)"
// @Success 201 {object} models.UserVerification
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /verification [post]
func (s *Server) SubmitVerification(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	paths, err := s.collectDocumentUploads(c, user.ID)
	if err != nil {
		return respondError(c, err)
	}

	verification, err := s.verificationService.Submit(c.UserContext(), user.ID, paths)
	if err != nil {
		s.assetStore.DeleteAll(paths)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(verification)
}

// ResubmitVerification handles POST /api/verification/resubmit
// @Summary Resubmit identity documents after rejection
// @Tags verification
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param images formData file true "Document images (1 to 3 files)"
// @Success 200 {object} models.UserVerification
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /verification/resubmit [post]
func (s *Server) ResubmitVerification(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	paths, err := s.collectDocumentUploads(c, user.ID)
	if err != nil {
		return respondError(c, err)
	}

	verification, err := s.verificationService.Resubmit(c.UserContext(), user.ID, paths)
	if err != nil {
		s.assetStore.DeleteAll(paths)
		return respondError(c, err)
	}

	return c.JSON(verification)
}

// GetVerificationRequirements handles GET /api/verification/requirements
// @Summary Describe the identity verification process
// @Tags verification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{type=string,min_images=int,max_images=int,accepted_formats=[]string,verified=bool,message=string}
// @Router /verification/requirements [get]
func (s *Server) GetVerificationRequirements(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	verified, err := s.verificationService.IsUserVerified(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	user.IdentityVerified = verified

	message := "Submit clear photos of your national ID to unlock selling and renting"
	if verified {
		message = "Your identity is verified"
	}

	return c.JSON(fiber.Map{
		"type":                models.VerificationTypeNationalID,
		"min_images":          1,
		"max_images":          validation.MaxVerificationImages,
		"accepted_formats":    []string{"image/jpeg", "image/png", "image/webp"},
		"verified":            verified,
		"can_rent":            authz.CanRentProducts(user),
		"can_manage_products": authz.CanManageProducts(user),
		"message":             message,
	})
}

// GetVerificationStatus handles GET /api/verification/status
// @Summary Get own verification status
// @Tags verification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserVerification
// @Failure 404 {object} models.ErrorResponse
// @Router /verification/status [get]
func (s *Server) GetVerificationStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	verification, err := s.verificationService.StatusFor(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(verification)
}
