package server

import (
	"rentloop/internal/authz"
	"rentloop/internal/models"
	"rentloop/internal/service"

	"github.com/gofiber/fiber/v2"
)

// requireSeller checks that the authenticated user may manage listings.
func requireSeller(c *fiber.Ctx) (*models.User, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageProducts(user) {
		return nil, models.NewForbiddenError("Identity verification required to manage listings")
	}
	return user, nil
}

// BrowseProducts handles GET /api/products
// @Summary Browse the public catalog
// @Description List approved, available listings with optional category filter
// @Tags products
// @Produce json
// @Param category query string false "Category filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Product
// @Router /products [get]
func (s *Server) BrowseProducts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	products, err := s.productService.Browse(c.UserContext(), c.Query("category"), "", page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// BrowseCategory handles GET /api/products/categories/:category
// @Summary Browse a category
// @Tags products
// @Produce json
// @Param category path string true "Category name"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Product
// @Router /products/categories/{category} [get]
func (s *Server) BrowseCategory(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	products, err := s.productService.Browse(c.UserContext(), c.Params("category"), "", page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// SearchProducts handles GET /api/products/search
// @Summary Search the public catalog
// @Tags products
// @Produce json
// @Param q query string true "Search term"
// @Param category query string false "Category filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Product
// @Failure 422 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /products/search [get]
func (s *Server) SearchProducts(c *fiber.Ctx) error {
	// Operational kill switch. Search runs unauthenticated, so this is an
	// all-or-nothing flag rather than a per-account rollout.
	if !s.featureFlags.EnabledOr("listing_search", 0, true) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Search is temporarily disabled",
		})
	}

	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity,
			models.NewValidationError("Search query is required"))
	}

	page := parsePagination(c, 20)
	products, err := s.productService.Browse(c.UserContext(), c.Query("category"), query, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// GetProduct handles GET /api/products/:id
// @Summary Get a single listing
// @Description Unapproved or unavailable listings are hidden from the public
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (s *Server) GetProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	product, err := s.productService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	// The public catalog only shows approved, available listings. Owners see
	// their own listings regardless.
	visible := product.Status == models.ProductStatusAvailable &&
		product.Verification != nil && product.Verification.IsVerified()
	if !visible {
		owner := false
		if principal, perr := s.loadPrincipal(c); perr == nil {
			if user, ok := principal.(*models.User); ok && product.IsOwner(user.ID) {
				owner = true
			}
		}
		if !owner {
			return respondError(c, models.NewNotFoundError("product", id))
		}
	}

	return c.JSON(product)
}

// GetMyProducts handles GET /api/users/me/products
// @Summary List own listings
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Product
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me/products [get]
func (s *Server) GetMyProducts(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	page := parsePagination(c, 20)
	products, err := s.productService.ListByOwner(c.UserContext(), user.ID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// CreateProduct handles POST /api/products
// @Summary Create a listing
// @Description Create a listing; it enters the moderation queue before appearing publicly
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,description=string,images=[]string,categories=[]string} true "Listing content"
// @Success 201 {object} models.Product
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /products [post]
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	user, err := requireSeller(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Images      []string `json:"images"`
		Categories  []string `json:"categories"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	product, err := s.productService.Create(c.UserContext(), service.CreateProductInput{
		OwnerID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
		Categories:  req.Categories,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// UploadProductImage handles POST /api/products/images
// @Summary Upload a product photo
// @Description Store a photo and return its path for use in a listing
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Product photo"
// @Success 201 {object} object{path=string,url=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /products/images [post]
func (s *Server) UploadProductImage(c *fiber.Ctx) error {
	user, err := requireSeller(c)
	if err != nil {
		return respondError(c, err)
	}

	content, contentType, err := readUploadedFile(c, "image")
	if err != nil {
		return respondError(c, err)
	}

	path, err := s.assetStore.SaveProductImage(c.UserContext(), user.ID, content, contentType)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity,
			models.NewValidationError(err.Error()))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"path": path,
		"url":  s.assetStore.URL(path),
	})
}

// UpdateProduct handles PUT /api/products/:id
// @Summary Update a listing
// @Description Content changes put the listing back into the moderation queue
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body object{title=string,description=string,images=[]string,categories=[]string} true "Updated content"
// @Success 200 {object} models.Product
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [put]
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	user, err := requireSeller(c)
	if err != nil {
		return respondError(c, err)
	}

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Images      []string `json:"images"`
		Categories  []string `json:"categories"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	product, err := s.productService.Update(c.UserContext(), user.ID, id, service.UpdateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
		Categories:  req.Categories,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(product)
}

// UpdateProductStatus handles PATCH /api/products/:id/status
// @Summary Change listing availability
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body object{status=string} true "New status (available, rented, inactive)"
// @Success 200 {object} models.Product
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /products/{id}/status [patch]
func (s *Server) UpdateProductStatus(c *fiber.Ctx) error {
	user, err := requireSeller(c)
	if err != nil {
		return respondError(c, err)
	}

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	product, err := s.productService.UpdateStatus(c.UserContext(), user.ID, id, models.ProductStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(product)
}

// DeleteProduct handles DELETE /api/products/:id
// @Summary Delete a listing
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [delete]
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	user, err := requireSeller(c)
	if err != nil {
		return respondError(c, err)
	}

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.productService.Delete(c.UserContext(), user.ID, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GetPendingProducts handles GET /api/admin/products/pending
// @Summary List listings awaiting review
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.ProductVerification
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/products/pending [get]
func (s *Server) GetPendingProducts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	pending, err := s.productService.ListPendingReview(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pending)
}

// ReviewProduct handles POST /api/admin/products/:id/review
// @Summary Review a listing
// @Description Approve or reject a pending listing; rejection requires notes
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body object{verification_status=string,notes=string} true "Review decision"
// @Success 200 {object} models.ProductVerification
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/products/{id}/review [post]
func (s *Server) ReviewProduct(c *fiber.Ctx) error {
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

	verification, err := s.productService.Review(c.UserContext(), id,
		models.VerificationStatus(req.VerificationStatus), req.Notes, admin.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(verification)
}
