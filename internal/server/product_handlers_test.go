package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rentloop/internal/featureflags"
	"rentloop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSeller creates an identity-verified seller plus a token.
func seedSeller(t *testing.T, s *Server) (*models.User, string) {
	t.Helper()
	user := seedUser(t, s, models.UserRoleSeller)
	verifyUser(t, s, user.ID)
	return user, issueToken(t, s, user)
}

func createTestListing(t *testing.T, app *fiber.App, token, title string) models.Product {
	t.Helper()
	resp := doRequest(t, app, authedJSONRequest(http.MethodPost, "/api/products", token, fiber.Map{
		"title":       title,
		"description": "A sturdy piece of rental equipment in great shape.",
		"images":      []string{"products/photo.webp"},
		"categories":  []string{"tools"},
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var product models.Product
	decodeBody(t, resp, &product)
	return product
}

func approveListing(t *testing.T, app *fiber.App, s *Server, productID uint) {
	t.Helper()
	admin := seedAdmin(t, s, models.AdminRoleModerator, models.AdminStatusActive)
	token := issueToken(t, s, admin)
	resp := doRequest(t, app, authedJSONRequest(http.MethodPost,
		"/api/admin/products/"+itoa(productID)+"/review", token, fiber.Map{
			"verification_status": "verified",
		}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateProductRequiresVerifiedSeller(t *testing.T) {
	s, app := newTestServer(t)

	// Unverified seller.
	unverified := seedUser(t, s, models.UserRoleSeller)
	token := issueToken(t, s, unverified)
	resp := doRequest(t, app, authedJSONRequest(http.MethodPost, "/api/products", token, fiber.Map{
		"title":       "Ladder",
		"description": "An aluminum extension ladder.",
	}))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Verified customer (wrong role).
	customer := seedUser(t, s, models.UserRoleCustomer)
	verifyUser(t, s, customer.ID)
	token = issueToken(t, s, customer)
	resp = doRequest(t, app, authedJSONRequest(http.MethodPost, "/api/products", token, fiber.Map{
		"title":       "Ladder",
		"description": "An aluminum extension ladder.",
	}))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateProduct(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)

	product := createTestListing(t, app, token, "Pressure Washer")
	assert.Equal(t, models.ProductStatusAvailable, product.Status)
	require.NotNil(t, product.Verification)
	assert.Equal(t, models.VerificationStatusPending, product.Verification.Status)
}

func TestProductVisibility(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	product := createTestListing(t, app, token, "Cement Mixer")

	// Unreviewed listings are hidden from the public catalog and detail page.
	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var listings []models.Product
	decodeBody(t, resp, &listings)
	assert.Empty(t, listings)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/"+itoa(product.ID), nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The owner still sees it.
	resp = doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/products/"+itoa(product.ID), token, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	approveListing(t, app, s, product.ID)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listings)
	require.Len(t, listings, 1)
	assert.Equal(t, product.ID, listings[0].ID)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/"+itoa(product.ID), nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchProducts(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	washer := createTestListing(t, app, token, "Pressure Washer")
	createTestListing(t, app, token, "Tile Saw")
	approveListing(t, app, s, washer.ID)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/search?q=washer", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var listings []models.Product
	decodeBody(t, resp, &listings)
	require.Len(t, listings, 1)
	assert.Equal(t, washer.ID, listings[0].ID)

	// Missing query.
	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/search", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSearchFlagDisablesSearch(t *testing.T) {
	s, app := newTestServer(t)
	s.featureFlags = featureflags.NewManager("listing_search=off")

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/search?q=washer", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// Browsing is unaffected by the search kill switch.
	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateProductResetsReview(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	product := createTestListing(t, app, token, "Generator")
	approveListing(t, app, s, product.ID)

	resp := doRequest(t, app, authedJSONRequest(http.MethodPut,
		"/api/products/"+itoa(product.ID), token, fiber.Map{
			"title": "Diesel Generator",
		}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Product
	decodeBody(t, resp, &updated)
	require.NotNil(t, updated.Verification)
	assert.Equal(t, models.VerificationStatusPending, updated.Verification.Status)
}

func TestUpdateProductOwnership(t *testing.T) {
	s, app := newTestServer(t)
	_, ownerToken := seedSeller(t, s)
	product := createTestListing(t, app, ownerToken, "Chainsaw")

	_, otherToken := seedSeller(t, s)
	resp := doRequest(t, app, authedJSONRequest(http.MethodPut,
		"/api/products/"+itoa(product.ID), otherToken, fiber.Map{
			"title": "Stolen Chainsaw",
		}))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateProductStatusEndpoint(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	product := createTestListing(t, app, token, "Trailer")

	resp := doRequest(t, app, authedJSONRequest(http.MethodPatch,
		"/api/products/"+itoa(product.ID)+"/status", token, fiber.Map{
			"status": "rented",
		}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Product
	decodeBody(t, resp, &updated)
	assert.Equal(t, models.ProductStatusRented, updated.Status)

	resp = doRequest(t, app, authedJSONRequest(http.MethodPatch,
		"/api/products/"+itoa(product.ID)+"/status", token, fiber.Map{
			"status": "bogus",
		}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteProductEndpoint(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	product := createTestListing(t, app, token, "Scaffolding")

	resp := doRequest(t, app, authedJSONRequest(http.MethodDelete,
		"/api/products/"+itoa(product.ID), token, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, authedJSONRequest(http.MethodGet,
		"/api/products/"+itoa(product.ID), token, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMyProducts(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	createTestListing(t, app, token, "Drill")
	createTestListing(t, app, token, "Sander")

	resp := doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/users/me/products", token, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listings []models.Product
	decodeBody(t, resp, &listings)
	assert.Len(t, listings, 2)
}

func TestUploadProductImage(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)

	body, contentType := multipartUpload(t, "image", 1)
	req := httptest.NewRequest(http.MethodPost, "/api/products/images", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Path string `json:"path"`
		URL  string `json:"url"`
	}
	decodeBody(t, resp, &result)
	assert.Contains(t, result.Path, "products/")
	assert.Contains(t, result.URL, "/assets/")
}

func TestGetProductInvalidID(t *testing.T) {
	_, app := newTestServer(t)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReviewProductRejection(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	product := createTestListing(t, app, token, "Jackhammer")

	admin := seedAdmin(t, s, models.AdminRoleModerator, models.AdminStatusActive)
	adminToken := issueToken(t, s, admin)

	// Rejection requires notes.
	resp := doRequest(t, app, authedJSONRequest(http.MethodPost,
		"/api/admin/products/"+itoa(product.ID)+"/review", adminToken, fiber.Map{
			"verification_status": "rejected",
		}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doRequest(t, app, authedJSONRequest(http.MethodPost,
		"/api/admin/products/"+itoa(product.ID)+"/review", adminToken, fiber.Map{
			"verification_status": "rejected",
			"notes":               "photos do not match the description",
		}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var verification models.ProductVerification
	decodeBody(t, resp, &verification)
	assert.Equal(t, models.VerificationStatusRejected, verification.Status)

	// Review is final.
	resp = doRequest(t, app, authedJSONRequest(http.MethodPost,
		"/api/admin/products/"+itoa(product.ID)+"/review", adminToken, fiber.Map{
			"verification_status": "verified",
		}))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPendingProductQueue(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)
	first := createTestListing(t, app, token, "Excavator")
	createTestListing(t, app, token, "Backhoe")

	admin := seedAdmin(t, s, models.AdminRoleModerator, models.AdminStatusActive)
	adminToken := issueToken(t, s, admin)

	resp := doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/admin/products/pending", adminToken, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var queue []models.ProductVerification
	decodeBody(t, resp, &queue)
	require.Len(t, queue, 2)
	// Oldest first.
	assert.Equal(t, first.ID, queue[0].ProductID)
}

func TestBrowseCategory(t *testing.T) {
	s, app := newTestServer(t)
	_, token := seedSeller(t, s)

	product := createTestListing(t, app, token, "Tile Saw")
	approveListing(t, app, s, product.ID)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/categories/tools", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []models.Product
	decodeBody(t, resp, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, product.ID, listed[0].ID)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/products/categories/vehicles", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listed)
	assert.Empty(t, listed)
}
