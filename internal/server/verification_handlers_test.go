package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rentloop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitDocuments(t *testing.T, app *fiber.App, token string, files int) *http.Response {
	t.Helper()
	body, contentType := multipartUpload(t, "images", files)
	req := httptest.NewRequest(http.MethodPost, "/api/verification", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return doRequest(t, app, req)
}

func TestSubmitVerification(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	token := issueToken(t, s, user)

	resp := submitDocuments(t, app, token, 2)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var verification models.UserVerification
	decodeBody(t, resp, &verification)
	assert.Equal(t, models.VerificationStatusPending, verification.Status)
	assert.Len(t, verification.ImagePathList(), 2)

	// Second submission while one is pending conflicts.
	resp = submitDocuments(t, app, token, 1)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitVerificationImageCount(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	token := issueToken(t, s, user)

	resp := submitDocuments(t, app, token, 4)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// No multipart body at all.
	resp = doRequest(t, app, authedJSONRequest(http.MethodPost, "/api/verification", token, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestVerificationStatusEndpoint(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	token := issueToken(t, s, user)

	// Nothing submitted yet.
	resp := doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/verification/status", token, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	submitDocuments(t, app, token, 1)

	resp = doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/verification/status", token, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var verification models.UserVerification
	decodeBody(t, resp, &verification)
	assert.Equal(t, models.VerificationStatusPending, verification.Status)
}

func TestReviewVerificationFlow(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	userToken := issueToken(t, s, user)
	admin := seedAdmin(t, s, models.AdminRoleModerator, models.AdminStatusActive)
	adminToken := issueToken(t, s, admin)

	resp := submitDocuments(t, app, userToken, 1)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var submitted models.UserVerification
	decodeBody(t, resp, &submitted)

	// Pending queue shows the submission.
	resp = doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/admin/verifications/pending", adminToken, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []models.UserVerification
	decodeBody(t, resp, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, submitted.ID, pending[0].ID)

	// Rejection without notes fails.
	reviewPath := "/api/admin/verifications/" + itoa(submitted.ID) + "/review"
	resp = doRequest(t, app, authedJSONRequest(http.MethodPost, reviewPath, adminToken, fiber.Map{
		"verification_status": "rejected",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Approval sticks and shows up in the user's status.
	resp = doRequest(t, app, authedJSONRequest(http.MethodPost, reviewPath, adminToken, fiber.Map{
		"verification_status": "verified",
		"notes":               "documents look good",
	}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/verification/status", userToken, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status models.UserVerification
	decodeBody(t, resp, &status)
	assert.Equal(t, models.VerificationStatusVerified, status.Status)

	// A second review of the same record conflicts.
	resp = doRequest(t, app, authedJSONRequest(http.MethodPost, reviewPath, adminToken, fiber.Map{
		"verification_status": "rejected",
		"notes":               "changed my mind",
	}))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestResubmitVerification(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	userToken := issueToken(t, s, user)
	admin := seedAdmin(t, s, models.AdminRoleModerator, models.AdminStatusActive)
	adminToken := issueToken(t, s, admin)

	resp := submitDocuments(t, app, userToken, 1)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var submitted models.UserVerification
	decodeBody(t, resp, &submitted)

	resp = doRequest(t, app, authedJSONRequest(http.MethodPost,
		"/api/admin/verifications/"+itoa(submitted.ID)+"/review", adminToken, fiber.Map{
			"verification_status": "rejected",
			"notes":               "document photo is unreadable",
		}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, contentType := multipartUpload(t, "images", 2)
	req := httptest.NewRequest(http.MethodPost, "/api/verification/resubmit", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var resubmitted models.UserVerification
	decodeBody(t, resp, &resubmitted)
	assert.Equal(t, submitted.ID, resubmitted.ID)
	assert.Equal(t, models.VerificationStatusPending, resubmitted.Status)
	assert.Empty(t, resubmitted.Notes)
}

func TestResubmitWithoutRejection(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	token := issueToken(t, s, user)

	body, contentType := multipartUpload(t, "images", 1)
	req := httptest.NewRequest(http.MethodPost, "/api/verification/resubmit", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModerationRoutesRejectUsers(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	token := issueToken(t, s, user)

	resp := doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/admin/verifications/pending", token, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerificationRequirements(t *testing.T) {
	s, app := newTestServer(t)
	user := seedUser(t, s, models.UserRoleSeller)
	token := issueToken(t, s, user)

	resp := doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/verification/requirements", token, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Type      string `json:"type"`
		MaxImages int    `json:"max_images"`
		Verified  bool   `json:"verified"`
		Message   string `json:"message"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "national_id", body.Type)
	assert.Equal(t, 3, body.MaxImages)
	assert.False(t, body.Verified)
	assert.Contains(t, body.Message, "national ID")

	verifyUser(t, s, user.ID)
	resp = doRequest(t, app, authedJSONRequest(http.MethodGet, "/api/verification/requirements", token, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.True(t, body.Verified)
}
