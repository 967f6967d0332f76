package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentloop/internal/models"
	"rentloop/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.AdminAction{},
		&models.UserVerification{},
		&models.Product{},
		&models.ProductDescription{},
		&models.ProductVerification{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

// stubAssetStore records deletions so tests can assert cleanup side effects.
type stubAssetStore struct {
	deleted []string
}

func (s *stubAssetStore) SaveDocument(_ context.Context, _ uint, _ []byte, _ string) (string, error) {
	return "documents/stub.webp", nil
}

func (s *stubAssetStore) SaveProductImage(_ context.Context, _ uint, _ []byte, _ string) (string, error) {
	return "products/stub.webp", nil
}

func (s *stubAssetStore) Delete(relPath string) error {
	s.deleted = append(s.deleted, relPath)
	return nil
}

func (s *stubAssetStore) DeleteAll(relPaths []string) {
	s.deleted = append(s.deleted, relPaths...)
}

func (s *stubAssetStore) URL(relPath string) string { return "/assets/" + relPath }

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func newVerificationService(db *gorm.DB, store *stubAssetStore) *VerificationService {
	return NewVerificationService(db, store, notifications.NewNotifier(nil))
}

func TestVerificationSubmit(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	v, err := svc.Submit(ctx, 42, []string{"documents/front.webp", "documents/back.webp"})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusPending, v.Status)
	assert.Equal(t, models.VerificationTypeNationalID, v.Type)
	assert.Equal(t, []string{"documents/front.webp", "documents/back.webp"}, v.ImagePathList())
	assert.False(t, v.SubmittedAt.IsZero())
	assert.Nil(t, v.ReviewedBy)
}

func TestVerificationSubmitValidatesImages(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, 42, nil)
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.Submit(ctx, 42, []string{"a", "b", "c", "d"})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestVerificationSubmitConflicts(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	v, err := svc.Submit(ctx, 42, []string{"documents/a.webp"})
	require.NoError(t, err)

	// Pending record blocks a second submission.
	_, err = svc.Submit(ctx, 42, []string{"documents/b.webp"})
	assertAppErrorCode(t, err, models.CodeConflict)
	assert.Contains(t, err.Error(), "pending")

	// A rejected record still conflicts; resubmission is the only way back.
	_, err = svc.Review(ctx, v.ID, models.VerificationStatusRejected, "document is blurry", 7)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 42, []string{"documents/b.webp"})
	assertAppErrorCode(t, err, models.CodeConflict)
	assert.Contains(t, err.Error(), "resubmit")

	// A verified record conflicts too.
	_, err = svc.Resubmit(ctx, 42, []string{"documents/c.webp"})
	require.NoError(t, err)
	reloaded, err := svc.StatusFor(ctx, 42)
	require.NoError(t, err)
	_, err = svc.Review(ctx, reloaded.ID, models.VerificationStatusVerified, "", 7)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 42, []string{"documents/d.webp"})
	assertAppErrorCode(t, err, models.CodeConflict)
	assert.Contains(t, err.Error(), "already verified")

	// Other users are unaffected.
	_, err = svc.Submit(ctx, 43, []string{"documents/other.webp"})
	assert.NoError(t, err)
}

func TestVerificationSchemaRejectsSecondRow(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, 42, []string{"documents/front.webp"})
	require.NoError(t, err)

	// The unique index backs up the service-level conflict check, so even a
	// writer that skips the service cannot create a second (user, type) row.
	dup := models.UserVerification{
		UserID:      42,
		Type:        models.VerificationTypeNationalID,
		Status:      models.VerificationStatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, dup.SetImagePaths([]string{"documents/back.webp"}))
	assert.Error(t, db.Create(&dup).Error)
}

func TestVerificationReview(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	v, err := svc.Submit(ctx, 42, []string{"documents/a.webp"})
	require.NoError(t, err)

	reviewed, err := svc.Review(ctx, v.ID, models.VerificationStatusVerified, "looks good", 7)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusVerified, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, uint(7), *reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, "looks good", reviewed.Notes)

	// The decision is audited in the same transaction.
	var audit models.AdminAction
	require.NoError(t, db.Where("action = ?", models.ActionVerificationReviewed).First(&audit).Error)
	assert.Equal(t, uint(7), audit.AdminID)
	assert.Equal(t, models.TargetTypeUserVerification, audit.TargetType)
	require.NotNil(t, audit.TargetID)
	assert.Equal(t, v.ID, *audit.TargetID)

	// Reviews are final; the record must be pending.
	_, err = svc.Review(ctx, v.ID, models.VerificationStatusRejected, "changed my mind", 7)
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestVerificationReviewInputs(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	v, err := svc.Submit(ctx, 42, []string{"documents/a.webp"})
	require.NoError(t, err)

	_, err = svc.Review(ctx, v.ID, models.VerificationStatus("pending"), "", 7)
	assertAppErrorCode(t, err, models.CodeValidation)

	// Rejection without notes is refused.
	_, err = svc.Review(ctx, v.ID, models.VerificationStatusRejected, "", 7)
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.Review(ctx, 9999, models.VerificationStatusVerified, "", 7)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestVerificationResubmit(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	store := &stubAssetStore{}
	svc := newVerificationService(db, store)
	ctx := context.Background()

	// No record at all.
	_, err := svc.Resubmit(ctx, 42, []string{"documents/new.webp"})
	assertAppErrorCode(t, err, models.CodeNotFound)

	v, err := svc.Submit(ctx, 42, []string{"documents/old.webp"})
	require.NoError(t, err)

	// Pending records cannot be resubmitted.
	_, err = svc.Resubmit(ctx, 42, []string{"documents/new.webp"})
	assertAppErrorCode(t, err, models.CodeNotFound)

	_, err = svc.Review(ctx, v.ID, models.VerificationStatusRejected, "document is blurry", 7)
	require.NoError(t, err)

	resubmitted, err := svc.Resubmit(ctx, 42, []string{"documents/new.webp"})
	require.NoError(t, err)

	// Same row reused with review fields cleared.
	assert.Equal(t, v.ID, resubmitted.ID)
	assert.Equal(t, models.VerificationStatusPending, resubmitted.Status)
	assert.Empty(t, resubmitted.Notes)
	assert.Nil(t, resubmitted.ReviewedBy)
	assert.Nil(t, resubmitted.ReviewedAt)
	assert.Equal(t, []string{"documents/new.webp"}, resubmitted.ImagePathList())

	// Old document assets are cleaned up.
	assert.Equal(t, []string{"documents/old.webp"}, store.deleted)

	var stored models.UserVerification
	require.NoError(t, db.First(&stored, v.ID).Error)
	assert.Equal(t, models.VerificationStatusPending, stored.Status)
	assert.Nil(t, stored.ReviewedBy)
	assert.Nil(t, stored.ReviewedAt)

	var count int64
	require.NoError(t, db.Model(&models.UserVerification{}).Where("user_id = ?", 42).Count(&count).Error)
	assert.Equal(t, int64(1), count, "resubmission must not create a second row")
}

func TestVerificationListOrdering(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, userID := range []uint{1, 2, 3} {
		v := models.UserVerification{
			UserID:      userID,
			Type:        models.VerificationTypeNationalID,
			Status:      models.VerificationStatusPending,
			SubmittedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, v.SetImagePaths([]string{"documents/x.webp"}))
		require.NoError(t, db.Create(&v).Error)
	}

	pending, err := svc.ListPending(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, uint(1), pending[0].UserID, "pending queue is oldest first")
	assert.Equal(t, uint(3), pending[2].UserID)

	all, err := svc.ListAll(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint(3), all[0].UserID, "full listing is newest first")

	filtered, err := svc.ListAll(ctx, models.VerificationStatusVerified, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestIsUserVerified(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newVerificationService(db, &stubAssetStore{})
	ctx := context.Background()

	verified, err := svc.IsUserVerified(ctx, 42)
	require.NoError(t, err)
	assert.False(t, verified, "no record means not verified")

	v, err := svc.Submit(ctx, 42, []string{"documents/a.webp"})
	require.NoError(t, err)

	verified, err = svc.IsUserVerified(ctx, 42)
	require.NoError(t, err)
	assert.False(t, verified, "pending is not verified")

	_, err = svc.Review(ctx, v.ID, models.VerificationStatusVerified, "", 7)
	require.NoError(t, err)

	verified, err = svc.IsUserVerified(ctx, 42)
	require.NoError(t, err)
	assert.True(t, verified)
}
