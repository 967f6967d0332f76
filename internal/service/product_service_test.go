package service

import (
	"context"
	"testing"

	"rentloop/internal/models"
	"rentloop/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProductTestService(t *testing.T) (*ProductService, *gorm.DB, *stubAssetStore) {
	t.Helper()
	db := setupServiceTestDB(t)
	store := &stubAssetStore{}
	return NewProductService(db, store, notifications.NewNotifier(nil)), db, store
}

func createListing(t *testing.T, svc *ProductService, ownerID uint, title string) *models.Product {
	t.Helper()
	product, err := svc.Create(context.Background(), CreateProductInput{
		OwnerID:     ownerID,
		Title:       title,
		Description: "A well-kept item available for rent.",
		Images:      []string{"products/one.webp"},
		Categories:  []string{"tools"},
	})
	require.NoError(t, err)
	return product
}

func TestProductCreateIsAtomic(t *testing.T) {
	t.Parallel()
	svc, db, _ := newProductTestService(t)

	product := createListing(t, svc, 42, "Cordless Drill")

	require.NotNil(t, product.Description)
	require.NotNil(t, product.Verification)
	assert.Equal(t, "Cordless Drill", product.Description.Title)
	assert.Equal(t, models.VerificationStatusPending, product.Verification.Status)
	assert.Equal(t, models.ProductStatusAvailable, product.Status)

	// One row in each table, all linked to the product.
	for _, count := range []struct {
		model interface{}
		name  string
	}{
		{&models.Product{}, "products"},
		{&models.ProductDescription{}, "descriptions"},
		{&models.ProductVerification{}, "verifications"},
	} {
		var n int64
		require.NoError(t, db.Model(count.model).Count(&n).Error)
		assert.Equal(t, int64(1), n, count.name)
	}
}

func TestProductCreateValidation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newProductTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{OwnerID: 42, Title: "", Description: "desc"})
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.Create(ctx, CreateProductInput{OwnerID: 42, Title: "Drill", Description: "   "})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestProductUpdateResetsVerification(t *testing.T) {
	t.Parallel()
	svc, db, _ := newProductTestService(t)
	ctx := context.Background()

	product := createListing(t, svc, 42, "Cordless Drill")

	// Approve the listing first.
	_, err := svc.Review(ctx, product.ID, models.VerificationStatusVerified, "", 7)
	require.NoError(t, err)

	_, err = svc.Update(ctx, 42, product.ID, UpdateProductInput{Title: "Cordless Drill XL"})
	require.NoError(t, err)

	var verification models.ProductVerification
	require.NoError(t, db.Where("product_id = ?", product.ID).First(&verification).Error)
	assert.Equal(t, models.VerificationStatusPending, verification.Status, "content edits re-enter moderation")
	assert.Nil(t, verification.ReviewedBy)
	assert.Nil(t, verification.ReviewedAt)
	assert.Empty(t, verification.Notes)
}

func TestProductUpdateCategoriesKeepsVerification(t *testing.T) {
	t.Parallel()
	svc, db, _ := newProductTestService(t)
	ctx := context.Background()

	product := createListing(t, svc, 42, "Cordless Drill")
	_, err := svc.Review(ctx, product.ID, models.VerificationStatusVerified, "", 7)
	require.NoError(t, err)

	// Categories are not moderated content.
	_, err = svc.Update(ctx, 42, product.ID, UpdateProductInput{Categories: []string{"diy", "tools"}})
	require.NoError(t, err)

	var verification models.ProductVerification
	require.NoError(t, db.Where("product_id = ?", product.ID).First(&verification).Error)
	assert.Equal(t, models.VerificationStatusVerified, verification.Status)
}

func TestProductUpdateOwnership(t *testing.T) {
	t.Parallel()
	svc, _, _ := newProductTestService(t)
	ctx := context.Background()

	product := createListing(t, svc, 42, "Cordless Drill")

	_, err := svc.Update(ctx, 99, product.ID, UpdateProductInput{Title: "Stolen Drill"})
	assertAppErrorCode(t, err, models.CodeForbidden)

	_, err = svc.Update(ctx, 42, 9999, UpdateProductInput{Title: "Ghost Drill"})
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestProductUpdateStatus(t *testing.T) {
	t.Parallel()
	svc, _, _ := newProductTestService(t)
	ctx := context.Background()

	product := createListing(t, svc, 42, "Cordless Drill")

	updated, err := svc.UpdateStatus(ctx, 42, product.ID, models.ProductStatusRented)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusRented, updated.Status)

	_, err = svc.UpdateStatus(ctx, 42, product.ID, models.ProductStatus("broken"))
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.UpdateStatus(ctx, 99, product.ID, models.ProductStatusInactive)
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func TestProductDelete(t *testing.T) {
	t.Parallel()
	svc, db, store := newProductTestService(t)
	ctx := context.Background()

	product := createListing(t, svc, 42, "Cordless Drill")

	err := svc.Delete(ctx, 99, product.ID)
	assertAppErrorCode(t, err, models.CodeForbidden)

	require.NoError(t, svc.Delete(ctx, 42, product.ID))

	for _, model := range []interface{}{&models.Product{}, &models.ProductDescription{}, &models.ProductVerification{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Equal(t, int64(0), n)
	}
	assert.Contains(t, store.deleted, "products/one.webp")
}

func TestProductBrowse(t *testing.T) {
	t.Parallel()
	svc, _, _ := newProductTestService(t)
	ctx := context.Background()

	drill := createListing(t, svc, 42, "Cordless Drill")
	saw := createListing(t, svc, 42, "Table Saw")
	tent := createListing(t, svc, 43, "Camping Tent")

	// Only drill and saw pass moderation.
	_, err := svc.Review(ctx, drill.ID, models.VerificationStatusVerified, "", 7)
	require.NoError(t, err)
	_, err = svc.Review(ctx, saw.ID, models.VerificationStatusVerified, "", 7)
	require.NoError(t, err)
	_, err = svc.Review(ctx, tent.ID, models.VerificationStatusRejected, "photos do not match the item", 7)
	require.NoError(t, err)

	// Saw is verified but currently rented out.
	_, err = svc.UpdateStatus(ctx, 42, saw.ID, models.ProductStatusRented)
	require.NoError(t, err)

	listed, err := svc.Browse(ctx, "", "", 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1, "only verified and available products are public")
	assert.Equal(t, drill.ID, listed[0].ID)

	// Title search is case-insensitive.
	found, err := svc.Browse(ctx, "", "cordless", 10, 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	none, err := svc.Browse(ctx, "", "kayak", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	// Category filter.
	tools, err := svc.Browse(ctx, "tools", "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, tools, 1)
	garden, err := svc.Browse(ctx, "garden", "", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, garden)
}

func TestProductListByOwner(t *testing.T) {
	t.Parallel()
	svc, _, _ := newProductTestService(t)
	ctx := context.Background()

	createListing(t, svc, 42, "Cordless Drill")
	createListing(t, svc, 42, "Table Saw")
	createListing(t, svc, 43, "Camping Tent")

	mine, err := svc.ListByOwner(ctx, 42, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2, "owners see their listings regardless of status")
}

func TestProductReview(t *testing.T) {
	t.Parallel()
	svc, db, _ := newProductTestService(t)
	ctx := context.Background()

	product := createListing(t, svc, 42, "Cordless Drill")

	queue, err := svc.ListPendingReview(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, product.ID, queue[0].ProductID)

	_, err = svc.Review(ctx, product.ID, models.VerificationStatusRejected, "", 7)
	assertAppErrorCode(t, err, models.CodeValidation)

	reviewed, err := svc.Review(ctx, product.ID, models.VerificationStatusVerified, "all good", 7)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusVerified, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, uint(7), *reviewed.ReviewedBy)

	var audit models.AdminAction
	require.NoError(t, db.Where("action = ?", models.ActionProductReviewed).First(&audit).Error)
	assert.Equal(t, models.TargetTypeProduct, audit.TargetType)
	require.NotNil(t, audit.TargetID)
	assert.Equal(t, product.ID, *audit.TargetID)

	// Review is final until the listing changes.
	_, err = svc.Review(ctx, product.ID, models.VerificationStatusRejected, "second thoughts", 7)
	assertAppErrorCode(t, err, models.CodeConflict)

	_, err = svc.Review(ctx, 9999, models.VerificationStatusVerified, "", 7)
	assertAppErrorCode(t, err, models.CodeNotFound)
}
