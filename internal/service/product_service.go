package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentloop/internal/assets"
	"rentloop/internal/cache"
	"rentloop/internal/models"
	"rentloop/internal/notifications"
	"rentloop/internal/observability"
	"rentloop/internal/validation"

	"gorm.io/gorm"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxProductImages     = 10
	maxCategories        = 5
)

// ProductService manages rental listings. A product, its description, and its
// verification record are created atomically; editing the listing content
// sends it back through moderation.
type ProductService struct {
	db       *gorm.DB
	store    assets.Store
	notifier *notifications.Notifier
}

// NewProductService returns a new ProductService.
func NewProductService(db *gorm.DB, store assets.Store, notifier *notifications.Notifier) *ProductService {
	return &ProductService{db: db, store: store, notifier: notifier}
}

// CreateProductInput is the input for creating a listing.
type CreateProductInput struct {
	OwnerID     uint
	Title       string
	Description string
	Images      []string
	Categories  []string
}

// UpdateProductInput is the input for editing a listing. Nil slices leave the
// stored value untouched; empty strings do the same for text fields.
type UpdateProductInput struct {
	Title       string
	Description string
	Images      []string
	Categories  []string
}

func validateListingContent(title, description string, images, categories []string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLength {
		return models.NewValidationError("Title is too long")
	}
	if strings.TrimSpace(description) == "" {
		return models.NewValidationError("Description is required")
	}
	if len(description) > maxDescriptionLength {
		return models.NewValidationError("Description is too long")
	}
	if len(images) > maxProductImages {
		return models.NewValidationError("Too many product images")
	}
	if len(categories) > maxCategories {
		return models.NewValidationError("Too many categories")
	}
	return nil
}

// Create creates the product, its description, and a pending verification
// record in one transaction. A listing is never visible to the public without
// a verification row attached.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if err := validateListingContent(in.Title, in.Description, in.Images, in.Categories); err != nil {
		return nil, err
	}

	product := &models.Product{
		OwnerID: in.OwnerID,
		Status:  models.ProductStatusAvailable,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return models.NewInternalError(err)
		}

		description := &models.ProductDescription{
			ProductID:   product.ID,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
		}
		if err := description.SetProductImages(in.Images); err != nil {
			return models.NewInternalError(err)
		}
		if err := description.SetCategories(in.Categories); err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Create(description).Error; err != nil {
			return models.NewInternalError(err)
		}

		verification := &models.ProductVerification{
			ProductID:   product.ID,
			Status:      models.VerificationStatusPending,
			SubmittedAt: time.Now().UTC(),
		}
		if err := tx.Create(verification).Error; err != nil {
			return models.NewInternalError(err)
		}

		product.Description = description
		product.Verification = verification
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.PublishAdminEvent(ctx, notifications.Event{
		Type:       notifications.EventProductSubmitted,
		ActorType:  "user",
		ActorID:    in.OwnerID,
		TargetType: models.TargetTypeProduct,
		TargetID:   product.ID,
	})

	return product, nil
}

// GetByID returns a product with its description and verification, cache-aside.
func (s *ProductService) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	key := cache.ProductKey(id)

	err := cache.AsideJSON(ctx, key, cache.ProductTTL, &product, func() error {
		err := s.db.WithContext(ctx).
			Preload("Description").
			Preload("Verification").
			First(&product, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Product", id)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update edits a listing's content. Changing title, description, or images
// resets the verification to pending inside the same transaction, so an
// edited listing can never keep a stale verified badge.
func (s *ProductService) Update(ctx context.Context, ownerID, productID uint, in UpdateProductInput) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Description").Preload("Verification").First(&product, productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Product", productID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if !product.IsOwner(ownerID) {
			return models.NewForbiddenError("You do not own this product")
		}
		if product.Description == nil || product.Verification == nil {
			return models.NewInternalError(errors.New("product is missing description or verification"))
		}

		description := product.Description
		contentChanged := false

		if in.Title != "" && in.Title != description.Title {
			description.Title = strings.TrimSpace(in.Title)
			contentChanged = true
		}
		if in.Description != "" && in.Description != description.Description {
			description.Description = in.Description
			contentChanged = true
		}
		if in.Images != nil {
			if err := description.SetProductImages(in.Images); err != nil {
				return models.NewInternalError(err)
			}
			contentChanged = true
		}
		if in.Categories != nil {
			if err := description.SetCategories(in.Categories); err != nil {
				return models.NewInternalError(err)
			}
		}

		if err := validateListingContent(description.Title, description.Description,
			description.ProductImageList(), description.CategoryList()); err != nil {
			return err
		}
		if err := tx.Save(description).Error; err != nil {
			return models.NewInternalError(err)
		}

		if contentChanged {
			verification := product.Verification
			verification.Status = models.VerificationStatusPending
			verification.Notes = ""
			verification.ReviewedBy = nil
			verification.ReviewedAt = nil
			verification.SubmittedAt = time.Now().UTC()
			if err := tx.Model(verification).
				Select("status", "notes", "reviewed_by", "reviewed_at", "submitted_at", "updated_at").
				Updates(verification).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateProduct(ctx, productID)
	return &product, nil
}

// UpdateStatus changes availability (available, rented, inactive) without
// touching the verification.
func (s *ProductService) UpdateStatus(ctx context.Context, ownerID, productID uint, status models.ProductStatus) (*models.Product, error) {
	switch status {
	case models.ProductStatusAvailable, models.ProductStatusRented, models.ProductStatusInactive:
	default:
		return nil, models.NewValidationError("Status must be 'available', 'rented', or 'inactive'")
	}

	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	product.Status = status
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("status", status).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateProduct(ctx, productID)
	return product, nil
}

// Delete removes a listing and its dependents, then cleans up image assets.
func (s *ProductService) Delete(ctx context.Context, ownerID, productID uint) error {
	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return err
	}

	var imagePaths []string
	if product.Description != nil {
		imagePaths = product.Description.ProductImageList()
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVerification{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductDescription{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Delete(&models.Product{}, productID).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.store != nil {
		s.store.DeleteAll(imagePaths)
	}
	cache.InvalidateProduct(ctx, productID)
	return nil
}

func (s *ProductService) loadOwned(ctx context.Context, ownerID, productID uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Description").
		Preload("Verification").
		First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Product", productID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !product.IsOwner(ownerID) {
		return nil, models.NewForbiddenError("You do not own this product")
	}
	return &product, nil
}

// Browse returns verified, available listings for the public catalog, newest
// first, optionally filtered by category and title search.
func (s *ProductService) Browse(ctx context.Context, category, search string, limit, offset int) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Joins("JOIN product_verifications pv ON pv.product_id = products.id").
		Joins("JOIN product_descriptions pd ON pd.product_id = products.id").
		Where("pv.status = ?", models.VerificationStatusVerified).
		Where("products.status = ?", models.ProductStatusAvailable)

	if search != "" {
		query = query.Where("LOWER(pd.title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if category != "" {
		// Categories are stored as a JSON array of strings.
		query = query.Where("pd.categories LIKE ?", `%"`+category+`"%`)
	}

	var products []models.Product
	if err := query.
		Order("products.created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Description").
		Preload("Verification").
		Find(&products).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

// ListByOwner returns all of a seller's listings regardless of status.
func (s *ProductService) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Description").
		Preload("Verification").
		Find(&products).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

// ListPendingReview returns the moderation queue, oldest submission first.
func (s *ProductService) ListPendingReview(ctx context.Context, limit, offset int) ([]models.ProductVerification, error) {
	var verifications []models.ProductVerification
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.VerificationStatusPending).
		Order("submitted_at ASC").
		Limit(limit).
		Offset(offset).
		Preload("Product").
		Preload("Product.Description").
		Find(&verifications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return verifications, nil
}

// Review decides a pending product verification. The audit row is written in
// the same transaction as the decision.
func (s *ProductService) Review(ctx context.Context, productID uint, decision models.VerificationStatus, notes string, reviewerID uint) (*models.ProductVerification, error) {
	if decision != models.VerificationStatusVerified && decision != models.VerificationStatusRejected {
		return nil, models.NewValidationError("Decision must be 'verified' or 'rejected'")
	}
	if err := validation.ValidateNotes(notes); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if decision == models.VerificationStatusRejected && notes == "" {
		return nil, models.NewValidationError("Notes are required when rejecting a product")
	}

	var verification models.ProductVerification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("product_id = ?", productID).First(&verification).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Product", productID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if !verification.IsPending() {
			return models.NewConflictError("Product has already been reviewed")
		}

		now := time.Now().UTC()
		verification.Status = decision
		verification.Notes = notes
		verification.ReviewedBy = &reviewerID
		verification.ReviewedAt = &now
		if err := tx.Save(&verification).Error; err != nil {
			return models.NewInternalError(err)
		}

		targetID := productID
		return tx.Create(&models.AdminAction{
			AdminID:    reviewerID,
			Action:     models.ActionProductReviewed,
			TargetType: models.TargetTypeProduct,
			TargetID:   &targetID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateProduct(ctx, productID)
	observability.ProductReviews.WithLabelValues(string(decision)).Inc()
	_ = s.notifier.PublishAdminEvent(ctx, notifications.Event{
		Type:       notifications.EventProductReviewed,
		ActorType:  "admin",
		ActorID:    reviewerID,
		TargetType: models.TargetTypeProduct,
		TargetID:   productID,
		Detail:     string(decision),
	})

	return &verification, nil
}
