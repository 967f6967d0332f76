// Package service implements the application's domain logic on top of the
// data access layer.
package service

import (
	"context"
	"errors"
	"time"

	"rentloop/internal/assets"
	"rentloop/internal/cache"
	"rentloop/internal/models"
	"rentloop/internal/notifications"
	"rentloop/internal/observability"
	"rentloop/internal/validation"

	"gorm.io/gorm"
)

// VerificationService manages the identity verification lifecycle: one record
// per (user, type), reviewed by admins, resubmitted in place after rejection.
type VerificationService struct {
	db       *gorm.DB
	store    assets.Store
	notifier *notifications.Notifier
}

// NewVerificationService returns a new VerificationService.
func NewVerificationService(db *gorm.DB, store assets.Store, notifier *notifications.Notifier) *VerificationService {
	return &VerificationService{db: db, store: store, notifier: notifier}
}

// Submit creates the user's initial national-id verification record. Any
// existing record for the user conflicts; a rejected one must go through
// Resubmit instead.
func (s *VerificationService) Submit(ctx context.Context, userID uint, imagePaths []string) (*models.UserVerification, error) {
	if err := validation.ValidateImagePaths(imagePaths); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var existing models.UserVerification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, models.VerificationTypeNationalID).
		First(&existing).Error
	if err == nil {
		switch existing.Status {
		case models.VerificationStatusPending:
			return nil, models.NewConflictError("User already has a pending verification request")
		case models.VerificationStatusVerified:
			return nil, models.NewConflictError("User is already verified")
		default:
			return nil, models.NewConflictError("Previous verification was rejected; resubmit it instead")
		}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	verification := &models.UserVerification{
		UserID:      userID,
		Type:        models.VerificationTypeNationalID,
		Status:      models.VerificationStatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := verification.SetImagePaths(imagePaths); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.db.WithContext(ctx).Create(verification).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, userID)
	observability.VerificationSubmissions.WithLabelValues("initial").Inc()
	_ = s.notifier.PublishAdminEvent(ctx, notifications.Event{
		Type:       notifications.EventVerificationSubmitted,
		ActorType:  "user",
		ActorID:    userID,
		TargetType: models.TargetTypeUserVerification,
		TargetID:   verification.ID,
	})

	return verification, nil
}

// Resubmit replaces a rejected verification in place. The same row is reused:
// old document assets are deleted, review fields are cleared, and the record
// goes back to pending with a fresh submission time.
func (s *VerificationService) Resubmit(ctx context.Context, userID uint, imagePaths []string) (*models.UserVerification, error) {
	if err := validation.ValidateImagePaths(imagePaths); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var verification models.UserVerification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND status = ?",
			userID, models.VerificationTypeNationalID, models.VerificationStatusRejected).
		First(&verification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundMessageError("No rejected verification to resubmit")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	oldPaths := verification.ImagePathList()

	verification.Status = models.VerificationStatusPending
	verification.Notes = ""
	verification.ReviewedBy = nil
	verification.ReviewedAt = nil
	verification.SubmittedAt = time.Now().UTC()
	if err := verification.SetImagePaths(imagePaths); err != nil {
		return nil, models.NewInternalError(err)
	}

	// Select forces the cleared review columns to be written back as NULL.
	if err := s.db.WithContext(ctx).Model(&verification).
		Select("status", "notes", "reviewed_by", "reviewed_at", "submitted_at", "image_paths", "updated_at").
		Updates(&verification).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	if s.store != nil {
		s.store.DeleteAll(oldPaths)
	}

	cache.InvalidateUser(ctx, userID)
	observability.VerificationSubmissions.WithLabelValues("resubmission").Inc()
	_ = s.notifier.PublishAdminEvent(ctx, notifications.Event{
		Type:       notifications.EventVerificationSubmitted,
		ActorType:  "user",
		ActorID:    userID,
		TargetType: models.TargetTypeUserVerification,
		TargetID:   verification.ID,
		Detail:     "resubmission",
	})

	return &verification, nil
}

// Review decides a pending verification. Notes are required context when
// rejecting and optional when approving. The reviewing admin's audit record is
// written in the same transaction as the decision.
func (s *VerificationService) Review(ctx context.Context, verificationID uint, decision models.VerificationStatus, notes string, reviewerID uint) (*models.UserVerification, error) {
	if decision != models.VerificationStatusVerified && decision != models.VerificationStatusRejected {
		return nil, models.NewValidationError("Decision must be 'verified' or 'rejected'")
	}
	if err := validation.ValidateNotes(notes); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if decision == models.VerificationStatusRejected && notes == "" {
		return nil, models.NewValidationError("Notes are required when rejecting a verification")
	}

	var verification models.UserVerification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&verification, verificationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Verification", verificationID)
			}
			return models.NewInternalError(err)
		}
		if !verification.IsPending() {
			return models.NewConflictError("Verification has already been reviewed")
		}

		now := time.Now().UTC()
		verification.Status = decision
		verification.Notes = notes
		verification.ReviewedBy = &reviewerID
		verification.ReviewedAt = &now
		if err := tx.Save(&verification).Error; err != nil {
			return models.NewInternalError(err)
		}

		targetID := verification.ID
		audit := models.AdminAction{
			AdminID:    reviewerID,
			Action:     models.ActionVerificationReviewed,
			TargetType: models.TargetTypeUserVerification,
			TargetID:   &targetID,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUser(ctx, verification.UserID)
	observability.VerificationReviews.WithLabelValues(string(decision)).Inc()
	_ = s.notifier.PublishUser(ctx, verification.UserID, "Your identity verification was "+string(decision))
	_ = s.notifier.PublishAdminEvent(ctx, notifications.Event{
		Type:       notifications.EventVerificationReviewed,
		ActorType:  "admin",
		ActorID:    reviewerID,
		TargetType: models.TargetTypeUserVerification,
		TargetID:   verification.ID,
		Detail:     string(decision),
	})

	return &verification, nil
}

// StatusFor returns the user's verification record, cache-aside.
func (s *VerificationService) StatusFor(ctx context.Context, userID uint) (*models.UserVerification, error) {
	var verification models.UserVerification
	key := cache.VerificationStatusKey(userID)

	err := cache.AsideJSON(ctx, key, cache.VerificationStatusTTL, &verification, func() error {
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND type = ?", userID, models.VerificationTypeNationalID).
			First(&verification).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundMessageError("No verification submitted")
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &verification, nil
}

// IsUserVerified reports whether the user holds a verified identity record.
func (s *VerificationService) IsUserVerified(ctx context.Context, userID uint) (bool, error) {
	verification, err := s.StatusFor(ctx, userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return verification.IsVerified(), nil
}

// ListPending returns the review queue, oldest submission first.
func (s *VerificationService) ListPending(ctx context.Context, limit, offset int) ([]models.UserVerification, error) {
	var verifications []models.UserVerification
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.VerificationStatusPending).
		Order("submitted_at ASC").
		Limit(limit).
		Offset(offset).
		Preload("User").
		Find(&verifications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return verifications, nil
}

// ListAll returns verification records, newest submission first, optionally
// filtered by status.
func (s *VerificationService) ListAll(ctx context.Context, status models.VerificationStatus, limit, offset int) ([]models.UserVerification, error) {
	query := s.db.WithContext(ctx).Model(&models.UserVerification{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var verifications []models.UserVerification
	if err := query.
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("User").
		Find(&verifications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return verifications, nil
}
