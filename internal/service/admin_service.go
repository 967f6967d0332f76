package service

import (
	"context"
	"errors"
	"time"

	"rentloop/internal/assets"
	"rentloop/internal/models"
	"rentloop/internal/notifications"
	"rentloop/internal/observability"
	"rentloop/internal/tokens"
	"rentloop/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminService manages back-office accounts: registration, login, and the
// pending/active/banned lifecycle driven by super admins. Every successful
// transition writes an AdminAction audit row in the same transaction.
type AdminService struct {
	db       *gorm.DB
	tokens   *tokens.Service
	store    assets.Store
	notifier *notifications.Notifier
}

// NewAdminService returns a new AdminService.
func NewAdminService(db *gorm.DB, tokenSvc *tokens.Service, store assets.Store, notifier *notifications.Notifier) *AdminService {
	return &AdminService{db: db, tokens: tokenSvc, store: store, notifier: notifier}
}

// RegisterAdminInput is the input for moderator self-registration.
type RegisterAdminInput struct {
	Name     string
	Email    string
	Password string
}

// AdminLoginInput is the input for admin login.
type AdminLoginInput struct {
	Email    string
	Password string
}

// Register creates a moderator account in the pending state. The account
// cannot log in until an active super admin approves it.
func (s *AdminService) Register(ctx context.Context, in RegisterAdminInput) (*models.Admin, error) {
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var existing models.Admin
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, models.NewConflictError("Admin with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	admin := &models.Admin{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     models.AdminRoleModerator,
		Status:   models.AdminStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(admin).Error; err != nil {
			return models.NewInternalError(err)
		}
		targetID := admin.ID
		return tx.Create(&models.AdminAction{
			AdminID:    admin.ID,
			Action:     models.ActionAdminRegistered,
			TargetType: models.TargetTypeAdmin,
			TargetID:   &targetID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	observability.AdminTransitions.WithLabelValues("registered").Inc()
	_ = s.notifier.PublishAdminEvent(ctx, notifications.Event{
		Type:       notifications.EventAdminTransition,
		ActorType:  "admin",
		ActorID:    admin.ID,
		TargetType: models.TargetTypeAdmin,
		TargetID:   admin.ID,
		Detail:     "registered",
	})

	return admin, nil
}

// Login authenticates an admin and issues an access token. Non-active
// accounts are rejected after the password check with distinct messages so a
// legitimate moderator knows whether they are still waiting or banned.
func (s *AdminService) Login(ctx context.Context, in AdminLoginInput) (string, *models.Admin, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.AuthFailures.WithLabelValues("admin", "unknown_email").Inc()
		return "", nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(in.Password)) != nil {
		observability.AuthFailures.WithLabelValues("admin", "bad_password").Inc()
		return "", nil, models.NewUnauthorizedError("Invalid email or password")
	}

	switch admin.Status {
	case models.AdminStatusPending:
		observability.AuthFailures.WithLabelValues("admin", "pending").Inc()
		return "", nil, models.NewForbiddenError("Account is awaiting approval")
	case models.AdminStatusBanned:
		observability.AuthFailures.WithLabelValues("admin", "banned").Inc()
		return "", nil, models.NewForbiddenError("Account is banned")
	}

	token, err := s.tokens.Issue(ctx, &admin)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}

	if err := s.db.WithContext(ctx).Create(&models.AdminAction{
		AdminID:    admin.ID,
		Action:     models.ActionLogin,
		TargetType: models.TargetTypeSystem,
	}).Error; err != nil {
		return "", nil, models.NewInternalError(err)
	}

	return token, &admin, nil
}

// Logout records the logout in the audit trail. The token itself stays valid
// until expiry; clients discard it.
func (s *AdminService) Logout(ctx context.Context, adminID uint) error {
	return s.db.WithContext(ctx).Create(&models.AdminAction{
		AdminID:    adminID,
		Action:     models.ActionLogout,
		TargetType: models.TargetTypeSystem,
	}).Error
}

// LogoutAll revokes every outstanding token for the admin.
func (s *AdminService) LogoutAll(ctx context.Context, adminID uint) error {
	if err := s.tokens.RevokeAll(ctx, models.PrincipalTypeAdmin, adminID); err != nil {
		return models.NewInternalError(err)
	}
	return s.db.WithContext(ctx).Create(&models.AdminAction{
		AdminID:    adminID,
		Action:     models.ActionLogoutAll,
		TargetType: models.TargetTypeSystem,
	}).Error
}

// GetByID returns the admin with the given id.
func (s *AdminService) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := s.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Admin", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &admin, nil
}

// List returns admin accounts, newest first, optionally filtered by status.
func (s *AdminService) List(ctx context.Context, status models.AdminStatus, limit, offset int) ([]models.Admin, error) {
	query := s.db.WithContext(ctx).Model(&models.Admin{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var admins []models.Admin
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&admins).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return admins, nil
}

// Statistics summarizes marketplace volume for the back-office dashboard.
type Statistics struct {
	UsersByRole          map[string]int64 `json:"users_by_role"`
	AdminsByStatus       map[string]int64 `json:"admins_by_status"`
	VerificationsByState map[string]int64 `json:"verifications_by_status"`
	ProductsByReview     map[string]int64 `json:"products_by_review_status"`
	PendingReviews       int64            `json:"pending_reviews"`
}

// GetStatistics aggregates counts by role and status across the main tables.
func (s *AdminService) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}

	var err error
	if stats.UsersByRole, err = s.countBy(ctx, &models.User{}, "role"); err != nil {
		return nil, err
	}
	if stats.AdminsByStatus, err = s.countBy(ctx, &models.Admin{}, "status"); err != nil {
		return nil, err
	}
	if stats.VerificationsByState, err = s.countBy(ctx, &models.UserVerification{}, "status"); err != nil {
		return nil, err
	}
	if stats.ProductsByReview, err = s.countBy(ctx, &models.ProductVerification{}, "status"); err != nil {
		return nil, err
	}

	pending := string(models.VerificationStatusPending)
	stats.PendingReviews = stats.VerificationsByState[pending] + stats.ProductsByReview[pending]
	return stats, nil
}

func (s *AdminService) countBy(ctx context.Context, model interface{}, column string) (map[string]int64, error) {
	var rows []struct {
		Key   string
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(model).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

// loadActor loads the acting admin and checks they are an active super admin.
func (s *AdminService) loadActor(ctx context.Context, actorID uint) (*models.Admin, error) {
	var actor models.Admin
	if err := s.db.WithContext(ctx).First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthorizedError("Super admin access required")
		}
		return nil, models.NewInternalError(err)
	}
	if !actor.IsSuper() {
		return nil, models.NewUnauthorizedError("Super admin access required")
	}
	return &actor, nil
}

func (s *AdminService) loadTarget(tx *gorm.DB, targetID uint) (*models.Admin, error) {
	var target models.Admin
	if err := tx.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Admin", targetID)
		}
		return nil, models.NewInternalError(err)
	}
	return &target, nil
}

// guardDestructive rejects self-targeting and super-admin targets. This keeps
// the last super admin account from ever being locked out.
func guardDestructive(actor, target *models.Admin) error {
	if target.ID == actor.ID {
		return models.NewConflictError("Cannot perform this action on your own account")
	}
	if target.Role == models.AdminRoleSuper {
		return models.NewConflictError("Cannot perform this action on a super admin")
	}
	return nil
}

// transition runs a lifecycle change and its audit row in one transaction and
// emits the admin feed event after commit.
func (s *AdminService) transition(ctx context.Context, actor *models.Admin, targetID uint, action, metricLabel string, apply func(tx *gorm.DB, target *models.Admin) error) (*models.Admin, error) {
	var target *models.Admin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		target, err = s.loadTarget(tx, targetID)
		if err != nil {
			return err
		}
		if err := apply(tx, target); err != nil {
			return err
		}
		auditTarget := targetID
		return tx.Create(&models.AdminAction{
			AdminID:    actor.ID,
			Action:     action,
			TargetType: models.TargetTypeAdmin,
			TargetID:   &auditTarget,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	observability.AdminTransitions.WithLabelValues(metricLabel).Inc()
	_ = s.notifier.PublishAdminEvent(ctx, notifications.Event{
		Type:       notifications.EventAdminTransition,
		ActorType:  "admin",
		ActorID:    actor.ID,
		TargetType: models.TargetTypeAdmin,
		TargetID:   targetID,
		Detail:     metricLabel,
	})
	return target, nil
}

// Approve activates a pending moderator.
func (s *AdminService) Approve(ctx context.Context, actorID, targetID uint) (*models.Admin, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, targetID, models.ActionAdminApproved, "approve", func(tx *gorm.DB, target *models.Admin) error {
		if target.Status != models.AdminStatusPending {
			return models.NewConflictError("Admin is not pending approval")
		}
		now := time.Now().UTC()
		target.Status = models.AdminStatusActive
		target.ApprovedByID = &actor.ID
		target.ApprovedAt = &now
		target.RejectionReason = ""
		if err := tx.Save(target).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// Reject turns down a pending moderator. The account lands in the banned
// state with the rejection reason on record.
func (s *AdminService) Reject(ctx context.Context, actorID, targetID uint, reason string) (*models.Admin, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, targetID, models.ActionAdminRejected, "reject", func(tx *gorm.DB, target *models.Admin) error {
		if err := guardDestructive(actor, target); err != nil {
			return err
		}
		if target.Status != models.AdminStatusPending {
			return models.NewConflictError("Admin is not pending approval")
		}
		now := time.Now().UTC()
		target.Status = models.AdminStatusBanned
		target.ApprovedByID = &actor.ID
		target.ApprovedAt = &now
		target.RejectionReason = reason
		if err := tx.Save(target).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// Ban blocks an admin account and revokes all of its outstanding tokens. The
// revocation completes before the record update so a failure cannot leave a
// banned admin with live sessions.
func (s *AdminService) Ban(ctx context.Context, actorID, targetID uint, reason string) (*models.Admin, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := guardDestructive(actor, target); err != nil {
		return nil, err
	}
	if target.Status == models.AdminStatusBanned {
		return nil, models.NewConflictError("Admin is already banned")
	}

	if err := s.tokens.RevokeAll(ctx, models.PrincipalTypeAdmin, targetID); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.transition(ctx, actor, targetID, models.ActionAdminBanned, "ban", func(tx *gorm.DB, target *models.Admin) error {
		if err := guardDestructive(actor, target); err != nil {
			return err
		}
		if target.Status == models.AdminStatusBanned {
			return models.NewConflictError("Admin is already banned")
		}
		target.Status = models.AdminStatusBanned
		target.RejectionReason = reason
		if err := tx.Save(target).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// Unban restores a banned admin to active.
func (s *AdminService) Unban(ctx context.Context, actorID, targetID uint) (*models.Admin, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, targetID, models.ActionAdminUnbanned, "unban", func(tx *gorm.DB, target *models.Admin) error {
		if target.Status != models.AdminStatusBanned {
			return models.NewConflictError("Admin is not banned")
		}
		target.Status = models.AdminStatusActive
		target.RejectionReason = ""
		if err := tx.Save(target).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// Delete removes an admin account entirely: tokens revoked, avatar asset
// deleted, row hard-deleted. The audit row survives with the former id.
func (s *AdminService) Delete(ctx context.Context, actorID, targetID uint) error {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return err
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if err := guardDestructive(actor, target); err != nil {
		return err
	}

	if err := s.tokens.RevokeAll(ctx, models.PrincipalTypeAdmin, targetID); err != nil {
		return models.NewInternalError(err)
	}

	_, err = s.transition(ctx, actor, targetID, models.ActionAdminDeleted, "delete", func(tx *gorm.DB, target *models.Admin) error {
		if err := guardDestructive(actor, target); err != nil {
			return err
		}
		if err := tx.Delete(&models.Admin{}, targetID).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.store != nil && target.Avatar != "" {
		_ = s.store.Delete(target.Avatar)
	}
	return nil
}
