package models

import "time"

// Audit action tags recorded for admin activity.
const (
	ActionLogin                = "login"
	ActionLogout               = "logout"
	ActionLogoutAll            = "logout_all"
	ActionAdminRegistered      = "admin_registered"
	ActionAdminApproved        = "admin_approved"
	ActionAdminRejected        = "admin_rejected"
	ActionAdminBanned          = "admin_banned"
	ActionAdminUnbanned        = "admin_unbanned"
	ActionAdminDeleted         = "admin_deleted"
	ActionVerificationReviewed = "verification_reviewed"
	ActionProductReviewed      = "product_reviewed"
)

// Target types for audit records.
const (
	TargetTypeAdmin            = "admin"
	TargetTypeUserVerification = "user_verification"
	TargetTypeProduct          = "product"
	TargetTypeSystem           = "system"
)

// AdminAction is an append-only audit record of who did what to which
// target. Rows are never updated or deleted.
type AdminAction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminID    uint      `gorm:"not null;index:idx_admin_actions_admin_created" json:"admin_id"`
	Admin      *Admin    `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action     string    `gorm:"size:60;not null" json:"action"`
	TargetType string    `gorm:"size:60;not null" json:"target_type"`
	TargetID   *uint     `gorm:"index" json:"target_id"`
	CreatedAt  time.Time `gorm:"index:idx_admin_actions_admin_created" json:"created_at"`
}
