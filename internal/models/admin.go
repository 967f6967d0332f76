package models

import "time"

// AdminRole defines the role of a back-office account.
type AdminRole string

const (
	// AdminRoleSuper can manage other admins and review everything.
	AdminRoleSuper AdminRole = "super"
	// AdminRoleModerator can review verifications and products.
	AdminRoleModerator AdminRole = "moderator"
)

// AdminStatus defines lifecycle states for admin accounts.
type AdminStatus string

const (
	// AdminStatusPending indicates the account awaits super-admin approval.
	AdminStatusPending AdminStatus = "pending"
	// AdminStatusActive indicates the account may log in and act.
	AdminStatusActive AdminStatus = "active"
	// AdminStatusBanned indicates the account was rejected or banned.
	AdminStatusBanned AdminStatus = "banned"
)

// Admin represents a back-office account. Moderators start pending and must
// be approved by an active super admin; super admins are created active.
type Admin struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Name            string      `gorm:"size:120;not null" json:"name"`
	Email           string      `gorm:"unique;not null" json:"email"`
	Password        string      `gorm:"not null" json:"-"`
	Role            AdminRole   `gorm:"type:varchar(20);not null;default:'moderator';index" json:"role"`
	Status          AdminStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApprovedByID    *uint       `json:"approved_by_id"`
	ApprovedBy      *Admin      `gorm:"foreignKey:ApprovedByID" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time  `json:"approved_at"`
	RejectionReason string      `gorm:"type:text" json:"rejection_reason,omitempty"`
	Avatar          string      `json:"avatar,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Actions []AdminAction `gorm:"foreignKey:AdminID" json:"actions,omitempty"`
}

// IsSuper reports whether the admin is an active super admin.
func (a *Admin) IsSuper() bool {
	return a.Role == AdminRoleSuper && a.Status == AdminStatusActive
}

// IsModerator reports whether the admin is an active moderator.
func (a *Admin) IsModerator() bool {
	return a.Role == AdminRoleModerator && a.Status == AdminStatusActive
}

// IsActive reports whether the admin account may act at all.
func (a *Admin) IsActive() bool {
	return a.Status == AdminStatusActive
}

// Permissions returns the permission tags for the admin's role.
func (a *Admin) Permissions() []string {
	if a.IsSuper() {
		return []string{"*"}
	}
	if a.IsModerator() {
		return []string{"verifications:review", "products:review", "profile:view", "profile:update"}
	}
	return []string{}
}

// PrincipalID implements Principal.
func (a *Admin) PrincipalID() uint { return a.ID }

// PrincipalType implements Principal.
func (a *Admin) PrincipalType() PrincipalType { return PrincipalTypeAdmin }

// PrincipalRole implements Principal.
func (a *Admin) PrincipalRole() string { return string(a.Role) }

// IsActivePrincipal implements Principal.
func (a *Admin) IsActivePrincipal() bool { return a.Status == AdminStatusActive }
