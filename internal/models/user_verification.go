package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// VerificationStatus defines lifecycle states for verification records.
type VerificationStatus string

const (
	// VerificationStatusPending indicates the record awaits admin review.
	VerificationStatusPending VerificationStatus = "pending"
	// VerificationStatusVerified indicates the record passed review.
	VerificationStatusVerified VerificationStatus = "verified"
	// VerificationStatusRejected indicates the record failed review and may
	// be resubmitted in place.
	VerificationStatusRejected VerificationStatus = "rejected"
)

// VerificationType enumerates accepted identity document types.
type VerificationType string

// VerificationTypeNationalID is currently the only accepted document type.
const VerificationTypeNationalID VerificationType = "national_id"

// UserVerification is an identity-verification record. At most one record
// exists per (user, type); rejection reuses the same row via resubmission.
type UserVerification struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	UserID      uint               `gorm:"not null;uniqueIndex:idx_user_verifications_user_type" json:"user_id"`
	User        *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        VerificationType   `gorm:"type:varchar(30);not null;default:'national_id';uniqueIndex:idx_user_verifications_user_type" json:"type"`
	Status      VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ImagePaths  datatypes.JSON     `gorm:"not null" json:"image_paths"`
	Notes       string             `gorm:"type:text" json:"notes,omitempty"`
	ReviewedBy  *uint              `gorm:"index" json:"reviewed_by"`
	Reviewer    *Admin             `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	SubmittedAt time.Time          `gorm:"not null;index" json:"submitted_at"`
	ReviewedAt  *time.Time         `json:"reviewed_at"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// IsPending reports whether the record awaits review.
func (v *UserVerification) IsPending() bool { return v.Status == VerificationStatusPending }

// IsVerified reports whether the record passed review.
func (v *UserVerification) IsVerified() bool { return v.Status == VerificationStatusVerified }

// IsRejected reports whether the record failed review.
func (v *UserVerification) IsRejected() bool { return v.Status == VerificationStatusRejected }

// SetImagePaths stores the document image paths as a JSON array column.
func (v *UserVerification) SetImagePaths(paths []string) error {
	raw, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	v.ImagePaths = datatypes.JSON(raw)
	return nil
}

// ImagePathList decodes the stored document image paths.
func (v *UserVerification) ImagePathList() []string {
	var paths []string
	if len(v.ImagePaths) > 0 {
		_ = json.Unmarshal(v.ImagePaths, &paths)
	}
	return paths
}
