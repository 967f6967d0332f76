package models

import "time"

// ProductVerification is the moderation record for a listing. It is created
// atomically with the product and resets to pending whenever the listing's
// title, description, or images change.
type ProductVerification struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	ProductID   uint               `gorm:"not null;uniqueIndex" json:"product_id"`
	Product     *Product           `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Status      VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes       string             `gorm:"type:text" json:"notes,omitempty"`
	ReviewedBy  *uint              `gorm:"index" json:"reviewed_by"`
	Reviewer    *Admin             `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	SubmittedAt time.Time          `gorm:"not null;index" json:"submitted_at"`
	ReviewedAt  *time.Time         `json:"reviewed_at"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// IsPending reports whether the record awaits review.
func (v *ProductVerification) IsPending() bool { return v.Status == VerificationStatusPending }

// IsVerified reports whether the record passed review.
func (v *ProductVerification) IsVerified() bool { return v.Status == VerificationStatusVerified }

// IsRejected reports whether the record failed review.
func (v *ProductVerification) IsRejected() bool { return v.Status == VerificationStatusRejected }
