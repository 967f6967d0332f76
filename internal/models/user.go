// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// UserRole defines the marketplace role of a user account.
type UserRole string

const (
	// UserRoleCustomer can browse and, once identity-verified, rent products.
	UserRoleCustomer UserRole = "customer"
	// UserRoleSeller can additionally list products once identity-verified.
	UserRoleSeller UserRole = "seller"
)

// User represents a marketplace account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Phone     string    `gorm:"unique;not null" json:"phone"`
	Password  string    `gorm:"not null" json:"-"`
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'customer';index" json:"role"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// IdentityVerified is derived from the latest national-id verification
	// and populated by the boundary before authorization checks. Not stored.
	IdentityVerified bool `gorm:"-" json:"identity_verified"`

	Products []Product `gorm:"foreignKey:OwnerID" json:"products,omitempty"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsSeller reports whether the user holds the seller role.
func (u *User) IsSeller() bool {
	return u.Role == UserRoleSeller
}

// IsCustomer reports whether the user holds the customer role.
func (u *User) IsCustomer() bool {
	return u.Role == UserRoleCustomer
}

// PrincipalID implements Principal.
func (u *User) PrincipalID() uint { return u.ID }

// PrincipalType implements Principal.
func (u *User) PrincipalType() PrincipalType { return PrincipalTypeUser }

// PrincipalRole implements Principal.
func (u *User) PrincipalRole() string { return string(u.Role) }

// IsActivePrincipal implements Principal.
func (u *User) IsActivePrincipal() bool { return u.Active }
