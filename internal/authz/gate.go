// Package authz derives permitted actions from principal role and status.
// Every function is pure: no I/O, no ambient state. Callers load the
// principal (including the user's derived identity-verification flag)
// before consulting the gate.
package authz

import "rentloop/internal/models"

// SuperAdminOnly allows only an active super admin.
func SuperAdminOnly(p models.Principal) bool {
	admin, ok := p.(*models.Admin)
	if !ok {
		return false
	}
	return admin.Role == models.AdminRoleSuper && admin.Status == models.AdminStatusActive
}

// AdminAccess allows any active admin, moderator or super.
func AdminAccess(p models.Principal) bool {
	admin, ok := p.(*models.Admin)
	if !ok {
		return false
	}
	return admin.Status == models.AdminStatusActive
}

// ManageOwnProfile allows a user to manage their own profile, or an active
// super admin to manage anyone's.
func ManageOwnProfile(p models.Principal, targetUserID uint) bool {
	if user, ok := p.(*models.User); ok {
		return user.ID == targetUserID
	}
	return SuperAdminOnly(p)
}

// CanManageProducts allows identity-verified sellers to create, update,
// and delete their listings.
func CanManageProducts(p models.Principal) bool {
	user, ok := p.(*models.User)
	if !ok {
		return false
	}
	return user.Role == models.UserRoleSeller && user.IdentityVerified
}

// CanRentProducts allows any identity-verified user, regardless of role.
func CanRentProducts(p models.Principal) bool {
	user, ok := p.(*models.User)
	if !ok {
		return false
	}
	return user.IdentityVerified
}
