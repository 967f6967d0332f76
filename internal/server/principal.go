package server

import (
	"context"
	"errors"

	"rentloop/internal/authz"
	"rentloop/internal/middleware"
	"rentloop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// loadPrincipal resolves the authenticated principal from the token claims
// stored by the auth middleware: revocation check first, then a fresh load of
// the account record so role and status changes take effect immediately.
// Users additionally get their identity-verification flag derived.
func (s *Server) loadPrincipal(c *fiber.Ctx) (models.Principal, error) {
	// A principal middleware earlier in the chain may have loaded it already.
	if p, ok := c.Locals("principal").(models.Principal); ok {
		return p, nil
	}

	id, ok := c.Locals("principalID").(uint)
	if !ok {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	ptype := models.PrincipalType(c.Locals("principalType").(string))
	version, _ := c.Locals("tokenVersion").(int64)

	current, err := s.tokens.CheckVersion(c.Context(), ptype, id, version)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !current {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}

	var principal models.Principal
	switch ptype {
	case models.PrincipalTypeUser:
		user, err := s.userRepo.GetByID(c.Context(), id)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return nil, models.NewUnauthorizedError("Account no longer exists")
			}
			return nil, err
		}
		if !user.Active {
			return nil, models.NewForbiddenError("Account is disabled")
		}
		verified, err := s.verificationService.IsUserVerified(c.Context(), id)
		if err != nil {
			return nil, err
		}
		user.IdentityVerified = verified
		principal = user

	case models.PrincipalTypeAdmin:
		admin, err := s.adminService.GetByID(c.Context(), id)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return nil, models.NewUnauthorizedError("Account no longer exists")
			}
			return nil, err
		}
		switch admin.Status {
		case models.AdminStatusPending:
			return nil, models.NewForbiddenError("Account is awaiting approval")
		case models.AdminStatusBanned:
			return nil, models.NewForbiddenError("Account is banned")
		}
		principal = admin

	default:
		return nil, models.NewUnauthorizedError("Unknown principal type")
	}

	c.Locals("principal", principal)

	// Sync identity into the request context for the context-aware logger.
	ctx := context.WithValue(c.UserContext(), middleware.PrincipalIDKey, principal.PrincipalID())
	ctx = context.WithValue(ctx, middleware.PrincipalTypeKey, string(principal.PrincipalType()))
	c.SetUserContext(ctx)

	return principal, nil
}

// UserPrincipal loads the principal and requires it to be an active user.
// Must run after middleware.AuthRequired.
func (s *Server) UserPrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := s.loadPrincipal(c)
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		if _, ok := principal.(*models.User); !ok {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("User account required"))
		}
		return c.Next()
	}
}

// AdminPrincipal loads the principal and requires an active admin of any role.
// Must run after middleware.AuthRequired (or its WebSocket variant).
func (s *Server) AdminPrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := s.loadPrincipal(c)
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		if !authz.AdminAccess(principal) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// SuperAdminPrincipal loads the principal and requires an active super admin.
func (s *Server) SuperAdminPrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := s.loadPrincipal(c)
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		if !authz.SuperAdminOnly(principal) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Super admin access required"))
		}
		return c.Next()
	}
}

// currentUser returns the authenticated user principal. Routes behind
// UserPrincipal always have one.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("principal").(*models.User)
	if !ok {
		return nil, models.NewForbiddenError("User account required")
	}
	return user, nil
}

// currentAdmin returns the authenticated admin principal.
func currentAdmin(c *fiber.Ctx) (*models.Admin, error) {
	admin, ok := c.Locals("principal").(*models.Admin)
	if !ok {
		return nil, models.NewForbiddenError("Admin access required")
	}
	return admin, nil
}
