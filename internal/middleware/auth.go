// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"rentloop/internal/config"
	"rentloop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// TokenClaims is the decoded identity carried by an access token.
type TokenClaims struct {
	PrincipalID   uint
	PrincipalType models.PrincipalType
	Version       int64
	TokenID       string
}

// ParseToken validates a signed access token and extracts its identity claims.
// It checks signature and expiry only; revocation (token version) is checked
// against the token store by the caller.
func ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	// Subject claim per RFC 7519 carries the principal ID
	subStr, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("missing token subject")
	}
	idVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid principal ID in token")
	}

	typStr, ok := claims["typ"].(string)
	if !ok {
		return nil, fmt.Errorf("missing principal type in token")
	}
	ptype := models.PrincipalType(typStr)
	if ptype != models.PrincipalTypeUser && ptype != models.PrincipalTypeAdmin {
		return nil, fmt.Errorf("unknown principal type in token")
	}

	// JSON numbers decode as float64
	verVal, ok := claims["ver"].(float64)
	if !ok {
		return nil, fmt.Errorf("missing token version")
	}

	tc := &TokenClaims{
		PrincipalID:   uint(idVal),
		PrincipalType: ptype,
		Version:       int64(verVal),
	}
	if jti, ok := claims["jti"].(string); ok {
		tc.TokenID = jti
	}
	return tc, nil
}

// AuthRequired is a middleware that enforces authentication for protected routes.
// It stores the decoded claims in Fiber locals; principal loading and token
// revocation checks happen in the server layer where the stores live.
func AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid authorization header format",
		})
	}

	claims, err := ParseToken(parts[1])
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	storeClaims(c, claims)
	return c.Next()
}

// AuthOptional decodes a bearer token when one is present but never rejects
// the request. Public routes use it so owners can see their own resources
// that are hidden from everyone else.
func AuthOptional(c *fiber.Ctx) error {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		if claims, err := ParseToken(parts[1]); err == nil {
			storeClaims(c, claims)
		}
	}
	return c.Next()
}

// WebSocketAuthRequired validates tokens from query parameters for WebSocket
// connections, falling back to the Authorization header for regular HTTP.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token required",
			})
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}
		token = parts[1]
	}

	claims, err := ParseToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	storeClaims(c, claims)
	return c.Next()
}

func storeClaims(c *fiber.Ctx, claims *TokenClaims) {
	c.Locals("principalID", claims.PrincipalID)
	c.Locals("principalType", string(claims.PrincipalType))
	c.Locals("tokenVersion", claims.Version)
	if claims.TokenID != "" {
		c.Locals("tokenID", claims.TokenID)
	}
}
