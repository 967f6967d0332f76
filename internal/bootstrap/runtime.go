// Package bootstrap initializes runtime dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"rentloop/internal/cache"
	"rentloop/internal/config"
	"rentloop/internal/database"
	"rentloop/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema skips migrations and auto-migrate; the migrate command
	// uses this to manage schema explicitly.
	SkipSchema bool
}

// InitRuntime connects to DB and Redis, applies the schema policy, and
// ensures the development super admin exists when configured.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if !opts.SkipSchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("schema setup failed: %w", err)
		}
	}

	// May leave a nil client if Redis is unreachable; the server degrades
	// to no caching and no event feed.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevSuperAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development super admin: %w", err)
	}

	return db, r, nil
}

// ensureDevSuperAdmin creates or repairs the first active super admin in
// development. Approval endpoints require an existing active super admin, so
// a fresh database has no way to mint one through the API.
func ensureDevSuperAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapSuper {
		return nil
	}

	name := strings.TrimSpace(cfg.DevSuperName)
	if name == "" {
		name = "Root Admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevSuperEmail))
	if email == "" {
		email = "root@rentloop.local"
	}
	password := cfg.DevSuperPassword
	if password == "" {
		return fmt.Errorf("DEV_SUPER_PASSWORD must be set when DEV_BOOTSTRAP_SUPER is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash super admin password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.Admin
		findErr := tx.Where("email = ?", email).First(&existing).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			return tx.Create(&models.Admin{
				Name:     name,
				Email:    email,
				Password: string(hashedPassword),
				Role:     models.AdminRoleSuper,
				Status:   models.AdminStatusActive,
			}).Error
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{
				"role":   models.AdminRoleSuper,
				"status": models.AdminStatusActive,
			}
			if cfg.DevSuperForceCredentials {
				updates["name"] = name
				updates["password"] = string(hashedPassword)
			}
			return tx.Model(&models.Admin{}).Where("id = ?", existing.ID).Updates(updates).Error
		}
	}); err != nil {
		return err
	}

	log.Printf("development super admin bootstrap ensured (%s)", email)
	return nil
}
