package bootstrap

import (
	"testing"

	"rentloop/internal/config"
	"rentloop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupBootstrapDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Admin{}))
	return db
}

func TestEnsureDevSuperAdmin_CreatesWhenMissing(t *testing.T) {
	db := setupBootstrapDB(t)
	cfg := &config.Config{
		Env:               "development",
		DevBootstrapSuper: true,
		DevSuperEmail:     "Root@Rentloop.Local",
		DevSuperPassword:  "Sup3rSecret!pw",
	}

	require.NoError(t, ensureDevSuperAdmin(cfg, db))

	var admin models.Admin
	require.NoError(t, db.Where("email = ?", "root@rentloop.local").First(&admin).Error)
	assert.Equal(t, models.AdminRoleSuper, admin.Role)
	assert.Equal(t, models.AdminStatusActive, admin.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("Sup3rSecret!pw")))
}

func TestEnsureDevSuperAdmin_RepairsExisting(t *testing.T) {
	db := setupBootstrapDB(t)
	require.NoError(t, db.Create(&models.Admin{
		Name:     "Demoted",
		Email:    "root@rentloop.local",
		Password: "old-hash",
		Role:     models.AdminRoleModerator,
		Status:   models.AdminStatusBanned,
	}).Error)

	cfg := &config.Config{
		Env:               "development",
		DevBootstrapSuper: true,
		DevSuperEmail:     "root@rentloop.local",
		DevSuperPassword:  "Sup3rSecret!pw",
	}
	require.NoError(t, ensureDevSuperAdmin(cfg, db))

	var admin models.Admin
	require.NoError(t, db.Where("email = ?", "root@rentloop.local").First(&admin).Error)
	assert.Equal(t, models.AdminRoleSuper, admin.Role)
	assert.Equal(t, models.AdminStatusActive, admin.Status)
	// Credentials untouched without the force flag.
	assert.Equal(t, "old-hash", admin.Password)
}

func TestEnsureDevSuperAdmin_SkipsOutsideDevelopment(t *testing.T) {
	db := setupBootstrapDB(t)
	cfg := &config.Config{
		Env:               "production",
		DevBootstrapSuper: true,
		DevSuperPassword:  "Sup3rSecret!pw",
	}

	require.NoError(t, ensureDevSuperAdmin(cfg, db))

	var count int64
	require.NoError(t, db.Model(&models.Admin{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureDevSuperAdmin_RequiresPassword(t *testing.T) {
	db := setupBootstrapDB(t)
	cfg := &config.Config{
		Env:               "development",
		DevBootstrapSuper: true,
	}

	assert.Error(t, ensureDevSuperAdmin(cfg, db))
}
