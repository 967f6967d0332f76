package database

import (
	"testing"

	"rentloop/internal/config"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}

	assert.NoError(t, configurePool(db, cfg))

	// Zero values fall back to defaults without erroring.
	assert.NoError(t, configurePool(db, &config.Config{}))
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid development", "hybrid", "development", true, true, false},
		{"hybrid production", "hybrid", "production", true, false, false},
		{"default is hybrid", "", "development", true, true, false},
		{"sql only", "sql", "production", true, false, false},
		{"auto development", "auto", "development", false, true, false},
		{"auto refused in production", "auto", "production", false, false, true},
		{"unknown mode", "yolo", "development", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DBSchemaMode: tt.mode, Env: tt.env}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestAutoMigrate_PersistentModels(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	assert.NoError(t, runAutoMigrate(db))

	for _, table := range []string{"users", "admins", "admin_actions", "user_verifications", "products", "product_descriptions", "product_verifications"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}
