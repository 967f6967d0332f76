package database

import "rentloop/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Admin{},
		&models.AdminAction{},
		&models.UserVerification{},
		&models.Product{},
		&models.ProductDescription{},
		&models.ProductVerification{},
	}
}
