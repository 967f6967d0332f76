// Package main provides admin account management utilities for Rentloop.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"rentloop/internal/config"
	"rentloop/internal/database"
	"rentloop/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Admin lifecycle runs through the API, but the very first super admin has to
// come from somewhere. This utility creates one directly in the database.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin create-super <name> <email> <password>  - Create an active super admin")
		fmt.Println("  go run ./cmd/admin activate <admin_id>                     - Activate a pending admin")
		fmt.Println("  go run ./cmd/admin list                                    - List all admin accounts")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "create-super":
		if len(os.Args) < 5 {
			fmt.Println("Usage: go run ./cmd/admin create-super <name> <email> <password>")
			os.Exit(1)
		}
		createSuperAdmin(db, os.Args[2], os.Args[3], os.Args[4])

	case "activate":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin activate <admin_id>")
			os.Exit(1)
		}
		activateAdmin(db, os.Args[2])

	case "list":
		listAdmins(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func createSuperAdmin(db *gorm.DB, name, email, password string) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.Admin
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		fmt.Printf("Admin with email %s already exists (ID: %d, role: %s, status: %s)\n",
			email, existing.ID, existing.Role, existing.Status)
		os.Exit(1)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Fatalf("Database error: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.Admin{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashed),
		Role:     models.AdminRoleSuper,
		Status:   models.AdminStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create super admin: %v", err)
	}

	fmt.Printf("✅ Created super admin %s (ID: %d)\n", admin.Email, admin.ID)
}

func activateAdmin(db *gorm.DB, adminID string) {
	var admin models.Admin
	if err := db.First(&admin, adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("Admin with ID %s not found\n", adminID)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}

	if admin.Status == models.AdminStatusActive {
		fmt.Printf("Admin %s (ID: %d) is already active\n", admin.Email, admin.ID)
		return
	}

	admin.Status = models.AdminStatusActive
	admin.RejectionReason = ""
	if err := db.Save(&admin).Error; err != nil {
		log.Fatalf("Failed to activate admin: %v", err)
	}

	fmt.Printf("✅ Activated admin %s (ID: %d)\n", admin.Email, admin.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.Admin
	if err := db.Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admin accounts found")
		return
	}

	fmt.Println("\n📋 Admin Accounts:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s | Role: %s | Status: %s\n",
			admin.ID, admin.Name, admin.Email, admin.Role, admin.Status)
	}
	fmt.Println("─────────────────────────────────────")
}
