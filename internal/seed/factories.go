// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"rentloop/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password for every seeded account.
const DefaultPassword = "Rentl00p!seeded"

var productCategories = []string{
	"tools", "outdoors", "electronics", "party", "photography",
	"sports", "garden", "music", "vehicles", "construction",
}

// SeedOptions tune how factories generate data.
type SeedOptions struct {
	// SkipBcrypt stores a plaintext marker instead of a real hash. Much
	// faster for large seeds; never usable for login.
	SkipBcrypt bool
	// MaxDays bounds the random created_at spread; defaults to 90.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		// #nosec G404: acceptable for seeding
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return "seeded-no-login"
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	return string(hashed)
}

// spreadCreatedAt returns a timestamp up to MaxDays in the past.
func (f *Factory) spreadCreatedAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample user with the given role.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(role models.UserRole, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Phone:     fmt.Sprintf("+1%d", gofakeit.Number(2000000000, 9999999999)),
		Password:  f.password(),
		Role:      role,
		Active:    true,
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		CreatedAt: f.spreadCreatedAt(),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAdmin constructs and persists a back-office account.
func (f *Factory) CreateAdmin(role models.AdminRole, status models.AdminStatus, overrides ...func(*models.Admin)) (*models.Admin, error) {
	admin := &models.Admin{
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Password:  f.password(),
		Role:      role,
		Status:    status,
		CreatedAt: f.spreadCreatedAt(),
	}

	for _, override := range overrides {
		override(admin)
	}

	if err := f.db.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// CreateVerification persists an identity-verification record for the user
// in the given status. Reviewed statuses get reviewer metadata stamped.
func (f *Factory) CreateVerification(user *models.User, status models.VerificationStatus, reviewer *models.Admin) (*models.UserVerification, error) {
	verification := &models.UserVerification{
		UserID:      user.ID,
		Type:        models.VerificationTypeNationalID,
		Status:      status,
		SubmittedAt: f.spreadCreatedAt(),
	}
	if err := verification.SetImagePaths([]string{
		fmt.Sprintf("documents/%s.webp", gofakeit.UUID()),
	}); err != nil {
		return nil, err
	}

	if status != models.VerificationStatusPending && reviewer != nil {
		reviewedAt := verification.SubmittedAt.Add(time.Duration(f.rng.Intn(48)+1) * time.Hour)
		verification.ReviewedBy = &reviewer.ID
		verification.ReviewedAt = &reviewedAt
		if status == models.VerificationStatusRejected {
			verification.Notes = "Document photo is too blurry to read"
		}
	}

	if err := f.db.Create(verification).Error; err != nil {
		return nil, err
	}
	return verification, nil
}

// CreateProduct persists a listing with its description and verification
// record. The verification is created in the given status.
func (f *Factory) CreateProduct(owner *models.User, reviewStatus models.VerificationStatus, reviewer *models.Admin, overrides ...func(*models.Product, *models.ProductDescription)) (*models.Product, error) {
	product := &models.Product{
		OwnerID:   owner.ID,
		Status:    models.ProductStatusAvailable,
		CreatedAt: f.spreadCreatedAt(),
	}

	description := &models.ProductDescription{
		Title:       gofakeit.ProductName(),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
	}
	images := make([]string, f.rng.Intn(3)+1)
	for i := range images {
		images[i] = fmt.Sprintf("products/%s.webp", gofakeit.UUID())
	}
	if err := description.SetProductImages(images); err != nil {
		return nil, err
	}
	categories := []string{productCategories[f.rng.Intn(len(productCategories))]}
	if err := description.SetCategories(categories); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(product, description)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		description.ProductID = product.ID
		if err := tx.Create(description).Error; err != nil {
			return err
		}

		verification := &models.ProductVerification{
			ProductID:   product.ID,
			Status:      reviewStatus,
			SubmittedAt: product.CreatedAt,
		}
		if reviewStatus != models.VerificationStatusPending && reviewer != nil {
			reviewedAt := product.CreatedAt.Add(time.Duration(f.rng.Intn(48)+1) * time.Hour)
			verification.ReviewedBy = &reviewer.ID
			verification.ReviewedAt = &reviewedAt
			if reviewStatus == models.VerificationStatusRejected {
				verification.Notes = "Listing photos do not match the description"
			}
		}
		return tx.Create(verification).Error
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// CreateAction persists an audit record for the given admin.
func (f *Factory) CreateAction(admin *models.Admin, action, targetType string, targetID *uint) error {
	return f.db.Create(&models.AdminAction{
		AdminID:    admin.ID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  f.spreadCreatedAt(),
	}).Error
}
