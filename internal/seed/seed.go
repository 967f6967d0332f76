package seed

import (
	"fmt"
	"log"

	"rentloop/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumCustomers int
	NumSellers   int
	NumProducts  int
	ShouldClean  bool
	SkipBcrypt   bool
}

// Seed populates the database with demo marketplace data: a super admin,
// moderators in every lifecycle state, customers and sellers with mixed
// verification outcomes, and listings across the moderation pipeline.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database: %d customers, %d sellers, %d products...",
		opts.NumCustomers, opts.NumSellers, opts.NumProducts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Printf("Warning: could not clear all existing data: %v", err)
		}
	}

	factory := NewFactory(db, SeedOptions{SkipBcrypt: opts.SkipBcrypt})

	super, moderators, err := createAdmins(factory)
	if err != nil {
		return fmt.Errorf("failed to create admins: %w", err)
	}
	log.Printf("Created 1 super admin and %d moderators", len(moderators))

	customers, sellers, err := createUsers(factory, opts.NumCustomers, opts.NumSellers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("Created %d customers and %d sellers", len(customers), len(sellers))

	verifiedSellers, err := createVerifications(factory, customers, sellers, moderators)
	if err != nil {
		return fmt.Errorf("failed to create verifications: %w", err)
	}
	log.Printf("Created identity verifications (%d sellers verified)", len(verifiedSellers))

	if err := createProducts(factory, verifiedSellers, moderators, opts.NumProducts); err != nil {
		return fmt.Errorf("failed to create products: %w", err)
	}
	log.Printf("Created %d products", opts.NumProducts)

	if err := factory.CreateAction(super, models.ActionLogin, models.TargetTypeSystem, nil); err != nil {
		return fmt.Errorf("failed to create audit records: %w", err)
	}

	log.Println("Seeding complete")
	return nil
}

// clearData wipes seedable tables in dependency order.
func clearData(db *gorm.DB) error {
	tables := []interface{}{
		&models.AdminAction{},
		&models.ProductVerification{},
		&models.ProductDescription{},
		&models.Product{},
		&models.UserVerification{},
		&models.User{},
		&models.Admin{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createAdmins(factory *Factory) (*models.Admin, []*models.Admin, error) {
	super, err := factory.CreateAdmin(models.AdminRoleSuper, models.AdminStatusActive, func(a *models.Admin) {
		a.Name = "Root Admin"
		a.Email = "root@rentloop.dev"
	})
	if err != nil {
		return nil, nil, err
	}

	var moderators []*models.Admin
	for i := 0; i < 3; i++ {
		moderator, err := factory.CreateAdmin(models.AdminRoleModerator, models.AdminStatusActive, func(a *models.Admin) {
			a.ApprovedByID = &super.ID
			a.ApprovedAt = &a.CreatedAt
		})
		if err != nil {
			return nil, nil, err
		}
		moderators = append(moderators, moderator)
	}

	// One pending registration and one banned account so every lifecycle
	// state is visible in the back office.
	if _, err := factory.CreateAdmin(models.AdminRoleModerator, models.AdminStatusPending); err != nil {
		return nil, nil, err
	}
	if _, err := factory.CreateAdmin(models.AdminRoleModerator, models.AdminStatusBanned, func(a *models.Admin) {
		a.ApprovedByID = &super.ID
		a.ApprovedAt = &a.CreatedAt
		a.RejectionReason = "Approved listings without reviewing them"
	}); err != nil {
		return nil, nil, err
	}

	return super, moderators, nil
}

func createUsers(factory *Factory, numCustomers, numSellers int) ([]*models.User, []*models.User, error) {
	customers := make([]*models.User, 0, numCustomers)
	for i := 0; i < numCustomers; i++ {
		customer, err := factory.CreateUser(models.UserRoleCustomer)
		if err != nil {
			return nil, nil, err
		}
		customers = append(customers, customer)
	}

	sellers := make([]*models.User, 0, numSellers)
	for i := 0; i < numSellers; i++ {
		seller, err := factory.CreateUser(models.UserRoleSeller)
		if err != nil {
			return nil, nil, err
		}
		sellers = append(sellers, seller)
	}

	return customers, sellers, nil
}

// createVerifications gives most sellers a verified identity and spreads the
// remaining records across pending and rejected so review queues have content.
func createVerifications(factory *Factory, customers, sellers []*models.User, moderators []*models.Admin) ([]*models.User, error) {
	reviewer := moderators[0]

	var verifiedSellers []*models.User
	for i, seller := range sellers {
		status := models.VerificationStatusVerified
		switch i % 5 {
		case 3:
			status = models.VerificationStatusPending
		case 4:
			status = models.VerificationStatusRejected
		}
		if _, err := factory.CreateVerification(seller, status, reviewer); err != nil {
			return nil, err
		}
		if status == models.VerificationStatusVerified {
			verifiedSellers = append(verifiedSellers, seller)
		}
	}

	// Roughly half the customers verify too, so rentals are possible.
	for i, customer := range customers {
		if i%2 != 0 {
			continue
		}
		if _, err := factory.CreateVerification(customer, models.VerificationStatusVerified, reviewer); err != nil {
			return nil, err
		}
	}

	return verifiedSellers, nil
}

func createProducts(factory *Factory, sellers []*models.User, moderators []*models.Admin, count int) error {
	if len(sellers) == 0 {
		return fmt.Errorf("no verified sellers to own products")
	}
	reviewer := moderators[len(moderators)-1]

	for i := 0; i < count; i++ {
		owner := sellers[i%len(sellers)]
		status := models.VerificationStatusVerified
		switch i % 4 {
		case 2:
			status = models.VerificationStatusPending
		case 3:
			status = models.VerificationStatusRejected
		}

		product, err := factory.CreateProduct(owner, status, reviewer)
		if err != nil {
			return err
		}

		// A few approved listings are currently rented out.
		if status == models.VerificationStatusVerified && i%6 == 0 {
			if err := factory.db.Model(product).
				Update("status", models.ProductStatusRented).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
