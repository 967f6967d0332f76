package seed

import (
	"fmt"
	"log"
	"os"
	"strings"

	"rentloop/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Plan is a declarative seed description loaded from YAML. It drives the
// random generators and pins down named accounts that demos can log in with.
type Plan struct {
	Clean      bool          `yaml:"clean"`
	SkipBcrypt bool          `yaml:"skip_bcrypt"`
	Customers  int           `yaml:"customers"`
	Sellers    int           `yaml:"sellers"`
	Products   int           `yaml:"products"`
	Accounts   []PlanAccount `yaml:"accounts"`
}

// PlanAccount pins a specific demo account with a known email.
type PlanAccount struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Verified bool   `yaml:"verified"`
	// Products is the number of approved listings to create for a
	// verified seller account.
	Products int `yaml:"products"`
}

// LoadPlan reads and validates a seed plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	raw, err := os.ReadFile(path) // #nosec G304: operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read seed plan: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("parse seed plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks the plan for impossible values.
func (p *Plan) Validate() error {
	if p.Customers < 0 || p.Sellers < 0 || p.Products < 0 {
		return fmt.Errorf("seed plan counts must not be negative")
	}
	seen := make(map[string]struct{}, len(p.Accounts))
	for i, account := range p.Accounts {
		email := strings.ToLower(strings.TrimSpace(account.Email))
		if email == "" {
			return fmt.Errorf("seed plan account %d is missing an email", i)
		}
		if _, dup := seen[email]; dup {
			return fmt.Errorf("seed plan account email %s appears more than once", email)
		}
		seen[email] = struct{}{}

		switch models.UserRole(strings.ToLower(account.Role)) {
		case models.UserRoleCustomer, models.UserRoleSeller:
		default:
			return fmt.Errorf("seed plan account %s has unknown role %q", email, account.Role)
		}
		if account.Products > 0 && (!account.Verified || strings.ToLower(account.Role) != string(models.UserRoleSeller)) {
			return fmt.Errorf("seed plan account %s requests listings but is not a verified seller", email)
		}
	}
	return nil
}

// SeedFromPlan runs the random seeder with the plan's counts, then creates
// the pinned accounts on top.
func SeedFromPlan(db *gorm.DB, plan *Plan) error {
	if err := Seed(db, Options{
		NumCustomers: plan.Customers,
		NumSellers:   plan.Sellers,
		NumProducts:  plan.Products,
		ShouldClean:  plan.Clean,
		SkipBcrypt:   plan.SkipBcrypt,
	}); err != nil {
		return err
	}

	if len(plan.Accounts) == 0 {
		return nil
	}

	var reviewer models.Admin
	if err := db.Where("role = ? AND status = ?", models.AdminRoleSuper, models.AdminStatusActive).
		First(&reviewer).Error; err != nil {
		return fmt.Errorf("no active super admin to review pinned accounts: %w", err)
	}

	factory := NewFactory(db, SeedOptions{SkipBcrypt: plan.SkipBcrypt})
	for _, account := range plan.Accounts {
		if err := createPlanAccount(factory, &reviewer, account); err != nil {
			return fmt.Errorf("failed to create pinned account %s: %w", account.Email, err)
		}
	}
	log.Printf("Created %d pinned accounts", len(plan.Accounts))
	return nil
}

func createPlanAccount(factory *Factory, reviewer *models.Admin, account PlanAccount) error {
	role := models.UserRole(strings.ToLower(account.Role))
	first, last := splitName(account.Name)

	user, err := factory.CreateUser(role, func(u *models.User) {
		u.FirstName = first
		u.LastName = last
		u.Email = strings.ToLower(strings.TrimSpace(account.Email))
	})
	if err != nil {
		return err
	}

	if account.Verified {
		if _, err := factory.CreateVerification(user, models.VerificationStatusVerified, reviewer); err != nil {
			return err
		}
	}

	for i := 0; i < account.Products; i++ {
		if _, err := factory.CreateProduct(user, models.VerificationStatusVerified, reviewer); err != nil {
			return err
		}
	}
	return nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "Demo", "Account"
	case 1:
		return parts[0], "Account"
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
