package seed

import (
	"os"
	"path/filepath"
	"testing"

	"rentloop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlanFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writePlanFile(t, `
clean: true
skip_bcrypt: true
customers: 4
sellers: 5
products: 6
accounts:
  - name: Demo Seller
    email: demo.seller@rentloop.dev
    role: seller
    verified: true
    products: 2
  - name: Demo Customer
    email: demo.customer@rentloop.dev
    role: customer
`)

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.True(t, plan.Clean)
	assert.Equal(t, 4, plan.Customers)
	assert.Equal(t, 5, plan.Sellers)
	assert.Equal(t, 6, plan.Products)
	require.Len(t, plan.Accounts, 2)
	assert.Equal(t, "demo.seller@rentloop.dev", plan.Accounts[0].Email)
	assert.Equal(t, 2, plan.Accounts[0].Products)
}

func TestLoadPlanRejectsBadAccounts(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing email",
			yaml: "accounts:\n  - name: No Email\n    role: customer\n",
		},
		{
			name: "unknown role",
			yaml: "accounts:\n  - email: a@b.c\n    role: wizard\n",
		},
		{
			name: "duplicate email",
			yaml: "accounts:\n  - email: a@b.c\n    role: customer\n  - email: A@b.c\n    role: customer\n",
		},
		{
			name: "listings for unverified seller",
			yaml: "accounts:\n  - email: a@b.c\n    role: seller\n    products: 3\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePlanFile(t, tt.yaml)
			_, err := LoadPlan(path)
			assert.Error(t, err)
		})
	}
}

func TestSeedFromPlan(t *testing.T) {
	db := setupSeedDB(t)

	err := SeedFromPlan(db, &Plan{
		SkipBcrypt: true,
		Customers:  2,
		Sellers:    5,
		Products:   4,
		Accounts: []PlanAccount{
			{Name: "Demo Seller", Email: "Demo.Seller@rentloop.dev", Role: "seller", Verified: true, Products: 2},
			{Name: "Demo", Email: "demo.customer@rentloop.dev", Role: "customer"},
		},
	})
	require.NoError(t, err)

	var seller models.User
	require.NoError(t, db.Where("email = ?", "demo.seller@rentloop.dev").First(&seller).Error)
	assert.Equal(t, models.UserRoleSeller, seller.Role)
	assert.Equal(t, "Demo", seller.FirstName)
	assert.Equal(t, "Seller", seller.LastName)

	var verification models.UserVerification
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&verification).Error)
	assert.Equal(t, models.VerificationStatusVerified, verification.Status)
	require.NotNil(t, verification.ReviewedBy)

	var listingCount int64
	require.NoError(t, db.Model(&models.Product{}).Where("owner_id = ?", seller.ID).Count(&listingCount).Error)
	assert.EqualValues(t, 2, listingCount)

	var customer models.User
	require.NoError(t, db.Where("email = ?", "demo.customer@rentloop.dev").First(&customer).Error)
	assert.Equal(t, models.UserRoleCustomer, customer.Role)
}
