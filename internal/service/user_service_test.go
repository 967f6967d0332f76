package service

import (
	"context"
	"testing"

	"rentloop/internal/config"
	"rentloop/internal/models"
	"rentloop/internal/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	getByPhoneFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	deleteFn     func(context.Context, uint) error
	listFn       func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.getByPhoneFn(ctx, phone)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func newUserTestService(repo *userRepoStub) *UserService {
	tokenSvc := tokens.NewService(&config.Config{JWTSecret: "test-secret", TokenTTLHours: 1}, nil)
	return NewUserService(repo, tokenSvc)
}

func noExistingUsers() *userRepoStub {
	return &userRepoStub{
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByPhoneFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn: func(_ context.Context, user *models.User) error {
			user.ID = 1
			return nil
		},
	}
}

func TestUserRegister(t *testing.T) {
	t.Parallel()
	svc := newUserTestService(noExistingUsers())

	user, err := svc.Register(context.Background(), RegisterUserInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@rentloop.test",
		Phone:     "+15551234567",
		Password:  testPassword,
		Role:      models.UserRoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleSeller, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(testPassword)))
}

func TestUserRegisterDefaultsToCustomer(t *testing.T) {
	t.Parallel()
	svc := newUserTestService(noExistingUsers())

	user, err := svc.Register(context.Background(), RegisterUserInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@rentloop.test",
		Phone:     "+15551234567",
		Password:  testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleCustomer, user.Role)
}

func TestUserRegisterValidation(t *testing.T) {
	t.Parallel()
	svc := newUserTestService(noExistingUsers())
	ctx := context.Background()

	base := RegisterUserInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@rentloop.test",
		Phone:     "+15551234567",
		Password:  testPassword,
	}

	tests := []struct {
		name   string
		mutate func(in RegisterUserInput) RegisterUserInput
	}{
		{"missing first name", func(in RegisterUserInput) RegisterUserInput { in.FirstName = ""; return in }},
		{"bad email", func(in RegisterUserInput) RegisterUserInput { in.Email = "nope"; return in }},
		{"bad phone", func(in RegisterUserInput) RegisterUserInput { in.Phone = "abc"; return in }},
		{"weak password", func(in RegisterUserInput) RegisterUserInput { in.Password = "password"; return in }},
		{"bad role", func(in RegisterUserInput) RegisterUserInput { in.Role = "wizard"; return in }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.mutate(base))
			assertAppErrorCode(t, err, models.CodeValidation)
		})
	}
}

func TestUserRegisterDuplicates(t *testing.T) {
	t.Parallel()
	existing := &models.User{ID: 9, Email: "ada@rentloop.test", Phone: "+15551234567"}

	svc := newUserTestService(&userRepoStub{
		getByEmailFn: func(context.Context, string) (*models.User, error) { return existing, nil },
	})
	_, err := svc.Register(context.Background(), RegisterUserInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@rentloop.test", Phone: "+15551234567", Password: testPassword,
	})
	assertAppErrorCode(t, err, models.CodeConflict)

	svc = newUserTestService(&userRepoStub{
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByPhoneFn: func(context.Context, string) (*models.User, error) { return existing, nil },
	})
	_, err = svc.Register(context.Background(), RegisterUserInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "other@rentloop.test", Phone: "+15551234567", Password: testPassword,
	})
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestUserLogin(t *testing.T) {
	t.Parallel()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 5, Email: "ada@rentloop.test", Password: string(hashed), Active: true}

	svc := newUserTestService(&userRepoStub{
		getByEmailFn: func(context.Context, string) (*models.User, error) { return stored, nil },
	})

	token, user, err := svc.Login(context.Background(), "ada@rentloop.test", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, uint(5), user.ID)
}

func TestUserLoginFailures(t *testing.T) {
	t.Parallel()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		svc := newUserTestService(&userRepoStub{
			getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		})
		_, _, err := svc.Login(context.Background(), "ghost@rentloop.test", testPassword)
		assertAppErrorCode(t, err, models.CodeUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		stored := &models.User{ID: 5, Password: string(hashed), Active: true}
		svc := newUserTestService(&userRepoStub{
			getByEmailFn: func(context.Context, string) (*models.User, error) { return stored, nil },
		})
		_, _, err := svc.Login(context.Background(), "ada@rentloop.test", "Wr0ngPassword!x")
		assertAppErrorCode(t, err, models.CodeUnauthorized)
	})

	t.Run("disabled account", func(t *testing.T) {
		stored := &models.User{ID: 5, Password: string(hashed), Active: false}
		svc := newUserTestService(&userRepoStub{
			getByEmailFn: func(context.Context, string) (*models.User, error) { return stored, nil },
		})
		_, _, err := svc.Login(context.Background(), "ada@rentloop.test", testPassword)
		assertAppErrorCode(t, err, models.CodeForbidden)
	})
}

func TestUserUpdateProfile(t *testing.T) {
	t.Parallel()
	stored := &models.User{ID: 5, FirstName: "Ada", LastName: "Lovelace"}
	var saved *models.User

	svc := newUserTestService(&userRepoStub{
		getByIDFn: func(context.Context, uint) (*models.User, error) { return stored, nil },
		updateFn: func(_ context.Context, user *models.User) error {
			saved = user
			return nil
		},
	})

	user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:    5,
		FirstName: "Augusta",
		Avatar:    "documents/avatar.webp",
	})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName, "unset fields stay untouched")
	assert.Equal(t, "documents/avatar.webp", user.Avatar)
	require.NotNil(t, saved)
}
