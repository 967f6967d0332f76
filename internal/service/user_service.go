package service

import (
	"context"
	"strings"

	"rentloop/internal/models"
	"rentloop/internal/observability"
	"rentloop/internal/repository"
	"rentloop/internal/tokens"
	"rentloop/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService manages marketplace accounts.
type UserService struct {
	userRepo repository.UserRepository
	tokens   *tokens.Service
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, tokenSvc *tokens.Service) *UserService {
	return &UserService{userRepo: userRepo, tokens: tokenSvc}
}

// RegisterUserInput is the input for user registration.
type RegisterUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      models.UserRole
}

// UpdateProfileInput is the input for profile updates. Empty fields are left
// untouched.
type UpdateProfileInput struct {
	UserID    uint
	FirstName string
	LastName  string
	Avatar    string
	// Active toggles the account. Deactivating revokes every session
	// before the record update completes.
	Active *bool
}

// Register creates a new customer or seller account.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	if err := validation.ValidateName(in.FirstName); err != nil {
		return nil, models.NewValidationError("first name: " + err.Error())
	}
	if err := validation.ValidateName(in.LastName); err != nil {
		return nil, models.NewValidationError("last name: " + err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	role := in.Role
	if role == "" {
		role = models.UserRoleCustomer
	}
	if role != models.UserRoleCustomer && role != models.UserRoleSeller {
		return nil, models.NewValidationError("Role must be 'customer' or 'seller'")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Email is already registered")
	}
	if existing, err := s.userRepo.GetByPhone(ctx, in.Phone); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Phone number is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  string(hashed),
		Role:      role,
		Active:    true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user by email or phone and issues an access token.
func (s *UserService) Login(ctx context.Context, identifier, password string) (string, *models.User, error) {
	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	} else {
		user, err = s.userRepo.GetByPhone(ctx, identifier)
	}
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		observability.AuthFailures.WithLabelValues("user", "unknown_account").Inc()
		return "", nil, models.NewUnauthorizedError("Invalid email or password")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		observability.AuthFailures.WithLabelValues("user", "bad_password").Inc()
		return "", nil, models.NewUnauthorizedError("Invalid email or password")
	}

	if !user.Active {
		observability.AuthFailures.WithLabelValues("user", "disabled").Inc()
		return "", nil, models.NewForbiddenError("Account is disabled")
	}

	token, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	return token, user, nil
}

// LogoutAll revokes every outstanding token for the user.
func (s *UserService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.tokens.RevokeAll(ctx, models.PrincipalTypeUser, userID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID returns the user with the given id.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List returns user accounts for admin views.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// UpdateProfile applies partial profile edits.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != "" {
		if err := validation.ValidateName(in.FirstName); err != nil {
			return nil, models.NewValidationError("first name: " + err.Error())
		}
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		if err := validation.ValidateName(in.LastName); err != nil {
			return nil, models.NewValidationError("last name: " + err.Error())
		}
		user.LastName = in.LastName
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}
	if in.Active != nil && *in.Active != user.Active {
		user.Active = *in.Active
		if !user.Active {
			if err := s.tokens.RevokeAll(ctx, models.PrincipalTypeUser, user.ID); err != nil {
				return nil, models.NewInternalError(err)
			}
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
