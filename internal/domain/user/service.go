package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"greencart/pkg/crypto"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// Service provides business logic for user operations.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService constructs a user service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, log: logger.Get().With("component", "user_service")}
}

// Create registers a new user, hashing the plaintext password.
func (s *Service) Create(ctx context.Context, user *User, password string) error {
	if user == nil {
		return fmt.Errorf("create user: user is nil")
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("create user: %w", errors.NewValidationError("username", "required", user.Username))
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = RoleManager
	}
	if !user.Role.Valid() {
		return fmt.Errorf("create user: %w", errors.NewValidationError("role", "must be manager or driver", user.Role))
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("create user: hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// EnsureSuperuser creates the administrative account unless one with the same
// username already exists. It returns true when a user was created.
func (s *Service) EnsureSuperuser(ctx context.Context, spec SuperuserSpec) (bool, error) {
	if strings.TrimSpace(spec.Username) == "" {
		return false, errors.NewValidationError("username", "required", spec.Username)
	}
	if spec.Password == "" {
		return false, errors.NewValidationError("password", "required", "")
	}

	exists, err := s.repo.ExistsByUsername(ctx, spec.Username)
	if err != nil {
		return false, fmt.Errorf("ensure superuser: %w", err)
	}
	if exists {
		s.log.Infow("Superuser already exists", "username", spec.Username)
		return false, nil
	}

	hash, err := crypto.HashPassword(spec.Password)
	if err != nil {
		return false, fmt.Errorf("ensure superuser: hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &User{
		ID:           uuid.New(),
		Username:     spec.Username,
		Email:        spec.Email,
		PasswordHash: string(hash),
		FirstName:    spec.FirstName,
		LastName:     spec.LastName,
		Role:         RoleManager,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// A concurrent deploy may win the race between the check and the insert.
	created, err := s.repo.CreateIfAbsent(ctx, admin)
	if err != nil {
		return false, fmt.Errorf("ensure superuser: %w", err)
	}
	if created {
		s.log.Infow("Created superuser", "username", spec.Username, "user_id", admin.ID)
	}
	return created, nil
}

// Authenticate verifies credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, errors.NewValidationError("credentials", "must provide username and password", username)
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := crypto.ComparePassword([]byte(u.PasswordHash), password); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, errors.ErrAccountDisabled
	}

	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		s.log.Warnw("Failed to record last login", "user_id", u.ID, "error", err)
	}
	return u, nil
}

// GetByID fetches a user by UUID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("get user: id is required")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns a paginated list of users.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 20
	}
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
