package seeds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"greencart/internal/domain/user"
	"greencart/internal/testsupport"
	"greencart/pkg/crypto"
)

// DefaultPassword is the plaintext password given to seeded users
const DefaultPassword = "password123"

// UserBuilder provides a fluent API for creating User entities
type UserBuilder struct {
	db       DBTX
	ctx      context.Context
	entity   *user.User
	password string
}

// NewUserBuilder creates a new UserBuilder with sensible defaults
func NewUserBuilder(db DBTX, ctx context.Context) *UserBuilder {
	now := time.Now()
	username := testsupport.UniqueUsername()
	return &UserBuilder{
		db:       db,
		ctx:      ctx,
		password: DefaultPassword,
		entity: &user.User{
			ID:        uuid.New(),
			Username:  username,
			Email:     username + "@test.local",
			FirstName: "Test",
			LastName:  "User",
			Role:      user.RoleManager,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithID sets a specific ID
func (b *UserBuilder) WithID(id uuid.UUID) *UserBuilder {
	b.entity.ID = id
	return b
}

// WithUsername sets the login name
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.entity.Username = username
	return b
}

// WithEmail sets the email address
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.entity.Email = email
	return b
}

// WithName sets first and last name
func (b *UserBuilder) WithName(first, last string) *UserBuilder {
	b.entity.FirstName = first
	b.entity.LastName = last
	return b
}

// WithPassword sets the plaintext password hashed on insert
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithRole sets the role
func (b *UserBuilder) WithRole(role user.Role) *UserBuilder {
	b.entity.Role = role
	return b
}

// WithActive sets the active status
func (b *UserBuilder) WithActive(active bool) *UserBuilder {
	b.entity.IsActive = active
	return b
}

// AsStaff grants dashboard administration rights
func (b *UserBuilder) AsStaff() *UserBuilder {
	b.entity.IsStaff = true
	return b
}

// AsSuperuser marks the user as staff and superuser
func (b *UserBuilder) AsSuperuser() *UserBuilder {
	b.entity.IsStaff = true
	b.entity.IsSuperuser = true
	return b
}

// Build returns the built entity without inserting to DB
func (b *UserBuilder) Build() *user.User {
	return b.entity
}

// Insert hashes the password, inserts the user and returns the entity
func (b *UserBuilder) Insert() (*user.User, error) {
	hash, err := crypto.HashPassword(b.password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	b.entity.PasswordHash = string(hash)

	query := `
		INSERT INTO users (
			id, username, email, password_hash, first_name, last_name, role,
			is_active, is_staff, is_superuser, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = b.db.ExecContext(
		b.ctx,
		query,
		b.entity.ID,
		b.entity.Username,
		b.entity.Email,
		b.entity.PasswordHash,
		b.entity.FirstName,
		b.entity.LastName,
		b.entity.Role,
		b.entity.IsActive,
		b.entity.IsStaff,
		b.entity.IsSuperuser,
		b.entity.CreatedAt,
		b.entity.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return b.entity, nil
}

// MustInsert inserts the user and panics on error (useful for tests)
func (b *UserBuilder) MustInsert() *user.User {
	entity, err := b.Insert()
	if err != nil {
		panic(err)
	}
	return entity
}
