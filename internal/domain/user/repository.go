package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user data access
// Implementation lives in internal/repository/postgres/user.go
type Repository interface {
	Create(ctx context.Context, user *User) error

	// CreateIfAbsent inserts the user unless the username is taken.
	// Returns false when a row with the same username already existed.
	CreateIfAbsent(ctx context.Context, user *User) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, error)
}
