package postgres

import (
	"context"

	"github.com/google/uuid"

	"greencart/internal/domain/user"
)

// Compile-time check that we implement the interface
var _ user.Repository = (*UserRepository)(nil)

const userColumns = `id, username, email, password_hash, first_name, last_name, role,
	is_active, is_staff, is_superuser, last_login, created_at, updated_at`

// UserRepository implements user.Repository using sqlx
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (
			:id, :username, :email, :password_hash, :first_name, :last_name, :role,
			:is_active, :is_staff, :is_superuser, :last_login, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, u)
	return mapError(err, "user")
}

// CreateIfAbsent inserts the user unless the username is already taken
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *user.User) (bool, error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (
			:id, :username, :email, :password_hash, :first_name, :last_name, :role,
			:is_active, :is_staff, :is_superuser, :last_login, :created_at, :updated_at
		)
		ON CONFLICT (username) DO NOTHING`

	res, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		return false, mapError(err, "user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &u, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var u user.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &u, nil
}

// ExistsByUsername checks whether a username is taken
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, mapError(err, "user")
	}
	return exists, nil
}

// TouchLastLogin records a successful sign in
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "user")
	}
	return affectedOrNotFound(res, "user")
}

// List retrieves paginated list of users
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	var users []*user.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, mapError(err, "user")
	}
	return users, nil
}
