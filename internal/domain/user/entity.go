package user

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes dispatch managers from drivers
type Role string

const (
	RoleManager Role = "manager"
	RoleDriver  Role = "driver"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleDriver
}

// User represents an account that can sign in to the dashboard
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         Role       `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	IsStaff      bool       `db:"is_staff" json:"is_staff"`
	IsSuperuser  bool       `db:"is_superuser" json:"is_superuser"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// SuperuserSpec describes the administrative account provisioned on deploy
type SuperuserSpec struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}
