package fakes

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"greencart/internal/domain/user"
	"greencart/pkg/errors"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository is an in-memory user.Repository
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return err
	}
	if r.byUsername(u.Username) != nil {
		return errors.Wrap(errors.ErrAlreadyExists, "user already exists")
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) CreateIfAbsent(_ context.Context, u *user.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.CreateIfAbsent"); err != nil {
		return false, err
	}
	if r.byUsername(u.Username) != nil {
		return false, nil
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return true, nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.byUsername(username)
	if u == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.ExistsByUsername"); err != nil {
		return false, err
	}
	return r.byUsername(username) != nil, nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "user not found")
	}
	now := r.s.Now()
	u.LastLogin = &now
	return nil
}

func (r *UserRepository) List(_ context.Context, limit, offset int) ([]*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), nil
}

// Count returns the number of stored users
func (r *UserRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users)
}

func (r *UserRepository) byUsername(username string) *user.User {
	for _, u := range r.s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
