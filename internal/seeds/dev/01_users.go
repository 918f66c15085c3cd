package dev

import (
	"context"

	"greencart/internal/domain/user"
	"greencart/internal/testsupport/seeds"
)

// SeedUsers creates a dispatch manager and a driver login for development (idempotent)
func SeedUsers(ctx context.Context, s *seeds.Seeder) error {
	log := s.Log()

	_, err := s.User().
		WithUsername("dispatcher").
		WithEmail("dispatcher@greencart.local").
		WithName("Priya", "Sharma").
		WithPassword("dispatch123").
		WithRole(user.RoleManager).
		AsStaff().
		Insert()
	if err != nil {
		if !seeds.IsDuplicate(err) {
			return err
		}
		log.Infow("User already exists, skipping", "username", "dispatcher")
	} else {
		log.Infow("Created user", "username", "dispatcher")
	}

	_, err = s.User().
		WithUsername("driver_ravi").
		WithEmail("ravi@greencart.local").
		WithName("Ravi", "Kumar").
		WithPassword("driver123").
		WithRole(user.RoleDriver).
		Insert()
	if err != nil {
		if seeds.IsDuplicate(err) {
			log.Infow("User already exists, skipping", "username", "driver_ravi")
			return nil
		}
		return err
	}

	log.Infow("Created user", "username", "driver_ravi")
	return nil
}
