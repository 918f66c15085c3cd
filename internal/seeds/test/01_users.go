package test

import (
	"context"

	"greencart/internal/testsupport/seeds"
)

// SeedUsers creates predictable accounts for end-to-end tests (idempotent)
func SeedUsers(ctx context.Context, s *seeds.Seeder) error {
	users := []*seeds.UserBuilder{
		s.User().
			WithUsername("test_admin").
			WithEmail("test_admin@test.local").
			WithPassword("test123").
			AsSuperuser(),
		s.User().
			WithUsername("test_manager").
			WithEmail("test_manager@test.local").
			WithPassword("test123"),
	}

	for _, b := range users {
		u, err := b.Insert()
		if err != nil {
			if seeds.IsDuplicate(err) {
				s.Log().Infow("User already exists, skipping", "username", b.Build().Username)
				continue
			}
			return err
		}
		s.Log().Infow("Created test user", "username", u.Username)
	}

	return nil
}
