package staging

import (
	"context"

	"greencart/internal/domain/user"
	"greencart/internal/testsupport/seeds"
)

// SeedUsers creates the non-staff QA login used on staging (idempotent)
func SeedUsers(ctx context.Context, s *seeds.Seeder) error {
	_, err := s.User().
		WithUsername("qa").
		WithEmail("qa@greencart.local").
		WithName("QA", "Reviewer").
		WithPassword("qa-review-123").
		WithRole(user.RoleManager).
		Insert()
	if err != nil {
		if seeds.IsDuplicate(err) {
			s.Log().Infow("User already exists, skipping", "username", "qa")
			return nil
		}
		return err
	}

	s.Log().Infow("Created user", "username", "qa")
	return nil
}
