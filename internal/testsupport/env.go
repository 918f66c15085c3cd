package testsupport

import (
	"os"
	"testing"

	"github.com/kelseyhightower/envconfig"

	"greencart/internal/adapters/config"
)

// DatabaseConfigs bundles config sections required for integration tests.
type DatabaseConfigs struct {
	Postgres config.PostgresConfig
	Redis    config.RedisConfig
}

var requiredIntegrationEnv = []string{
	"POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
}

// LoadDatabaseConfigsFromEnv reads the Postgres and Redis sections with the
// same envconfig tags the service uses. The test is skipped unless the
// Postgres connection variables are set. Redis stays optional; check
// Redis.Enabled() before using it.
func LoadDatabaseConfigsFromEnv(t *testing.T) DatabaseConfigs {
	t.Helper()

	var missing []string
	for _, key := range requiredIntegrationEnv {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		t.Skipf("integration environment missing, set %v to run", missing)
	}

	var cfg DatabaseConfigs
	if err := envconfig.Process("", &cfg); err != nil {
		t.Fatalf("invalid integration environment: %v", err)
	}
	return cfg
}
