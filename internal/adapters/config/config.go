package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"greencart/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	HTTP          HTTPConfig
	Auth          AuthConfig
	Admin         AdminConfig
	Deploy        DeployConfig
	Storage       StorageConfig
	Workers       WorkersConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"greencart"`
	Version  string `envconfig:"APP_VERSION" default:"1.0.0"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// PostgresConfig is checked by Validate when a connection is opened, not at
// load time, so deploy steps that never touch the database run without it.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

// Validate reports every connection setting that is missing
func (c PostgresConfig) Validate() error {
	var missing []string
	for _, f := range []struct{ key, value string }{
		{"POSTGRES_HOST", c.Host},
		{"POSTGRES_USER", c.User},
		{"POSTGRES_PASSWORD", c.Password},
		{"POSTGRES_DB", c.Database},
	} {
		if f.value == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "required key(s) %s missing value", strings.Join(missing, ", "))
	}
	return nil
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig is optional: an empty host disables the cache and the
// token denylist falls back to process memory.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"KAFKA_BROKERS"`
	WriteTimeout time.Duration `envconfig:"KAFKA_WRITE_TIMEOUT" default:"5s"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type HTTPConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8000"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	DashboardTTL    time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"30s"`
}

type AuthConfig struct {
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"greencart-dev-secret-change-me-please"`
	TokenTTL       time.Duration `envconfig:"JWT_TTL" default:"24h"`
	LoginPerMinute int           `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
}

// AdminConfig describes the superuser created by the deploy pipeline.
type AdminConfig struct {
	Username  string `envconfig:"ADMIN_USERNAME" default:"admin"`
	Email     string `envconfig:"ADMIN_EMAIL" default:"admin@greencart.com"`
	Password  string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	FirstName string `envconfig:"ADMIN_FIRST_NAME" default:"Admin"`
	LastName  string `envconfig:"ADMIN_LAST_NAME" default:"User"`
}

type DeployConfig struct {
	// InstallCmd is split on whitespace; empty skips the install step.
	InstallCmd     string        `envconfig:"DEPLOY_INSTALL_CMD"`
	WorkDir        string        `envconfig:"DEPLOY_WORKDIR" default:"."`
	StaticDirs     []string      `envconfig:"DEPLOY_STATIC_DIRS" default:"static"`
	StaticRoot     string        `envconfig:"DEPLOY_STATIC_ROOT" default:"staticfiles"`
	DataDir        string        `envconfig:"DEPLOY_DATA_DIR" default:"data"`
	ExportDir      string        `envconfig:"DEPLOY_EXPORT_DIR" default:"exports"`
	StrictDataLoad bool          `envconfig:"DEPLOY_STRICT_DATA_LOAD" default:"false"`
	MigrateTimeout time.Duration `envconfig:"DEPLOY_MIGRATE_TIMEOUT" default:"1m"`
	// PushgatewayURL receives the deploy metrics when the release exits
	PushgatewayURL string `envconfig:"DEPLOY_PUSHGATEWAY_URL"`
}

// InstallArgs returns the install command as argv.
func (c DeployConfig) InstallArgs() []string {
	return strings.Fields(c.InstallCmd)
}

// StorageConfig is optional: an empty bucket keeps collected static files local.
type StorageConfig struct {
	Endpoint       string `envconfig:"STORAGE_ENDPOINT"`
	Region         string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	AccessKey      string `envconfig:"STORAGE_ACCESS_KEY"`
	SecretKey      string `envconfig:"STORAGE_SECRET_KEY"`
	ForcePathStyle bool   `envconfig:"STORAGE_FORCE_PATH_STYLE" default:"true"`
	Bucket         string `envconfig:"STORAGE_BUCKET"`
	Prefix         string `envconfig:"STORAGE_PREFIX" default:"static"`
}

func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

type WorkersConfig struct {
	DashboardWarmup   bool          `envconfig:"WORKER_DASHBOARD_WARMUP" default:"true"`
	DashboardInterval time.Duration `envconfig:"WORKER_DASHBOARD_INTERVAL" default:"25s"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if cfg.Workers.DashboardWarmup && cfg.Workers.DashboardInterval <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"WORKER_DASHBOARD_INTERVAL must be positive, got %s", cfg.Workers.DashboardInterval)
	}

	return &cfg, nil
}
