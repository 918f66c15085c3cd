package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"

	"greencart/internal/adapters/config"
	errnoop "greencart/internal/adapters/errors/noop"
	"greencart/internal/adapters/errors/sentry"
	"greencart/internal/adapters/kafka"
	"greencart/internal/adapters/memcache"
	pgclient "greencart/internal/adapters/postgres"
	redisclient "greencart/internal/adapters/redis"
	"greencart/internal/api"
	"greencart/internal/api/health"
	"greencart/internal/dashboard"
	"greencart/internal/dataload"
	"greencart/internal/domain/simulation"
	"greencart/internal/domain/user"
	"greencart/internal/events"
	"greencart/internal/metrics"
	pgrepo "greencart/internal/repository/postgres"
	"greencart/internal/workers"
	"greencart/pkg/auth"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg
	c.Lifecycle.SetHTTPTimeout(cfg.HTTP.ShutdownTimeout)

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects to Postgres and, when configured, Redis
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	c.Redis = provideRedis(c.Config, c.Log)
	if c.Redis != nil {
		c.Cache = c.Redis
	} else {
		c.Cache = memcache.New()
	}
}

// ========================================
// Phase 3: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	db := c.PG.DB()
	c.Repos.User = pgrepo.NewUserRepository(db)
	c.Repos.Driver = pgrepo.NewDriverRepository(db)
	c.Repos.Route = pgrepo.NewRouteRepository(db)
	c.Repos.Order = pgrepo.NewOrderRepository(db)
	c.Repos.Simulation = pgrepo.NewSimulationRepository(db)

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes the event publisher over Kafka when brokers are set
func (c *Container) MustInitAdapters() {
	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Adapters.Publisher = providePublisher(c.Adapters.KafkaProducer, c.Log)
}

// ========================================
// Phase 5: Domain Services
// ========================================

// MustInitServices wires the domain services
func (c *Container) MustInitServices() {
	c.Services.User = user.NewService(c.Repos.User)
	c.Services.Dashboard = dashboard.NewService(
		c.Repos.Driver,
		c.Repos.Route,
		c.Repos.Order,
		c.Repos.Simulation,
		c.Cache,
		c.Config.HTTP.DashboardTTL,
	)
	c.Services.Simulation = simulation.NewService(
		c.Repos.Simulation,
		c.Repos.Driver,
		c.Repos.Order,
		c.Repos.Route,
		c.Adapters.Publisher,
		c.Services.Dashboard,
	)
	c.Services.Loader = provideLoader(c.Config, c.PG, c.Adapters.Publisher)

	c.Services.Tokens = auth.NewIssuer(c.Config.Auth.JWTSecret, c.Config.App.Name, c.Config.Auth.TokenTTL)
	c.Services.Verifier = auth.NewVerifier(c.Services.Tokens, auth.NewDenylist(c.Cache))

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication initializes health checks, workers, metrics and the HTTP server
func (c *Container) MustInitApplication() {
	c.Application.HealthHandler = provideHealth(c.Config, c.PG, c.Redis, c.Log)
	c.Application.Scheduler = provideScheduler(c.Config, c.Services.Dashboard)

	c.Application.HTTPServer = provideHTTPServer(c.Config, api.Deps{
		Users:       c.Services.User,
		Superuser:   c.Services.User,
		Admin:       AdminSpec(c.Config),
		Tokens:      c.Services.Tokens,
		Verifier:    c.Services.Verifier,
		Drivers:     c.Repos.Driver,
		Routes:      c.Repos.Route,
		Orders:      c.Repos.Order,
		Simulations: c.Services.Simulation,
		Dashboard:   c.Services.Dashboard,
		Loader:      c.Services.Loader,
		Health:      c.Application.HealthHandler,
	}, c.Log)

	metrics.Init()
	metrics.RegisterCustomCollector(metrics.NewCustomCollector(c.Log, c.PG.DB()))
	c.Log.Info("✓ Metrics initialized")

	c.Log.Info("✓ Application layer initialized")
}

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(sentry.Options{
		DSN:         cfg.ErrorTracking.SentryDSN,
		Environment: cfg.ErrorTracking.Environment,
		Release:     cfg.App.Name + "@" + cfg.App.Version,
	})
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

// provideRedis connects when REDIS_HOST is set. A configured but unreachable
// Redis is not fatal; callers fall back to process memory.
func provideRedis(cfg *config.Config, log *logger.Logger) *redisclient.Client {
	if !cfg.Redis.Enabled() {
		log.Info("Redis not configured, using in-process cache")
		return nil
	}

	log.Info("Connecting to Redis...")
	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		log.Warnw("Redis unavailable, using in-process cache", "addr", cfg.Redis.Addr(), "error", err)
		return nil
	}
	log.Info("✓ Redis connected")
	return client
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled() {
		log.Info("Kafka brokers not configured, events are discarded")
		return nil
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	})
	log.Infow("✓ Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	return producer
}

func providePublisher(producer *kafka.Producer, log *logger.Logger) *events.Publisher {
	if producer == nil {
		return events.NewPublisher(events.NopSink{}, log)
	}
	return events.NewPublisher(producer, log)
}

// provideLoader builds a CSV loader whose writes share one transaction
func provideLoader(cfg *config.Config, pg *pgclient.Client, publisher *events.Publisher) *dataload.Loader {
	tx := func(ctx context.Context, fn func(dataload.Repos) error) error {
		return pg.WithTx(ctx, func(tx *sqlx.Tx) error {
			return fn(dataload.Repos{
				Drivers: pgrepo.NewDriverRepository(tx),
				Routes:  pgrepo.NewRouteRepository(tx),
				Orders:  pgrepo.NewOrderRepository(tx),
			})
		})
	}
	return dataload.NewLoader(cfg.Deploy.DataDir, tx, publisher)
}

func provideHealth(cfg *config.Config, pg *pgclient.Client, redis *redisclient.Client, log *logger.Logger) *health.Handler {
	h := health.New(log, cfg.App.Name, cfg.App.Version).Register("postgres", pg, true)
	if redis != nil {
		h.Register("redis", redis, false)
	}
	return h
}

func provideScheduler(cfg *config.Config, dash *dashboard.Service) *workers.Scheduler {
	s := workers.NewScheduler(cfg.HTTP.ShutdownTimeout)
	s.RegisterWorker(workers.NewDashboardWarmer(dash, cfg.Workers.DashboardInterval, cfg.Workers.DashboardWarmup))
	return s
}

func provideHTTPServer(cfg *config.Config, deps api.Deps, log *logger.Logger) *api.Server {
	return api.NewServer(api.ServerConfig{
		Port:           cfg.HTTP.Port,
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		LoginPerMinute: cfg.Auth.LoginPerMinute,
	}, deps, log)
}

// AdminSpec maps the admin settings onto the superuser the deploy creates
func AdminSpec(cfg *config.Config) user.SuperuserSpec {
	return user.SuperuserSpec{
		Username:  cfg.Admin.Username,
		Email:     cfg.Admin.Email,
		Password:  cfg.Admin.Password,
		FirstName: cfg.Admin.FirstName,
		LastName:  cfg.Admin.LastName,
	}
}
