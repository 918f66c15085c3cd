package bootstrap

import (
	"context"
	"sync"
	"time"

	"greencart/internal/adapters/config"
	"greencart/internal/adapters/kafka"
	pgclient "greencart/internal/adapters/postgres"
	redisclient "greencart/internal/adapters/redis"
	"greencart/internal/api"
	"greencart/internal/api/health"
	"greencart/internal/dashboard"
	"greencart/internal/dataload"
	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/domain/simulation"
	"greencart/internal/domain/user"
	"greencart/internal/events"
	"greencart/internal/workers"
	"greencart/pkg/auth"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// Cache is the key-value surface shared by the dashboard cache and the
// token denylist. The Redis client and the in-process memcache satisfy it.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (Data stores)
	PG    *pgclient.Client
	Redis *redisclient.Client // nil when REDIS_HOST is unset
	Cache Cache

	// Domain Layer - Repositories
	Repos *Repositories

	// Domain Layer - Services
	Services *Services

	// External Adapters
	Adapters *Adapters

	// Application Layer
	Application *Application

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	User       user.Repository
	Driver     driver.Repository
	Route      route.Repository
	Order      order.Repository
	Simulation simulation.Repository
}

// Services groups all domain services
type Services struct {
	User       *user.Service
	Simulation *simulation.Service
	Dashboard  *dashboard.Service
	Loader     *dataload.Loader
	Tokens     *auth.Issuer
	Verifier   *auth.Verifier
}

// Adapters groups all external adapters
type Adapters struct {
	KafkaProducer *kafka.Producer // nil when KAFKA_BROKERS is unset
	Publisher     *events.Publisher
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
	Scheduler     *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Services:    &Services{},
		Adapters:    &Adapters{},
		Application: &Application{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
}

// Start starts the background workers and the HTTP server
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	if err := c.Application.Scheduler.Start(c.Context); err != nil {
		return err
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Application.Scheduler,
		c.Adapters.KafkaProducer,
		c.PG,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
