package bootstrap

import (
	"context"
	"io"
	"sync"
	"time"

	"greencart/internal/adapters/config"
	"greencart/internal/adapters/kafka"
	pgclient "greencart/internal/adapters/postgres"
	redisclient "greencart/internal/adapters/redis"
	"greencart/internal/adapters/storage"
	"greencart/internal/dataload"
	"greencart/internal/deploy"
	"greencart/internal/domain/user"
	"greencart/internal/events"
	"greencart/internal/metrics"
	"greencart/internal/migrations"
	pgrepo "greencart/internal/repository/postgres"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// Release wires the deploy pipeline. Postgres is dialled by the first step
// that needs it, so install and collectstatic run without a database.
type Release struct {
	cfg     *config.Config
	log     *logger.Logger
	tracker errors.Tracker

	mu sync.Mutex
	pg *pgclient.Client

	redis    *redisclient.Client
	producer *kafka.Producer
}

// NewRelease loads configuration and sets up logging and error tracking
func NewRelease() (*Release, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		return nil, errors.Wrap(err, "init logger")
	}
	log := logger.Get().With("component", "deploy")

	tracker := provideErrorTracker(cfg, log)
	logger.SetErrorTracker(tracker)

	return &Release{cfg: cfg, log: log, tracker: tracker}, nil
}

// Config returns the loaded configuration
func (r *Release) Config() *config.Config {
	return r.cfg
}

// Pipeline assembles install, collectstatic, migrate, createsuperuser and
// loaddata in that order, writing progress to out.
func (r *Release) Pipeline(ctx context.Context, out io.Writer) (*deploy.Pipeline, error) {
	uploader, err := r.uploader(ctx)
	if err != nil {
		return nil, err
	}

	r.producer = provideKafkaProducer(r.cfg, r.log)
	publisher := providePublisher(r.producer, r.log)

	steps := []deploy.Step{
		deploy.NewInstallStep(r.cfg.Deploy.InstallArgs(), r.cfg.Deploy.WorkDir),
		deploy.NewCollectStaticStep(r.cfg.Deploy.StaticDirs, r.cfg.Deploy.StaticRoot, uploader),
		deploy.NewMigrateStep(releaseMigrator{r}),
		deploy.NewSuperuserStep(releaseUsers{r}, AdminSpec(r.cfg)),
		deploy.NewLoadDataStep(releaseLoader{r, publisher}, r.cfg.Deploy.StrictDataLoad),
	}

	opts := []deploy.Option{
		deploy.WithLogger(r.log),
		deploy.WithTracker(r.tracker),
		deploy.WithPublisher(publisher),
	}
	if r.redis = provideRedis(r.cfg, r.log); r.redis != nil {
		opts = append(opts, deploy.WithLocker(r.redis, 0))
	}

	return deploy.New(out, steps, opts...), nil
}

// uploader returns the S3 target for collected files, or nil when no
// bucket is configured
func (r *Release) uploader(ctx context.Context) (deploy.Uploader, error) {
	if !r.cfg.Storage.Enabled() {
		return nil, nil
	}
	s3, err := storage.NewS3(ctx, r.cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "configure object storage")
	}
	r.log.Infow("Static files will be uploaded", "bucket", s3.Bucket())
	return s3, nil
}

// db connects to Postgres once and reuses the client
func (r *Release) db() (*pgclient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pg != nil {
		return r.pg, nil
	}
	pg, err := pgclient.NewClient(r.cfg.Postgres)
	if err != nil {
		return nil, err
	}
	r.pg = pg
	return pg, nil
}

// Export writes the stored drivers, routes and orders to timestamped CSV
// files in the export directory and returns their paths
func (r *Release) Export(ctx context.Context) ([]string, error) {
	pg, err := r.db()
	if err != nil {
		return nil, err
	}
	repos := dataload.Repos{
		Drivers: pgrepo.NewDriverRepository(pg.DB()),
		Routes:  pgrepo.NewRouteRepository(pg.DB()),
		Orders:  pgrepo.NewOrderRepository(pg.DB()),
	}
	return dataload.Export(ctx, repos, r.cfg.Deploy.ExportDir, time.Now())
}

// Close pushes the deploy metrics and releases every connection the
// release opened
func (r *Release) Close(ctx context.Context) {
	r.pushMetrics(ctx)
	if r.producer != nil {
		if err := r.producer.Close(); err != nil {
			r.log.Warnw("Kafka producer close failed", "error", err)
		}
	}
	if r.tracker != nil {
		if err := r.tracker.Flush(ctx); err != nil {
			r.log.Warnw("Error tracker flush failed", "error", err)
		}
	}
	NewLifecycle().closeDatabases(r.pg, r.redis, r.log)
	_ = logger.Sync()
}

const deployMetricsJob = "greencart_deploy"

func (r *Release) pushMetrics(ctx context.Context) {
	url := r.cfg.Deploy.PushgatewayURL
	if url == "" {
		return
	}
	if err := metrics.PushDeploy(ctx, url, deployMetricsJob); err != nil {
		r.log.Warnw("Failed to push deploy metrics", "gateway", url, "error", err)
		return
	}
	r.log.Infow("Deploy metrics pushed", "gateway", url, "job", deployMetricsJob)
}

type releaseMigrator struct{ r *Release }

func (m releaseMigrator) Up(ctx context.Context) (int, error) {
	pg, err := m.r.db()
	if err != nil {
		return 0, err
	}
	runner, err := migrations.NewRunner(pg.DB().DB, m.r.cfg.Deploy.MigrateTimeout, m.r.log)
	if err != nil {
		return 0, err
	}
	return runner.Up(ctx)
}

type releaseUsers struct{ r *Release }

func (u releaseUsers) EnsureSuperuser(ctx context.Context, spec user.SuperuserSpec) (bool, error) {
	pg, err := u.r.db()
	if err != nil {
		return false, err
	}
	return user.NewService(pgrepo.NewUserRepository(pg.DB())).EnsureSuperuser(ctx, spec)
}

type releaseLoader struct {
	r         *Release
	publisher *events.Publisher
}

func (l releaseLoader) Load(ctx context.Context) (*dataload.Result, error) {
	pg, err := l.r.db()
	if err != nil {
		return nil, err
	}
	return provideLoader(l.r.cfg, pg, l.publisher).Load(ctx)
}
