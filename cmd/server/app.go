package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tasksync/tasksync-api/internal/config"
	"github.com/tasksync/tasksync-api/internal/dispatch"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/metrics"
	"github.com/tasksync/tasksync-api/internal/notify"
	"github.com/tasksync/tasksync-api/internal/platform/mailer"
	"github.com/tasksync/tasksync-api/internal/platform/memory"
	"github.com/tasksync/tasksync-api/internal/platform/postgres"
	"github.com/tasksync/tasksync-api/internal/platform/pusher"
	redisstore "github.com/tasksync/tasksync-api/internal/platform/redis"
	"github.com/tasksync/tasksync-api/internal/ratelimit"
	"github.com/tasksync/tasksync-api/internal/redact"
	"github.com/tasksync/tasksync-api/internal/service"
	"github.com/tasksync/tasksync-api/internal/service/auth"
	"github.com/tasksync/tasksync-api/internal/store"
)

// revocationPurgeInterval is how often expired revocations are removed from
// the Postgres and in-memory backends.
const revocationPurgeInterval = 10 * time.Minute

// application holds the shared dependencies and owns their lifecycle.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	metrics *metrics.Metrics

	userStore   store.UserStore
	taskStore   store.TaskStore
	revocations store.RevocationStore

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	dispatcher   *dispatch.Dispatcher
	loginLimiter *ratelimit.Limiter

	// janitors run for the lifetime of the server.
	janitors []func(ctx context.Context)
}

// newApplication wires every dependency. The database must already be
// reachable.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}
	app.metrics.RegisterDBStats(db)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	if err := app.setupRevocations(ctx); err != nil {
		return nil, err
	}

	app.dispatcher = dispatch.New(cfg.Dispatch, app.metrics, logger)
	app.metrics.RegisterQueueDepth(app.dispatcher.Pending)

	notifier := notify.New(newMailer(cfg.Mail, logger), newPublisher(cfg.Pusher, logger),
		app.dispatcher, cfg.App.FrontendURL, logger)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	app.userService = service.NewUserService(service.UserServiceDeps{
		Users:    app.userStore,
		Revoked:  app.revocations,
		JWT:      app.jwtService,
		Hasher:   hasher,
		Verifier: hasher,
		Notifier: &accountEvents{next: notifier, metrics: app.metrics},
	}, logger)
	app.taskService = service.NewTaskService(app.taskStore, app.userStore, notifier, logger)

	app.loginLimiter = ratelimit.New(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	app.janitors = append(app.janitors, func(ctx context.Context) {
		every(ctx, cfg.RateLimit.LoginWindow, func() { app.loginLimiter.Sweep() })
	})

	logger.Info("application initialized")
	return app, nil
}

// setupRevocations selects the configured token revocation backend.
func (app *application) setupRevocations(ctx context.Context) error {
	backend := app.config.Auth.RevocationBackend
	switch backend {
	case config.RevocationRedis:
		client, err := redisstore.Connect(ctx, app.config.Redis.URL)
		if err != nil {
			return err
		}
		app.redis = client
		app.revocations = redisstore.NewRevocationStore(client, app.logger)

	case config.RevocationPostgres:
		pg := postgres.NewPostgresRevocationStore(app.db, app.logger)
		app.revocations = pg
		app.janitors = append(app.janitors, func(ctx context.Context) {
			pg.RunPurger(ctx, revocationPurgeInterval)
		})

	case config.RevocationMemory:
		mem := memory.NewRevocationStore()
		app.revocations = mem
		app.janitors = append(app.janitors, func(ctx context.Context) {
			every(ctx, revocationPurgeInterval, func() { mem.Sweep() })
		})

	default:
		return fmt.Errorf("unknown revocation backend %q", backend)
	}

	app.logger.Info("token revocation backend selected", slog.String("backend", backend))
	return nil
}

// newMailer returns nil when mail is disabled so the notifier skips emails.
func newMailer(cfg config.MailConfig, logger *slog.Logger) notify.Mailer {
	if !cfg.Enabled {
		return nil
	}
	return mailer.New(cfg, logger)
}

// newPublisher returns nil when Pusher is disabled.
func newPublisher(cfg config.PusherConfig, logger *slog.Logger) notify.Publisher {
	if !cfg.Enabled {
		return nil
	}
	return pusher.NewPublisher(pusher.NewClient(cfg), logger)
}

// Run starts background work and serves HTTP until ctx is cancelled, then
// shuts everything down.
func (app *application) Run(ctx context.Context) error {
	app.dispatcher.Start()

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for _, janitor := range app.janitors {
		go janitor(bgCtx)
	}

	err := app.startHTTPServer(ctx, app.setupRouter())
	cancel()
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains queued notifications and closes connections.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if app.dispatcher != nil {
		if err := app.dispatcher.Stop(ctx); err != nil {
			app.logger.Warn("background jobs did not finish", slog.String("error", redact.Error(err)))
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", slog.String("error", redact.Error(err)))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", redact.Error(err)))
		}
	}

	app.logger.Info("application shutdown completed")
}

// every calls fn each interval until ctx is cancelled.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// accountEvents counts successful signups and logins before forwarding
// them to the notifier.
type accountEvents struct {
	next    service.AccountNotifier
	metrics *metrics.Metrics
}

func (a *accountEvents) AccountCreated(user *domain.User) {
	a.metrics.IncAuthSuccess("signup")
	a.next.AccountCreated(user)
}

func (a *accountEvents) LoginSucceeded(user *domain.User) {
	a.metrics.IncAuthSuccess("login")
	a.next.LoginSucceeded(user)
}
