// Package app assembles the server from configuration: store, cache,
// event feed, HTTP stack and background jobs.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sgp-controller/internal/catalog"
	"github.com/iliyamo/sgp-controller/internal/config"
	"github.com/iliyamo/sgp-controller/internal/database"
	"github.com/iliyamo/sgp-controller/internal/handler"
	"github.com/iliyamo/sgp-controller/internal/jobs"
	"github.com/iliyamo/sgp-controller/internal/middleware"
	"github.com/iliyamo/sgp-controller/internal/queue"
	"github.com/iliyamo/sgp-controller/internal/repository"
	"github.com/iliyamo/sgp-controller/internal/repository/memstore"
	"github.com/iliyamo/sgp-controller/internal/repository/pgstore"
	"github.com/iliyamo/sgp-controller/internal/repository/sqlstore"
	"github.com/iliyamo/sgp-controller/internal/router"
	"github.com/iliyamo/sgp-controller/internal/service"
)

// App is a fully wired server.
type App struct {
	Echo    *echo.Echo
	Service *service.Service

	cfg   *config.Config
	store repository.Store
	rdb   *redis.Client
	pub   *queue.Publisher
	sched *jobs.Scheduler
}

// New opens the store, seeds the catalog and builds the HTTP stack.  Redis
// and RabbitMQ are optional: when they are unavailable the cache, rate
// limiter and event feed are skipped.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Default()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := catalog.Seed(ctx, store, cat); err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{cfg: cfg, store: store}
	opts := []service.Option{service.WithInitialBalance(cfg.Game.InitialBalance)}
	if cfg.AMQP.URL != "" {
		a.pub = queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		opts = append(opts, service.WithPublisher(a.pub))
	}
	a.Service = service.New(store, opts...)

	if cfg.Session.Retention > 0 {
		a.sched, err = jobs.NewScheduler(a.Service, cfg.Session.ReaperSchedule, cfg.Session.Retention)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.rdb = config.NewRedisClient(cfg.Redis)
	a.Echo = a.newEcho()
	return a, nil
}

// OpenStore connects the backend selected by cfg.Driver and migrates it.
func OpenStore(ctx context.Context, cfg config.DBConfig) (repository.Store, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	case "postgres":
		pool, err := database.OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s := pgstore.New(pool)
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return s, nil
	case "mysql":
		db, err := database.OpenMySQL(cfg)
		if err != nil {
			return nil, err
		}
		return migrateSQL(ctx, sqlstore.New(db, sqlstore.MySQL))
	case "sqlite":
		db, err := database.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return migrateSQL(ctx, sqlstore.New(db, sqlstore.SQLite))
	}
	return nil, fmt.Errorf("unknown DB driver %q", cfg.Driver)
}

func migrateSQL(ctx context.Context, s *sqlstore.Store) (repository.Store, error) {
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database ready")
	return s, nil
}

func (a *App) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))

	router.RegisterRoutes(e, a.store)

	api := e.Group("/api",
		middleware.NewTokenBucket(a.cfg.RateLimit, a.rdb),
		middleware.NewRedisCache(a.cfg.Cache, a.rdb),
	)
	router.RegisterBank(api, handler.NewBankHandler(a.Service))
	router.RegisterProperties(api, handler.NewPropertyHandler(a.Service))
	router.RegisterSessions(api, handler.NewSessionHandler(a.Service), handler.NewPlayerHandler(a.Service))
	return e
}

// Run serves HTTP and, when configured, the ledger consumer and the
// retention job until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.AMQP.URL != "" && a.cfg.AMQP.ConsumerEnabled {
		go func() {
			if err := queue.StartLedgerConsumer(ctx, a.cfg.AMQP.URL, a.cfg.AMQP.Queue, a.cfg.AMQP.LogPath); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("ledger consumer stopped")
			}
		}()
	}
	if a.sched != nil {
		a.sched.Start()
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": a.cfg.Addr(), "env": a.cfg.Env, "driver": a.cfg.DB.Driver}).Info("listening")
		if err := a.Echo.Start(a.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if a.sched != nil {
		a.sched.Stop()
	}
	return serveErr
}

// Close releases the store, Redis and broker connections.
func (a *App) Close() error {
	var errs []error
	if a.pub != nil {
		errs = append(errs, a.pub.Close())
	}
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
