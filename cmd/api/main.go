package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/qa327/ticket-marketplace/internal/api/http"
	"github.com/qa327/ticket-marketplace/internal/api/http/handlers"
	"github.com/qa327/ticket-marketplace/internal/auth"
	"github.com/qa327/ticket-marketplace/internal/config"
	"github.com/qa327/ticket-marketplace/internal/events"
	"github.com/qa327/ticket-marketplace/internal/observability"
	"github.com/qa327/ticket-marketplace/internal/persistence"
	"github.com/qa327/ticket-marketplace/internal/repository"
	"github.com/qa327/ticket-marketplace/internal/service"
	"github.com/qa327/ticket-marketplace/internal/worker"
)

type options struct {
	envFile        string
	migrate        bool
	migrateChanged bool
	addr           string
}

func (o *options) migrateSet() bool {
	return o.migrateChanged
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("invalid flags: %v", err)
	}

	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if opts.migrateSet() {
		cfg.Postgres.RunMigrations = opts.migrate
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var store repository.Store
	if pg.Enabled() {
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var sessions auth.SessionStore = auth.NewMemorySessionStore()
	if redis != nil {
		sessions = auth.NewRedisSessionStore(redis.Client, redis.KeyPrefix)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	events.SubscribeAll(dispatcher, metrics.CountEvent)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))
	forwarder, err := worker.StartEventForwarder(cfg.Broker, dispatcher, logger)
	if err != nil {
		logger.Fatal("failed to start event forwarder", zap.Error(err))
	}
	defer forwarder.Close()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: store.Users(),
		Sessions: sessions,
		Logger:   logger,
	})
	marketplace := service.NewMarketplaceService(service.MarketplaceDependencies{
		Store:      store,
		Auth:       authService,
		Dispatcher: dispatcher,
		Logger:     logger,
		Rules:      cfg.Marketplace,
	})

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService, marketplace),
		Tickets:        handlers.NewTicketsHandler(marketplace),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
	})

	addr := cfg.App.Addr()
	if opts.addr != "" {
		addr = opts.addr
	}

	go func() {
		logger.Info("http listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet("ticket-marketplace", pflag.ContinueOnError)
	flagSet.StringVar(&opts.envFile, "env-file", "", "load environment variables from this file before reading config")
	flagSet.BoolVar(&opts.migrate, "migrate", true, "apply embedded SQL migrations at startup (overrides POSTGRES_RUN_MIGRATIONS)")
	flagSet.StringVar(&opts.addr, "addr", "", "HTTP listen address host:port (overrides APP_HOST/APP_PORT)")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ticket-marketplace [flags]\n\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if flagSet.Changed("migrate") {
		opts.migrateChanged = true
	}
	return opts, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
