package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benx421/ledger-bank/internal/auth"
	"github.com/benx421/ledger-bank/internal/cache"
	"github.com/benx421/ledger-bank/internal/config"
	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/handlers"
	"github.com/benx421/ledger-bank/internal/identity"
	"github.com/benx421/ledger-bank/internal/jobs"
	"github.com/benx421/ledger-bank/internal/mailer"
	"github.com/benx421/ledger-bank/internal/reference"
	"github.com/benx421/ledger-bank/internal/repository"
	"github.com/benx421/ledger-bank/internal/service"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("ledger api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting ledger api",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck // shutdown path

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
	}

	rdb, err := cache.Connect(ctx, &cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer rdb.Close() //nolint:errcheck // shutdown path

	var mail service.Mailer
	if cfg.RabbitMQ.URL != "" {
		queue, err := mailer.DialQueueMailer(cfg.RabbitMQ.URL, cfg.RabbitMQ.EmailExchange, logger)
		if err != nil {
			return err
		}
		defer queue.Close() //nolint:errcheck // shutdown path
		mail = queue
		logger.Info("emails will be queued", "exchange", cfg.RabbitMQ.EmailExchange)
	} else {
		mail = mailer.NewLogMailer(logger)
		logger.Warn("RABBITMQ_URL not set; emails will only be logged")
	}

	var verifier service.IdentityVerifier
	if cfg.Identity.BaseURL != "" {
		verifier = identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey, cfg.Identity.Timeout)
	} else {
		logger.Warn("IDENTITY_BASE_URL not set; NIN checks are skipped")
	}

	generator := reference.NewGenerator(cfg.App.ReferenceMaxAttempts)
	accountRepo := repository.NewAccountRepository(database)
	notifier := service.NewNotificationDispatcher(accountRepo, repository.NewUserRepository(database), mail, cfg.App.Currency)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.JWTExpiry)

	h := handlers.NewHandler(
		service.NewEngine(database, generator, notifier, logger, cfg.App.NotifyTimeout),
		service.NewAccountService(database, generator, mail, logger),
		service.NewUserService(database, generator, verifier, cache.NewCodeStore(rdb), mail, cfg.Redis.CodeTTL, logger),
		service.NewAuthService(database, tokens, logger),
		database,
		logger,
	)

	idempotencyRepo := repository.NewIdempotencyRepository(database)
	router := handlers.NewRouter(h, idempotencyRepo, tokens, &cfg.Server, logger)

	scheduler := jobs.NewScheduler(jobs.NewJobs(accountRepo, idempotencyRepo, cfg.App.IdempotencyTTL, logger), logger)
	if err := scheduler.Register(jobs.Schedules{
		Reconcile:        cfg.App.ReconcileSchedule,
		IdempotencyPurge: cfg.App.IdempotencyPurgeSchedule,
	}); err != nil {
		return err
	}
	scheduler.Start()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		<-scheduler.Stop().Done()
		return err
	case <-quit:
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduled jobs still running at shutdown")
	}

	logger.Info("server stopped")
	return nil
}
