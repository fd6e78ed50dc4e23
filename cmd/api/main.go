// Package main is the entry point for the case intake API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gwplsec/backend/internal/api"
	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/audittrail"
	"github.com/gwplsec/backend/internal/auth"
	"github.com/gwplsec/backend/internal/career"
	"github.com/gwplsec/backend/internal/config"
	"github.com/gwplsec/backend/internal/db"
	"github.com/gwplsec/backend/internal/health"
	"github.com/gwplsec/backend/internal/intake"
	"github.com/gwplsec/backend/internal/middleware"
	"github.com/gwplsec/backend/internal/notify"
	"github.com/gwplsec/backend/internal/refgen"
	"github.com/gwplsec/backend/internal/staff"
	"github.com/gwplsec/backend/internal/storage"
	"github.com/gwplsec/backend/internal/submission"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("GWPL Security API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	cfg.LogSummary(logger)

	ctx := context.Background()

	// Repositories: PostgreSQL when configured, in-memory otherwise.
	var (
		cases       submission.Repository
		apps        career.Repository
		attachments attachment.Repository
		accounts    staff.Repository
		emails      notify.Repository
		events      audittrail.Repository
		healthCheck health.Checker
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		cases = submission.NewPostgresRepository(pool)
		apps = career.NewPostgresRepository(pool)
		attachments = attachment.NewPostgresRepository(pool)
		accounts = staff.NewPostgresRepository(pool)
		emails = notify.NewPostgresRepository(pool)
		events = audittrail.NewPostgresRepository(pool)
		healthCheck = health.NewDBChecker(pool)
		logger.Info("using postgresql storage")
	} else {
		cases = submission.NewInMemoryRepository()
		apps = career.NewInMemoryRepository()
		attachments = attachment.NewInMemoryRepository()
		accounts = staff.NewInMemoryRepository()
		emails = notify.NewInMemoryRepository()
		events = audittrail.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	if err := seedAdmin(ctx, accounts, cfg, logger); err != nil {
		logger.Error("admin seeding failed", "error", err)
		os.Exit(1)
	}

	// Attachment storage: S3 when a bucket is configured, local disk
	// otherwise.
	var store storage.Store
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
		})
		if err != nil {
			logger.Error("s3 storage init failed", "error", err)
			os.Exit(1)
		}
		store = s3Store
		logger.Info("using s3 attachment storage", "bucket", cfg.S3Bucket)
	} else {
		localStore, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			logger.Error("local storage init failed", "error", err)
			os.Exit(1)
		}
		store = localStore
		logger.Info("using local attachment storage", "dir", cfg.UploadDir)
	}

	// Outbound mail. Without an SMTP host the dispatcher logs and
	// records each message as failed instead of delivering.
	var channel notify.Channel
	if cfg.SMTPHost != "" {
		channel = notify.NewSMTPChannel(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     fmt.Sprintf("\"GWPL Security GSOC\" <%s>", cfg.SMTPUser),
		})
	} else {
		logger.Warn("SMTP_HOST not set, outbound email disabled")
	}
	dispatcher := notify.NewDispatcher(channel, emails, logger)
	defer dispatcher.Close()

	templates := notify.Templates{
		BaseURL:     cfg.BaseURL,
		GSOCAlertTo: cfg.GSOCAlertEmail,
		HRAlertTo:   cfg.HRAlertEmail,
	}

	refs := refgen.New()
	trail := audittrail.NewRecorder(events, logger)

	tokens := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	authSvc := auth.NewService(accounts, tokens, trail, logger)

	auditIntake := intake.NewAuditService(cases, attachments, store, refs, dispatcher, templates, cfg.UploadMaxSizeMB, logger)
	careerIntake := intake.NewCareerService(apps, attachments, store, refs, dispatcher, templates, logger)

	// Rate limit counters: Redis when configured so limits hold across
	// replicas, in-memory otherwise.
	var limitStore middleware.RateLimitStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limitStore = middleware.NewRedisRateLimitStore(client)
		defer client.Close()
		logger.Info("using redis rate limit store", "addr", cfg.RedisAddr)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		limitStore = memStore
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
	}

	metrics := middleware.NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		logger.Error("metrics registration failed", "error", err)
		os.Exit(1)
	}

	handler := api.NewRouter(api.RouterConfig{
		Audit:   api.NewAuditHandlers(auditIntake, cases, attachments, trail, metrics),
		Careers: api.NewCareerHandlers(careerIntake, apps, attachments, trail, metrics),
		Admin:   api.NewAdminHandlers(authSvc, accounts, cases, apps, attachments, emails, events, trail),

		Health:  health.NewHandler(healthCheck, logger),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		Verifier: authSvc,
		Logger:   logger,

		RateLimitStore: limitStore,
		GlobalLimit:    middleware.DefaultGlobalLimit(),
		SubmitLimit:    middleware.DefaultSubmitLimit(),
		HTTPMetrics:    metrics,

		CORS: middleware.DefaultCORSConfig(cfg.CORSOrigins),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// seedAdmin creates the bootstrap superadmin account if no account
// exists for the configured email.
func seedAdmin(ctx context.Context, accounts staff.Repository, cfg *config.Config, logger *slog.Logger) error {
	_, err := accounts.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, staff.ErrAccountNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	account := &staff.Account{
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		FullName:     "GWPL Administrator",
		Role:         staff.RoleSuperadmin,
		IsActive:     true,
	}
	if err := accounts.Create(ctx, account); err != nil {
		return err
	}
	logger.Info("bootstrap admin created", "email", cfg.AdminEmail)
	return nil
}
