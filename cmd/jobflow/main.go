package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/catalog"
	"github.com/boddenberg/jobflow-bfa-go/internal/config"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/handler"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/cache"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/events"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/kvstore"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/viacep"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"
	"github.com/boddenberg/jobflow-bfa-go/internal/store"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	// --- Flags ---
	flags := pflag.NewFlagSet("jobflow", pflag.ExitOnError)
	envFile := flags.String("env-file", ".env", "path to a .env file loaded before reading the environment")
	portFlag := flags.IntP("port", "p", 0, "listen port (overrides PORT)")
	flags.Parse(os.Args[1:])

	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	// --- Config ---
	cfg := config.Load()
	if *portFlag != 0 {
		cfg.Port = *portFlag
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_driver", cfg.StoreDriver),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("cep_cache_ttl", cfg.CEPCacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "jobflow-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Persistence ---
	kv, err := kvstore.Open(kvstore.Config{Driver: cfg.StoreDriver, DSN: cfg.StoreDSN})
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer kv.Close()

	valueCache := cache.New[string](cfg.CacheTTL)
	defer valueCache.Close()
	st := store.New(kv, valueCache, metrics, logger)

	cat, err := catalog.Default()
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	// --- Events ---
	var publisher port.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		if err := events.EnsureTopic(cfg.KafkaBrokers, cfg.KafkaTopic); err != nil {
			logger.Warn("could not create kafka topic", zap.String("topic", cfg.KafkaTopic), zap.Error(err))
		}
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing events to kafka", zap.String("topic", cfg.KafkaTopic))
	} else {
		publisher = events.NewLogPublisher(logger)
		logger.Info("kafka not configured, events are only logged")
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cepClient := viacep.NewClient(httpClient, cfg.ViaCEPURL, nil, resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	})
	cepCache := cache.New[*domain.CEPAddress](cfg.CEPCacheTTL)
	defer cepCache.Close()

	// --- Services ---
	workspaces := cache.New[*service.Workspace](cfg.SessionTTL)
	defer workspaces.Close()

	sessions := service.NewSessionService(st, workspaces, cfg.SessionSecret, cfg.SessionTTL, metrics, logger)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sessions.RunSweeper(sweepCtx, cfg.SessionSweepInterval)

	svc := handler.Services{
		Sessions:    sessions,
		Candidates:  service.NewCandidateService(st, st, st, cat, st, publisher, metrics, logger),
		Companies:   service.NewCompanyService(st, st, st, cat, st, st, sessions, publisher, metrics, logger),
		Catalog:     service.NewCatalogService(cat, st, st, st, st, cfg.JobsPerPage, cfg.CoursesPerPage, logger),
		Enrollments: service.NewEnrollmentService(st, st, cat, st, st, publisher, metrics, logger),
		Address:     service.NewAddressService(cepClient, cepCache, st, st, metrics, logger),
	}
	if cfg.AdminEnabled {
		svc.Import = service.NewImportService(st, logger)
		logger.Warn("admin import/export routes are enabled")
	}

	// --- Router ---
	router := handler.NewRouter(svc, st, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
