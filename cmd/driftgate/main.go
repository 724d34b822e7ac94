package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/driftgate/internal/adapter/filestore"
	dghttp "github.com/Strob0t/driftgate/internal/adapter/http"
	dgnats "github.com/Strob0t/driftgate/internal/adapter/nats"
	"github.com/Strob0t/driftgate/internal/adapter/natskv"
	cfotel "github.com/Strob0t/driftgate/internal/adapter/otel"
	"github.com/Strob0t/driftgate/internal/adapter/postgres"
	"github.com/Strob0t/driftgate/internal/adapter/ristretto"
	"github.com/Strob0t/driftgate/internal/adapter/shell"
	"github.com/Strob0t/driftgate/internal/adapter/slack"
	"github.com/Strob0t/driftgate/internal/config"
	"github.com/Strob0t/driftgate/internal/logger"
	"github.com/Strob0t/driftgate/internal/middleware"
	"github.com/Strob0t/driftgate/internal/port/auditlog"
	"github.com/Strob0t/driftgate/internal/port/idempotency"
	"github.com/Strob0t/driftgate/internal/resilience"
	"github.com/Strob0t/driftgate/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	var err error
	if len(os.Args) > 1 && os.Args[1] == "report" {
		err = runReport(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"webhook_path", cfg.Server.WebhookPath,
		"idempotency_backend", cfg.Idempotency.Backend,
		"log_level", cfg.Logging.Level,
		"workers", cfg.Workers.MaxConcurrent,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTel, err := cfotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	telemetry, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	var checks []dghttp.HealthCheck

	var queue *dgnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = dgnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		checks = append(checks, dghttp.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if !queue.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}})
		slog.Info("nats connected")
	}

	var mirrors []auditlog.Sink
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		version, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("migration version: %w", err)
		}
		mirrors = append(mirrors, postgres.NewAuditStore(pool))
		checks = append(checks, dghttp.HealthCheck{Name: "postgres", Check: pool.Ping})
		slog.Info("postgres audit mirror enabled", "schema_version", version)
	}

	markers, err := newMarkerStore(ctx, cfg, queue)
	if err != nil {
		return fmt.Errorf("idempotency: %w", err)
	}
	cache, err := ristretto.New(markers, cfg.Idempotency.CacheSizeMB<<20, cfg.Idempotency.CacheTTL)
	if err != nil {
		return fmt.Errorf("marker cache: %w", err)
	}
	defer cache.Close()

	// --- Services ---

	notify := slack.NewNotifier(slack.Options{
		BotToken: cfg.Slack.BotToken,
		APIURL:   cfg.Slack.APIURL,
		Timeout:  cfg.Slack.Timeout,
		Breaker:  resilience.NewBreaker("slack", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout),
	})
	if cfg.Slack.BotToken == "" {
		slog.Warn("slack bot token not set; only response_url delivery is available", "category", "notify")
	}

	auditLog := filestore.NewAuditLog(cfg.Storage.AuditLog)
	metricsFile := filestore.NewMetricsFile(cfg.Storage.MetricsFile)
	deps := service.Deps{
		Store:     cache,
		Notifier:  notify,
		Audit:     service.NewAuditTrail(auditLog, mirrors...),
		Metrics:   metricsFile,
		Telemetry: telemetry,
	}

	remediator := shell.NewExecutor(cfg.Remediation)
	scanner := shell.NewScanner(cfg.Compliance)
	remediation := service.NewRemediation(deps, remediator, scanner, cfg.Remediation.OutputLines)
	if queue != nil {
		remediation.SetPublisher(queue)
	}

	runner := service.NewRunner(cfg.Workers.MaxConcurrent)
	handlers := &dghttp.Handlers{
		Gateway: service.NewGateway(deps, runner, remediation, cfg.Location()),
		Ingest:  service.NewIngest(metricsFile),
		Runner:  runner,
		Checks:  checks,
	}

	slog.Info("pipeline ready",
		"remediation", remediator.Command(),
		"compliance_target", scanner.Target(),
		"audit_log", auditLog.Path(),
		"metrics_file", metricsFile.Path(),
	)

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(dghttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(dghttp.SecurityHeaders)
	r.Use(limiter.Handler)
	r.Use(cfotel.HTTPMiddleware(cfg.OTel.ServiceName))

	dghttp.MountRoutes(r, handlers, cfg)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}

	slog.Info("draining remediation runs", "in_flight", runner.InFlight(), "timeout", cfg.Workers.DrainTimeout)
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Workers.DrainTimeout)
	defer cancelDrain()
	if err := runner.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}

// newMarkerStore builds the configured durable marker store. The nats backend
// reuses the already connected queue.
func newMarkerStore(ctx context.Context, cfg *config.Config, queue *dgnats.Queue) (idempotency.Store, error) {
	switch cfg.Idempotency.Backend {
	case "nats":
		if queue == nil {
			return nil, errors.New("nats backend requires nats.url")
		}
		kv, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket)
		if err != nil {
			return nil, err
		}
		slog.Info("idempotency markers in nats kv", "bucket", cfg.Idempotency.Bucket)
		return natskv.New(kv), nil
	default:
		store, err := filestore.NewMarkerStore(cfg.Storage.MarkerDir)
		if err != nil {
			return nil, err
		}
		slog.Info("idempotency markers on disk", "dir", cfg.Storage.MarkerDir)
		return store, nil
	}
}
