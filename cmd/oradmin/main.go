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

	"github.com/example/or-admin/internal/application"
	"github.com/example/or-admin/internal/config"
	httptransport "github.com/example/or-admin/internal/http"
	"github.com/example/or-admin/internal/ids"
	"github.com/example/or-admin/internal/logging"
	"github.com/example/or-admin/internal/obs"
	"github.com/example/or-admin/internal/persistence/sqlite"
	"github.com/example/or-admin/internal/store"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(level, cfg.LogFormat, os.Stdout)
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		stop()
		os.Exit(1)
	}
}

// service holds everything the HTTP server needs, so tests can build it
// without binding a port.
type service struct {
	handler  http.Handler
	storage  *sqlite.Storage
	tracker  *application.SessionTracker
	monitor  *application.SessionMonitor
	limiter  *httptransport.RateLimiter
	metrics  *obs.Metrics
	logger   *slog.Logger
	interval time.Duration
}

func newService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*service, error) {
	scheme, err := ids.ParseScheme(cfg.IDScheme)
	if err != nil {
		return nil, err
	}
	idGenerator := ids.Generator(scheme)
	now := time.Now

	storage, err := sqlite.Open(ctx, cfg.SQLiteDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	metrics := obs.NewMetrics()
	metrics.SetBuildInfo(version)

	activities := application.NewActivityLog(store.New(application.ActivityState{}), idGenerator, now, 0)
	surgeries := application.NewSurgeryServiceWithLogger(
		store.New(application.SurgeryState{}),
		activities,
		idGenerator,
		now,
		logger,
		metrics,
	)
	tracker := application.NewSessionTracker(
		store.New(application.SessionState{Timeout: cfg.SessionTimeout}),
		application.SessionTrackerConfig{
			Slices:           newSessionSliceAdapter(storage),
			Activities:       activities,
			IDGenerator:      idGenerator,
			Now:              now,
			WarningThreshold: cfg.WarningThreshold,
			Logger:           logger,
			Metrics:          metrics,
		},
	)
	if err := tracker.Restore(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("restore sessions: %w", err)
	}

	monitor := application.NewSessionMonitor(tracker, application.SessionMonitorConfig{
		ExpiryInterval:  cfg.ExpiryInterval,
		WarningInterval: cfg.WarningInterval,
		Heartbeat:       cfg.Heartbeat,
		Logger:          logger,
	})

	limiter := httptransport.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Surgeries:    httptransport.NewSurgeryHandler(surgeries, logger),
		SurgeryTypes: httptransport.NewSurgeryTypeHandler(surgeries, logger),
		Patients:     httptransport.NewPatientHandler(surgeries, logger),
		Staff:        httptransport.NewStaffHandler(surgeries, logger),
		Sessions:     httptransport.NewSessionHandler(tracker, monitor, logger),
		Activities:   httptransport.NewActivityHandler(activities, logger),
		Metrics:      metrics,
		MetricsPage:  metrics.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RealIP(cfg.TrustedProxies),
			limiter.Middleware,
			httptransport.WithActor,
		},
	})

	return &service{
		handler:  router,
		storage:  storage,
		tracker:  tracker,
		monitor:  monitor,
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
		interval: time.Minute,
	}, nil
}

func (s *service) Close() error {
	return s.storage.Close()
}

// background runs the session monitor and the rate limiter sweep until ctx ends.
func (s *service) background(ctx context.Context) {
	go func() {
		if err := s.monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("session monitor stopped", "error", err)
		}
	}()
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.limiter.Sweep()
			}
		}
	}()
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	svc.background(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           svc.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("OR admin API listening", "addr", server.Addr, "version", version)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
