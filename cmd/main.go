package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/rbd-scoreboard/internal/adapters/http/api"
	"github.com/okian/rbd-scoreboard/internal/adapters/http/site"
	"github.com/okian/rbd-scoreboard/internal/adapters/http/swagger"
	"github.com/okian/rbd-scoreboard/internal/adapters/repository"
	service "github.com/okian/rbd-scoreboard/internal/app"
	"github.com/okian/rbd-scoreboard/internal/config"
	"github.com/okian/rbd-scoreboard/internal/domain/scoring"
	"github.com/okian/rbd-scoreboard/pkg/logger"
	"github.com/okian/rbd-scoreboard/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We collect our own system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	configureMetrics(cfg)

	local, err := buildLocalStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open local store", logger.String("backend", cfg.Local.Backend), logger.Error(err))
		os.Exit(1)
	}

	remote, closeRemote := buildRemoteStore(ctx, cfg, log)
	defer closeRemote()

	svc := newService(cfg, log, remote, local)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// newService wires the scoreboard service from configuration.
func newService(cfg *config.Config, log logger.Logger, remote, local repository.Store) *service.Service {
	rules := scoring.NewRules(
		scoring.WithBaseTarget(cfg.BaseTarget),
		scoring.WithGoalPoints(cfg.GoalPoints),
	)
	opts := []service.Option{
		service.WithLogger(log),
		service.WithLocal(local),
		service.WithRules(rules),
		service.WithRows(cfg.PlayerRows),
		service.WithLeaderboardSize(cfg.LeaderboardSize),
		service.WithRemoteTimeout(cfg.RemoteTimeout()),
	}
	if remote != nil {
		opts = append(opts, service.WithRemote(remote))
	}
	return service.New(opts...)
}

// newMux registers every route on a fresh mux.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()

	// API docs under /api-docs and /openapi.yaml
	swagger.Register(ctx, mux)

	api.NewServer(svc, svc).Register(ctx, mux)

	// Score sheet page and assets on "/"
	site.Register(ctx, mux)
	return mux
}

// buildLocalStore opens the configured fallback store.
func buildLocalStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	key := repository.WithKey(cfg.Local.Key)
	switch cfg.Local.Backend {
	case config.BackendFile:
		return repository.NewFileStore(cfg.Local.Path, key)
	case config.BackendRedis:
		return repository.NewRedisStore(ctx, cfg.Local.RedisAddr, key)
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown local backend %q", cfg.Local.Backend)
	}
}

// buildRemoteStore wires PostgreSQL when a DSN is configured. A database that
// does not answer the startup ping is still wired: each save tries it and
// falls back to the local store on its own.
func buildRemoteStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func()) {
	if !cfg.RemoteEnabled() {
		log.Info(ctx, "remote store not configured; scores stay local")
		return nil, func() {}
	}

	pool, err := repository.OpenPostgres(ctx, cfg.Remote.DSN)
	if err != nil {
		log.Warn(ctx, "remote store misconfigured; scores stay local", logger.Error(err))
		return nil, func() {}
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout())
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Warn(ctx, "remote store unreachable at startup; saves fall back locally until it answers", logger.Error(err))
	}
	return repository.NewPostgresStore(pool, repository.WithTable(cfg.Remote.Table)), pool.Close
}

// configureMetrics rebuilds the global metrics manager from the metrics section.
func configureMetrics(cfg *config.Config) *metrics.Manager {
	return metrics.Configure(
		metrics.WithMetricsEnabled(cfg.Metrics.Enabled),
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithMetricPrefix(cfg.Metrics.Prefix),
		metrics.WithCustomLabels(cfg.Metrics.Labels),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	)
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.Default().RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average GC pause
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
