package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/highlights/internal/adapters/http/api"
	app "github.com/okian/highlights/internal/app"
	"github.com/okian/highlights/internal/config"
	"github.com/okian/highlights/internal/supervisor"
	"github.com/okian/highlights/pkg/logger"
)

const (
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// The service exports its own runtime gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Stderr.WriteString("highlights: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
	}

	opts, closers, err := serviceOptions(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn(ctx, "close collaborator", logger.Error(err))
			}
		}
	}()
	svc := app.New(opts...)

	handler := api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxHighlightsLimit),
		api.WithRateLimit(cfg.HTTPRateLimit),
		api.WithCORSOrigins(cfg.CORSOrigins...),
		api.WithLogger(log.Named("api")),
	).Handler()

	tree := supervisor.New(supervisor.WithShutdownTimeout(shutdownTimeout))
	tree.AddPipelineService(supervisor.NewLifecycleService("highlight-service", svc))
	tree.AddPipelineService(&statsRefresher{svc: svc, interval: serviceMetricsInterval})
	tree.AddAPIService(supervisor.NewHTTPService(api.NewHTTPServer(cfg.Addr, handler), shutdownTimeout))

	log.Info(ctx, "starting highlights", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
	err = tree.Serve(ctx)
	log.Info(context.Background(), "highlights stopped")
	return err
}

// statsRefresher keeps queue and runtime gauges current between scrapes.
type statsRefresher struct {
	svc      *app.Service
	interval time.Duration
}

func (r *statsRefresher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.svc.GetStats(ctx)
		}
	}
}

func (r *statsRefresher) String() string { return "stats-refresher" }
