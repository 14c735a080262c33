package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/mirador-meltsim/internal/config"
	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/metrics"
	"github.com/miradorstack/mirador-meltsim/internal/sim"
	"github.com/miradorstack/mirador-meltsim/internal/sink"
	"github.com/miradorstack/mirador-meltsim/internal/topology"
	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting melt-generator",
		slog.String("output", cfg.Output.Dir),
		slog.Int64("seed", cfg.Simulation.Seed))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	startDate, err := cfg.Simulation.Start()
	if err != nil {
		logger.Error("invalid start date", slog.Any("error", err))
		os.Exit(1)
	}

	providers := make([]topology.Provider, 0, len(cfg.Topology.Providers))
	for _, name := range cfg.Topology.Providers {
		provider, err := topology.ProviderFor(name)
		if err != nil {
			logger.Error("invalid provider", slog.Any("error", err))
			os.Exit(1)
		}
		providers = append(providers, provider)
	}

	// One seeded source drives topology, scheduling, and all synthesizers so
	// the whole run reproduces from the seed alone.
	rng := rand.New(rand.NewSource(cfg.Simulation.Seed))

	topo, err := topology.Build(rng, cfg.Topology.Services, cfg.Topology.HostsPerService, providers)
	if err != nil {
		logger.Error("failed to build topology", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("topology built",
		slog.Int("hosts", topo.Size()),
		slog.Int("services", len(topo.Services())),
		slog.Int("regions", len(topo.Regions())))

	out, err := sink.NewFileSink(cfg.Output.Dir, cfg.Output.Clean, logger)
	if err != nil {
		logger.Error("failed to prepare output directory", slog.Any("error", err))
		os.Exit(1)
	}

	scheduler := incident.NewScheduler(logger, rng, topo, cfg.Dependencies, cfg.Topology.SharedService)

	runner := sim.NewRunner(logger, rng, sim.Params{
		StartDate:     startDate,
		Days:          cfg.Simulation.Days,
		Granularity:   cfg.Simulation.Granularity(),
		Seed:          cfg.Simulation.Seed,
		SharedService: cfg.Topology.SharedService,
	}, topo, scheduler, out)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Metrics.Address,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
			}
		}()
	}

	runErr := runner.Run(ctx)
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		logger.Info("generation interrupted")
	default:
		logger.Error("generation failed", slog.Any("error", runErr))
		os.Exit(1)
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("melt-generator stopped")
}
