package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/clientdata"
	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// InitializeServices builds the price pipeline, metrics and the optimization service
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	container.YahooClient = yahoo.NewClient(log)
	container.PriceFetcher = historical.NewCachedFetcher(
		container.YahooClient,
		container.ClientDataRepo,
		cfg.PriceCacheTTL,
		log,
	)
	container.PriceLoader = historical.NewLoader(container.PriceFetcher, log)

	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.Metrics = optimization.NewMetrics(container.Registry)

	container.OptimizationService = optimization.NewService(
		container.PriceLoader,
		OptimizationDefaults(cfg),
		container.Metrics,
		log,
	)

	log.Info().Msg("Services initialized")
}

// OptimizationDefaults maps configuration onto the service defaults
func OptimizationDefaults(cfg *config.Config) optimization.Defaults {
	return optimization.Defaults{
		FrontierPoints: cfg.FrontierPoints,
		Samples:        cfg.MonteCarloSamples,
		ClipFrontier:   cfg.FrontierClipLower,
		Workers:        cfg.FrontierWorkers,
		LookbackDays:   cfg.LookbackDays,
		Solver: optimization.Settings{
			MaxIterations:      cfg.SolverMaxIterations,
			MaxOuterIterations: cfg.SolverMaxOuterIterations,
			Tolerance:          cfg.SolverTolerance,
			Timeout:            cfg.SolverTimeout,
		},
	}
}
