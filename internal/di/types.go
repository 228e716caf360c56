package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aristath/frontier/internal/clientdata"
	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	CacheDB *database.DB // Price history cache (msgpack blobs with expiry)

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Clients - External API integrations
	YahooClient *yahoo.Client

	// Price pipeline: Yahoo behind the cache, fanned out by the loader
	PriceFetcher *historical.CachedFetcher
	PriceLoader  *historical.Loader

	// Metrics
	Registry *prometheus.Registry
	Metrics  *optimization.Metrics

	// Services
	OptimizationService *optimization.Service
}

// Close releases the container's databases
func (c *Container) Close() error {
	if c.CacheDB == nil {
		return nil
	}
	return c.CacheDB.Close()
}

// JobInstances holds the background jobs
type JobInstances struct {
	PriceRefresh *scheduler.PriceRefreshJob
	CacheCleanup *clientdata.CleanupJob
}

// All returns every job, for registration and manual triggering
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.PriceRefresh, j.CacheCleanup}
}
