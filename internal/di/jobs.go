package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/clientdata"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/scheduler"
)

// priceRefreshTimeout bounds one pass over the watchlist
const priceRefreshTimeout = 10 * time.Minute

// RegisterJobs creates the background jobs and, when sched is not nil,
// registers them on their configured schedules
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		PriceRefresh: scheduler.NewPriceRefreshJob(
			container.PriceFetcher,
			cfg.Watchlist,
			cfg.LookbackDays,
			priceRefreshTimeout,
			log,
		),
		CacheCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
	}

	if sched == nil {
		return jobs, nil
	}

	if len(cfg.Watchlist) > 0 {
		if err := sched.AddJob(cfg.PriceRefreshSchedule, jobs.PriceRefresh); err != nil {
			return nil, fmt.Errorf("failed to register price refresh job: %w", err)
		}
	} else {
		log.Info().Msg("No watchlist configured, price refresh job not scheduled")
	}

	if err := sched.AddJob(cfg.CacheCleanupSchedule, jobs.CacheCleanup); err != nil {
		return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
	}

	return jobs, nil
}
