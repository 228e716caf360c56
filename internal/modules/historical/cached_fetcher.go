package historical

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/clientdata"
	"github.com/rs/zerolog"
)

// Cache is the subset of the client data repository used for price history.
type Cache interface {
	Store(key string, data interface{}, ttl time.Duration) error
	GetIfFresh(key string, out interface{}) (bool, error)
	Get(key string, out interface{}) (bool, error)
}

// CachedFetcher is a read-through cache in front of an upstream Fetcher.
// When the upstream fails, stale entries are served rather than failing the request.
type CachedFetcher struct {
	upstream Fetcher
	cache    Cache
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewCachedFetcher wraps upstream. ttl applies to ranges that reach today;
// ranges that closed before today are kept for clientdata.TTLHistoricalPrices.
func NewCachedFetcher(upstream Fetcher, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
		log:      log.With().Str("component", "cached_fetcher").Logger(),
	}
}

// FetchDailyCloses implements Fetcher.
func (f *CachedFetcher) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	key := cacheKey(symbol, start, end)

	var bars []Bar
	found, err := f.cache.GetIfFresh(key, &bars)
	if err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("Price cache read failed")
	} else if found {
		return bars, nil
	}

	bars, err = f.upstream.FetchDailyCloses(ctx, symbol, start, end)
	if err != nil {
		var stale []Bar
		if ok, cacheErr := f.cache.Get(key, &stale); cacheErr == nil && ok {
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("Upstream fetch failed, serving stale prices")
			return stale, nil
		}
		return nil, err
	}

	f.store(key, bars, end)
	return bars, nil
}

// Refresh fetches from upstream unconditionally and replaces the cached entry.
func (f *CachedFetcher) Refresh(ctx context.Context, symbol string, start, end time.Time) error {
	bars, err := f.upstream.FetchDailyCloses(ctx, symbol, start, end)
	if err != nil {
		return fmt.Errorf("failed to refresh %s: %w", symbol, err)
	}
	f.store(cacheKey(symbol, start, end), bars, end)
	return nil
}

func (f *CachedFetcher) store(key string, bars []Bar, end time.Time) {
	if len(bars) == 0 {
		return
	}
	ttl := f.ttl
	if day(end).Before(day(f.now())) {
		ttl = clientdata.TTLHistoricalPrices
	}
	if err := f.cache.Store(key, bars, ttl); err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("Failed to cache prices")
	}
}

func cacheKey(symbol string, start, end time.Time) string {
	return symbol + "|" + start.Format("2006-01-02") + "|" + end.Format("2006-01-02")
}
