package clientdata

import "time"

// TTL constants for cached data.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLHistoricalPrices covers a closed date range; closes only move on corporate actions.
	TTLHistoricalPrices = 7 * 24 * time.Hour
	// TTLRecentPrices covers ranges that include today, which change after each close.
	TTLRecentPrices = 12 * time.Hour
)
