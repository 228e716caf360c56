// Package clientdata provides persistent caching for external API client responses.
// Values are stored as msgpack blobs with expiration timestamps for cache-first behavior.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Repository provides cache operations over the price_history table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Store saves data with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Store(key string, data interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO price_history (cache_key, data, expires_at) VALUES (?, ?, ?)",
		key, blob, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	return nil
}

// GetIfFresh decodes the entry into out only if it has not expired.
// Returns false when the key is missing or stale.
// Use Get to fall back to stale data when the upstream call fails.
func (r *Repository) GetIfFresh(key string, out interface{}) (bool, error) {
	return r.load(
		"SELECT data FROM price_history WHERE cache_key = ? AND expires_at > ?",
		out, key, time.Now().Unix(),
	)
}

// Get decodes the entry into out regardless of expiration status.
// Stale data is better than no data when the upstream is unavailable.
func (r *Repository) Get(key string, out interface{}) (bool, error) {
	return r.load("SELECT data FROM price_history WHERE cache_key = ?", out, key)
}

func (r *Repository) load(query string, out interface{}, args ...interface{}) (bool, error) {
	var blob []byte
	err := r.db.QueryRow(query, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %v: %w", args[0], err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %v: %w", args[0], err)
	}

	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM price_history WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM price_history WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
