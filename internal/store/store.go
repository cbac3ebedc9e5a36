// Package store provides the SQLite-backed persistence spec §6 describes:
// a fetch/search result cache and a per-session history log, so a session
// can be closed and reopened without losing its transcript. Grounded on the
// teacher's internal/store (same schema-and-pragma shape, same busy-retry
// discipline for internal/store/session.go's sibling, here adapted to
// persist history.Item rows instead of raw provider messages).
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	url     TEXT PRIMARY KEY,
	result  TEXT NOT NULL,
	created INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS search_cache (
	query   TEXT PRIMARY KEY,
	result  TEXT NOT NULL,
	created INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id      TEXT PRIMARY KEY,
	title   TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL,
	updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	kind       INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	created    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetch_created  ON fetch_cache(created);
CREATE INDEX IF NOT EXISTS idx_search_created ON search_cache(created);
CREATE INDEX IF NOT EXISTS idx_history_session ON history_items(session_id, seq);
`

// Cache is a SQLite-backed store for web results and session history.
// Safe for concurrent use; every method tolerates a nil receiver so callers
// that run without persistence configured (spec's "cache loading" Non-goal
// only excludes the *compaction* reuse of cached completions, not this
// store) can pass a nil *Cache without branching at every call site.
type Cache struct {
	mu  sync.Mutex
	db  *sql.DB
	ttl time.Duration
}

// Open creates or opens a store database at dbPath. ttl controls how long
// fetch/search cache entries remain fresh.
func Open(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	c := &Cache{db: db, ttl: ttl}
	c.purgeStale()
	return c, nil
}

// Close closes the database. Safe to call on a nil receiver.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// --- Fetch cache ---

// GetFetch returns a cached fetch result for url, or a miss if absent/stale.
func (c *Cache) GetFetch(url string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl).Unix()
	var result string
	err := c.db.QueryRow(
		"SELECT result FROM fetch_cache WHERE url = ? AND created > ?",
		url, cutoff,
	).Scan(&result)
	if err != nil {
		return "", false
	}
	return result, true
}

// SetFetch stores a fetch result.
func (c *Cache) SetFetch(url, result string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(
		"INSERT OR REPLACE INTO fetch_cache (url, result, created) VALUES (?, ?, ?)",
		url, result, time.Now().Unix(),
	); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("store: failed to cache fetch result")
	}
}

// --- Search cache ---

// GetSearch returns a cached search result for the exact query, or a miss.
func (c *Cache) GetSearch(query string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl).Unix()
	var result string
	err := c.db.QueryRow(
		"SELECT result FROM search_cache WHERE query = ? AND created > ?",
		normalizeQuery(query), cutoff,
	).Scan(&result)
	if err != nil {
		return "", false
	}
	return result, true
}

// SetSearch stores a search result.
func (c *Cache) SetSearch(query, result string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(
		"INSERT OR REPLACE INTO search_cache (query, result, created) VALUES (?, ?, ?)",
		normalizeQuery(query), result, time.Now().Unix(),
	); err != nil {
		log.Warn().Err(err).Str("query", query).Msg("store: failed to cache search result")
	}
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// purgeStale removes fetch/search entries older than the TTL.
func (c *Cache) purgeStale() {
	cutoff := time.Now().Add(-c.ttl).Unix()
	for _, table := range []string{"fetch_cache", "search_cache"} {
		res, err := c.db.Exec(
			fmt.Sprintf("DELETE FROM %s WHERE created <= ?", table), //nolint:gosec // table name is hardcoded
			cutoff,
		)
		if err != nil {
			log.Warn().Err(err).Str("table", table).Msg("store: failed to purge stale cache")
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Info().Int64("deleted", n).Str("table", table).Msg("store: purged stale cache entries")
		}
	}
}

// IsSQLiteBusy reports whether err is a transient SQLITE_BUSY / locked error
// worth retrying.
func IsSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
