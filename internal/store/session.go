package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/octocli/octo/internal/history"
)

// Busy-retry constants for the history write path, grounded on the
// teacher's session.go retry loop around SQLITE_BUSY.
const (
	sqliteBusyMaxRetries    = 10
	sqliteBusyBackoffStepMs = 50
	sqliteBusyMaxBackoff    = time.Second
)

// CreateSession inserts a new session row.
func (c *Cache) CreateSession(id string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Unix()
	_, err := c.db.Exec(
		"INSERT OR IGNORE INTO sessions (id, title, created, updated) VALUES (?, '', ?, ?)",
		id, now, now,
	)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("store: failed to create session")
	}
	return err
}

// SessionExists reports whether a session with the given ID exists.
func (c *Cache) SessionExists(id string) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppendHistoryItem persists one history.Item, retrying on SQLITE_BUSY.
func (c *Cache) AppendHistoryItem(sessionID string, item history.Item) error {
	if c == nil {
		return nil
	}

	var err error
	for attempt := 0; attempt <= sqliteBusyMaxRetries; attempt++ {
		err = c.appendHistoryItemOnce(sessionID, item)
		if err == nil {
			return nil
		}
		if !IsSQLiteBusy(err) || attempt == sqliteBusyMaxRetries {
			return err
		}
		backoff := time.Duration((attempt+1)*sqliteBusyBackoffStepMs) * time.Millisecond
		if backoff > sqliteBusyMaxBackoff {
			backoff = sqliteBusyMaxBackoff
		}
		time.Sleep(backoff)
	}
	return err
}

func (c *Cache) appendHistoryItemOnce(sessionID string, item history.Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal history item: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO history_items (session_id, seq, kind, payload, created) VALUES (?, ?, ?, ?, ?)`,
		sessionID, int64(item.ID), int(item.Kind), string(payload), time.Now().Unix(),
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("UPDATE sessions SET updated = ? WHERE id = ?", time.Now().Unix(), sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ReplaceHistory atomically replaces a session's entire persisted history —
// used after compaction (spec §4.H) replaces the in-memory log.
func (c *Cache) ReplaceHistory(sessionID string, items []history.Item) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM history_items WHERE session_id = ?", sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal history item: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO history_items (session_id, seq, kind, payload, created) VALUES (?, ?, ?, ?, ?)`,
			sessionID, int64(item.ID), int(item.Kind), string(payload), time.Now().Unix(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec("UPDATE sessions SET updated = ? WHERE id = ?", time.Now().Unix(), sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// LoadHistory returns every persisted history item for sessionID, ordered
// by sequence ID.
func (c *Cache) LoadHistory(sessionID string) ([]history.Item, error) {
	if c == nil {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(
		"SELECT payload FROM history_items WHERE session_id = ? ORDER BY seq", sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []history.Item
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var item history.Item
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("store: skipping unparseable history item")
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SessionSummary holds info for listing sessions.
type SessionSummary struct {
	ID      string
	Updated time.Time
	Preview string // first 50 chars of the most recent user item
}

// ListSessions returns sessions ordered by most recent activity.
func (c *Cache) ListSessions() ([]SessionSummary, error) {
	if c == nil {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT s.id, s.updated, COALESCE((SELECT h.payload FROM history_items h
		WHERE h.session_id = s.id AND h.kind = ? ORDER BY h.id DESC LIMIT 1), '')
		FROM sessions s ORDER BY s.updated DESC`, int(history.KindUser))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var updated int64
		var payload string
		if err := rows.Scan(&s.ID, &updated, &payload); err != nil {
			continue
		}
		var last history.Item
		if payload != "" && json.Unmarshal([]byte(payload), &last) == nil {
			preview := []rune(last.Content)
			s.Preview = string(preview[:min(len(preview), 50)])
		}
		s.Updated = time.Unix(updated, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LatestSessionID returns the most recently updated session's ID.
func (c *Cache) LatestSessionID() (string, error) {
	if c == nil {
		return "", fmt.Errorf("no store configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var id string
	err := c.db.QueryRow(`SELECT id FROM sessions ORDER BY updated DESC LIMIT 1`).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("no sessions found")
	}
	return id, nil
}
