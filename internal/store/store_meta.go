package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const metaKeyLastFetchAt = "last_fetch_at"

// SetMeta writes a key/value pair, replacing any previous value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
         ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key,
		value,
	)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// GetMeta reads a value by key. Returns false when the key is absent.
func (s *Store) GetMeta(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, true, nil
}

// SetLastFetchAt records when a fetch last completed successfully.
func (s *Store) SetLastFetchAt(ctx context.Context, at time.Time) error {
	return s.SetMeta(ctx, metaKeyLastFetchAt, at.UTC().Format(time.RFC3339))
}

// LastFetchAt returns the last successful fetch time, if one was recorded.
func (s *Store) LastFetchAt(ctx context.Context) (time.Time, bool, error) {
	value, ok, err := s.GetMeta(ctx, metaKeyLastFetchAt)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	at, parseErr := time.Parse(time.RFC3339, value)
	if parseErr != nil {
		return time.Time{}, false, fmt.Errorf("parse last fetch time: %w", parseErr)
	}
	return at, true, nil
}
