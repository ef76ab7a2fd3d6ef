package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const rawColumns = "id, owner_source_id, owner_source_kind, language_hint, payload, status, fail_count, last_error, drop_reason, fetched_at, updated_at"

// InsertRawItems enqueues a batch of raw items as pending in a single
// transaction. Returns the number inserted.
func (s *Store) InsertRawItems(ctx context.Context, items []NewRawItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO raw_queue (
            owner_source_id, owner_source_kind, language_hint, payload,
            status, fail_count, fetched_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var count int64
	for _, item := range items {
		if _, err := stmt.ExecContext(
			ctx,
			item.OwnerSourceID,
			item.OwnerSourceKind,
			nullableString(item.LanguageHint),
			item.Payload,
			StatusPending,
			timestamp,
			timestamp,
		); err != nil {
			return 0, fmt.Errorf("insert raw item: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert tx: %w", err)
	}
	return count, nil
}

// GetRawByID fetches a raw item by identifier.
func (s *Store) GetRawByID(ctx context.Context, id int64) (*RawItem, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+rawColumns+` FROM raw_queue WHERE id = ?`, id)
	item, err := scanRawItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get raw item: %w", err)
	}
	return item, nil
}

// ListPending returns up to limit pending raw items, oldest fetched first.
func (s *Store) ListPending(ctx context.Context, limit int) ([]*RawItem, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+rawColumns+` FROM raw_queue WHERE status = ? ORDER BY fetched_at, id LIMIT ?`,
		StatusPending,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()
	return collectRawItems(rows)
}

// ListRaw returns raw items filtered by status set (or all when no status is
// provided), oldest fetched first.
func (s *Store) ListRaw(ctx context.Context, statuses ...Status) ([]*RawItem, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + rawColumns + ` FROM raw_queue`
	orderClause := ` ORDER BY fetched_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list raw items: %w", err)
	}
	defer rows.Close()
	return collectRawItems(rows)
}

// MarkProcessing atomically claims a pending item. Returns false when the item
// was not pending (already claimed, terminal, or gone).
func (s *Store) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE raw_queue SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusProcessing,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark processing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkDone resolves a processing item as accepted.
func (s *Store) MarkDone(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE raw_queue SET status = ?, drop_reason = NULL, last_error = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		StatusDone,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	return nil
}

// MarkDropped resolves a processing item as rejected with a reason.
func (s *Store) MarkDropped(ctx context.Context, id int64, reason string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE raw_queue SET status = ?, drop_reason = ?, last_error = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		StatusDropped,
		reason,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark dropped: %w", err)
	}
	return nil
}

// RecordFailure increments the fail counter on a processing item. The item
// goes back to pending for another attempt, or to failed once the counter
// reaches failCap. Returns the resulting status.
func (s *Store) RecordFailure(ctx context.Context, id int64, message string, failCap int) (Status, error) {
	if failCap <= 0 {
		failCap = 1
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE raw_queue
         SET fail_count = fail_count + 1,
             last_error = ?,
             status = CASE WHEN fail_count + 1 >= ? THEN ? ELSE ? END,
             updated_at = ?
         WHERE id = ? AND status = ?`,
		message,
		failCap,
		StatusFailed,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusProcessing,
	)
	if err != nil {
		return "", fmt.Errorf("record failure: %w", err)
	}

	item, err := s.GetRawByID(ctx, id)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", fmt.Errorf("raw item %d disappeared during failure handling", id)
	}
	return item.Status, nil
}

// ResetStuckProcessing returns items left in processing (by a crash or an
// aborted batch) back to pending. Called at the start of every batch.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE raw_queue SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed items back to pending with a cleared fail counter.
// With no ids, all failed items are retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE raw_queue SET status = ?, fail_count = 0, last_error = NULL, updated_at = ? WHERE status = ?`,
			StatusPending,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed items: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, timestamp, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE raw_queue SET status = ?, fail_count = 0, last_error = NULL, updated_at = ? WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected items: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM raw_queue WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// QueueStats returns a count of raw items grouped by status.
func (s *Store) QueueStats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM raw_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func collectRawItems(rows *sql.Rows) ([]*RawItem, error) {
	var items []*RawItem
	for rows.Next() {
		item, err := scanRawItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanRawItem(scanner interface{ Scan(dest ...any) error }) (*RawItem, error) {
	var (
		id           int64
		sourceID     string
		sourceKind   string
		languageHint sql.NullString
		payload      string
		statusStr    string
		failCount    int
		lastError    sql.NullString
		dropReason   sql.NullString
		fetchedRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceID,
		&sourceKind,
		&languageHint,
		&payload,
		&statusStr,
		&failCount,
		&lastError,
		&dropReason,
		&fetchedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &RawItem{
		ID:              id,
		OwnerSourceID:   sourceID,
		OwnerSourceKind: Kind(sourceKind),
		LanguageHint:    languageHint.String,
		Payload:         payload,
		Status:          Status(statusStr),
		FailCount:       failCount,
		LastError:       lastError.String,
		DropReason:      dropReason.String,
	}
	if fetched, err := parseTimeString(fetchedRaw.String); err == nil {
		item.FetchedAt = fetched
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
