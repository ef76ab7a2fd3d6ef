package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jokebox/internal/language"
)

const sourceColumns = "id, kind, name, enabled, supported_languages, extraction_json, created_at, updated_at"

// UpsertSource creates or replaces a source configuration.
func (s *Store) UpsertSource(ctx context.Context, source *Source) error {
	if source == nil {
		return errors.New("source is nil")
	}
	if strings.TrimSpace(source.ID) == "" {
		return errors.New("source id is empty")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO source_configs (
            id, kind, name, enabled, supported_languages, extraction_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            kind = excluded.kind,
            name = excluded.name,
            enabled = excluded.enabled,
            supported_languages = excluded.supported_languages,
            extraction_json = excluded.extraction_json,
            updated_at = excluded.updated_at`,
		source.ID,
		source.Kind,
		source.Name,
		boolToInt(source.Enabled),
		joinLanguages(source.SupportedLanguages),
		source.ExtractionJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}
	return nil
}

// GetSource fetches a source configuration by identifier.
func (s *Store) GetSource(ctx context.Context, id string) (*Source, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM source_configs WHERE id = ?`, id)
	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return source, nil
}

// ListSources returns every configured source ordered by kind then name.
func (s *Store) ListSources(ctx context.Context) ([]*Source, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+sourceColumns+` FROM source_configs ORDER BY kind, name, id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()
	return collectSources(rows)
}

// ListFetchable returns enabled sources the fetcher should pull from.
func (s *Store) ListFetchable(ctx context.Context) ([]*Source, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sourceColumns+` FROM source_configs
         WHERE enabled = 1 AND kind IN (?, ?)
         ORDER BY kind, name, id`,
		KindBuiltin,
		KindUserOnline,
	)
	if err != nil {
		return nil, fmt.Errorf("list fetchable sources: %w", err)
	}
	defer rows.Close()
	return collectSources(rows)
}

// SetSourceEnabled toggles a source. Returns false when the source is unknown.
func (s *Store) SetSourceEnabled(ctx context.Context, id string, enabled bool) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE source_configs SET enabled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set source enabled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteSource removes a single source configuration.
func (s *Store) DeleteSource(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM source_configs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ReplaceBuiltins wipes every builtin source and loads the provided manifest
// entries in a single transaction.
func (s *Store) ReplaceBuiltins(ctx context.Context, sources []*Source) error {
	ctx = ensureContext(ctx)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bootstrap tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM source_configs WHERE kind = ?`, KindBuiltin); err != nil {
		return fmt.Errorf("wipe builtin sources: %w", err)
	}

	for _, source := range sources {
		if source == nil {
			continue
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO source_configs (
                id, kind, name, enabled, supported_languages, extraction_json, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			source.ID,
			KindBuiltin,
			source.Name,
			boolToInt(source.Enabled),
			joinLanguages(source.SupportedLanguages),
			source.ExtractionJSON,
			timestamp,
			timestamp,
		); err != nil {
			return fmt.Errorf("insert builtin source %s: %w", source.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap tx: %w", err)
	}
	return nil
}

// DeleteByKinds removes sources of the given kinds along with every raw item
// and canonical item they own, in one transaction. Returns the number of
// canonical items removed.
func (s *Store) DeleteByKinds(ctx context.Context, kinds ...Kind) (int64, error) {
	if len(kinds) == 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)

	placeholders := makePlaceholders(len(kinds))
	args := make([]any, len(kinds))
	for i, kind := range kinds {
		args[i] = kind
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM raw_queue WHERE owner_source_kind IN (`+placeholders+`)`, args...); err != nil {
		return 0, fmt.Errorf("delete raw items by kind: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM jokes WHERE owner_source_kind IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete jokes by kind: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM source_configs WHERE kind IN (`+placeholders+`)`, args...); err != nil {
		return 0, fmt.Errorf("delete sources by kind: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete tx: %w", err)
	}
	return deleted, nil
}

func joinLanguages(languages []string) string {
	cleaned := make([]string, 0, len(languages))
	for _, lang := range languages {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, ",")
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func collectSources(rows *sql.Rows) ([]*Source, error) {
	var sources []*Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func scanSource(scanner interface{ Scan(dest ...any) error }) (*Source, error) {
	var (
		id         string
		kind       string
		name       string
		enabled    int
		languages  string
		extraction string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(&id, &kind, &name, &enabled, &languages, &extraction, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	source := &Source{
		ID:                 id,
		Kind:               Kind(kind),
		Name:               name,
		Enabled:            enabled != 0,
		SupportedLanguages: language.ParseSupported(languages),
		ExtractionJSON:     extraction,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		source.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		source.UpdatedAt = updated
	}
	return source, nil
}
