package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jokeColumns = "id, age_tier, language, content, content_normalized, fingerprint, bucket, owner_source_id, owner_source_kind, source_url, created_at, updated_at"

// InsertJoke commits an accepted item to the canonical store. The content
// hash is the primary key, so re-inserting the same content is a no-op.
// Returns true when a new row was written.
func (s *Store) InsertJoke(ctx context.Context, joke *Joke) (bool, error) {
	if joke == nil {
		return false, errors.New("joke is nil")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jokes (
            id, age_tier, language, content, content_normalized, fingerprint,
            bucket, owner_source_id, owner_source_kind, source_url, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO NOTHING`,
		joke.ID,
		joke.AgeTier,
		joke.Language,
		joke.Content,
		joke.ContentNormalized,
		joke.Fingerprint,
		joke.Bucket,
		joke.OwnerSourceID,
		joke.OwnerSourceKind,
		nullableString(joke.SourceURL),
		timestamp,
		timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("insert joke: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// JokeExists reports whether a canonical item with the given content hash exists.
func (s *Store) JokeExists(ctx context.Context, id string) (bool, error) {
	ctx = ensureContext(ctx)
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM jokes WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("joke exists: %w", err)
	}
	return true, nil
}

// GetJoke fetches a canonical item by content hash.
func (s *Store) GetJoke(ctx context.Context, id string) (*Joke, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+jokeColumns+` FROM jokes WHERE id = ?`, id)
	joke, err := scanJoke(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get joke: %w", err)
	}
	return joke, nil
}

// ListBucket returns every canonical item sharing an age tier, language, and
// fingerprint bucket. Used for the near-duplicate candidate scan.
func (s *Store) ListBucket(ctx context.Context, ageTier int, language, bucket string) ([]*Joke, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jokeColumns+` FROM jokes WHERE age_tier = ? AND language = ? AND bucket = ?`,
		ageTier,
		language,
		bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}
	defer rows.Close()
	return collectJokes(rows)
}

// PickRandom returns a uniformly random canonical item for the tier and
// language, or nil when none exist.
func (s *Store) PickRandom(ctx context.Context, ageTier int, language string) (*Joke, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jokeColumns+` FROM jokes WHERE age_tier = ? AND language = ? ORDER BY RANDOM() LIMIT 1`,
		ageTier,
		language,
	)
	joke, err := scanJoke(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pick random: %w", err)
	}
	return joke, nil
}

// PickNextUnplayed returns the oldest canonical item without a played record,
// or nil when everything has been played.
func (s *Store) PickNextUnplayed(ctx context.Context, ageTier int, language string) (*Joke, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jokeColumns+` FROM jokes
         WHERE age_tier = ? AND language = ?
           AND id NOT IN (SELECT joke_id FROM played)
         ORDER BY created_at, id LIMIT 1`,
		ageTier,
		language,
	)
	joke, err := scanJoke(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pick next unplayed: %w", err)
	}
	return joke, nil
}

// MarkPlayed records that a canonical item was delivered to the user.
func (s *Store) MarkPlayed(ctx context.Context, jokeID string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO played (joke_id, played_at) VALUES (?, ?) ON CONFLICT (joke_id) DO NOTHING`,
		jokeID,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("mark played: %w", err)
	}
	return nil
}

// ResetPlayed clears the played ledger so rotation starts over.
func (s *Store) ResetPlayed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM played`)
	if err != nil {
		return 0, fmt.Errorf("reset played: %w", err)
	}
	return res.RowsAffected()
}

// AddFavorite marks a canonical item as a favorite.
func (s *Store) AddFavorite(ctx context.Context, jokeID string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO favorites (joke_id, created_at) VALUES (?, ?) ON CONFLICT (joke_id) DO NOTHING`,
		jokeID,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks a favorite. Returns false when it was not one.
func (s *Store) RemoveFavorite(ctx context.Context, jokeID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM favorites WHERE joke_id = ?`, jokeID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsFavorite reports whether a canonical item is marked as a favorite.
func (s *Store) IsFavorite(ctx context.Context, jokeID string) (bool, error) {
	ctx = ensureContext(ctx)
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM favorites WHERE joke_id = ?`, jokeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is favorite: %w", err)
	}
	return true, nil
}

// ListFavorites returns favorited canonical items, most recently added first.
func (s *Store) ListFavorites(ctx context.Context) ([]*Joke, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jokeColumnsPrefixed+` FROM jokes j
         JOIN favorites f ON f.joke_id = j.id
         ORDER BY f.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()
	return collectJokes(rows)
}

// JokeCount returns the number of canonical items for a tier and language.
func (s *Store) JokeCount(ctx context.Context, ageTier int, language string) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM jokes WHERE age_tier = ? AND language = ?`,
		ageTier,
		language,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("joke count: %w", err)
	}
	return count, nil
}

// UnplayedCount returns how many canonical items have not been played yet.
func (s *Store) UnplayedCount(ctx context.Context, ageTier int, language string) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM jokes
         WHERE age_tier = ? AND language = ?
           AND id NOT IN (SELECT joke_id FROM played)`,
		ageTier,
		language,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unplayed count: %w", err)
	}
	return count, nil
}

const jokeColumnsPrefixed = "j.id, j.age_tier, j.language, j.content, j.content_normalized, j.fingerprint, j.bucket, j.owner_source_id, j.owner_source_kind, j.source_url, j.created_at, j.updated_at"

func collectJokes(rows *sql.Rows) ([]*Joke, error) {
	var jokes []*Joke
	for rows.Next() {
		joke, err := scanJoke(rows)
		if err != nil {
			return nil, err
		}
		jokes = append(jokes, joke)
	}
	return jokes, rows.Err()
}

func scanJoke(scanner interface{ Scan(dest ...any) error }) (*Joke, error) {
	var (
		id          string
		ageTier     int
		language    string
		content     string
		normalized  string
		fingerprint string
		bucket      string
		sourceID    string
		sourceKind  string
		sourceURL   sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&ageTier,
		&language,
		&content,
		&normalized,
		&fingerprint,
		&bucket,
		&sourceID,
		&sourceKind,
		&sourceURL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	joke := &Joke{
		ID:                id,
		AgeTier:           ageTier,
		Language:          language,
		Content:           content,
		ContentNormalized: normalized,
		Fingerprint:       fingerprint,
		Bucket:            bucket,
		OwnerSourceID:     sourceID,
		OwnerSourceKind:   Kind(sourceKind),
		SourceURL:         sourceURL.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		joke.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		joke.UpdatedAt = updated
	}
	return joke, nil
}
