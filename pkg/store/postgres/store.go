// Package postgres provides a PostgreSQL-backed implementation of the
// store interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spacegirl-bot/spacegirl/pkg/store"
)

// Schema is the SQL DDL for the persistence tables. Execute it via
// [Store.Migrate] or apply it manually during deployment.
//
// Guild and voice scopes live in their own tables so that overrides join
// against stable integer keys. Guild ID "-1" is the global scope and the
// voice name "All Voices" spans every voice; both are ordinary rows.
const Schema = `
CREATE TABLE IF NOT EXISTS servers (
    id        SERIAL PRIMARY KEY,
    server_id TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS voices (
    id   SERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS translations (
    id          SERIAL PRIMARY KEY,
    server_id   INTEGER NOT NULL REFERENCES servers(id),
    voice_id    INTEGER NOT NULL REFERENCES voices(id),
    text        TEXT NOT NULL,
    translation TEXT NOT NULL,
    UNIQUE (server_id, voice_id, text)
);
CREATE TABLE IF NOT EXISTS user_settings (
    user_id TEXT PRIMARY KEY,
    voice   TEXT
);
CREATE INDEX IF NOT EXISTS idx_translations_scope ON translations(server_id, voice_id);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a [store.Store] backed by a PostgreSQL database.
type Store struct {
	db DB
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// New creates a new [Store] that uses the given database connection or pool.
// The caller is responsible for calling [Store.Migrate] to ensure the schema
// exists before issuing queries.
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the tables
// and indexes if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// ensureServer returns the internal key for guildID, inserting a row if the
// guild has not been seen before.
func (s *Store) ensureServer(ctx context.Context, guildID string) (int, error) {
	const query = `
		INSERT INTO servers (server_id) VALUES ($1)
		ON CONFLICT (server_id) DO UPDATE SET server_id = EXCLUDED.server_id
		RETURNING id`

	var id int
	if err := s.db.QueryRow(ctx, query, guildID).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: ensure server %q: %w", guildID, err)
	}
	return id, nil
}

// ensureVoice returns the internal key for a voice name, inserting a row if
// the voice has not been seen before.
func (s *Store) ensureVoice(ctx context.Context, voice string) (int, error) {
	const query = `
		INSERT INTO voices (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id int
	if err := s.db.QueryRow(ctx, query, voice).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: ensure voice %q: %w", voice, err)
	}
	return id, nil
}

// GetPronunciation returns the replacement stored for text in the given
// scope, or "" if no override exists.
func (s *Store) GetPronunciation(ctx context.Context, guildID, voice, text string) (string, error) {
	const query = `
		SELECT t.translation
		FROM translations t
		JOIN servers s ON s.id = t.server_id
		JOIN voices v ON v.id = t.voice_id
		WHERE s.server_id = $1 AND v.name = $2 AND t.text = $3`

	var replacement string
	err := s.db.QueryRow(ctx, query, guildID, voice, text).Scan(&replacement)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("store: get pronunciation %q: %w", text, err)
	}
	return replacement, nil
}

// AddPronunciation stores an override, replacing any existing one for the
// same scope and text.
func (s *Store) AddPronunciation(ctx context.Context, guildID, voice, text, replacement string) error {
	serverKey, err := s.ensureServer(ctx, guildID)
	if err != nil {
		return err
	}
	voiceKey, err := s.ensureVoice(ctx, voice)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO translations (server_id, voice_id, text, translation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (server_id, voice_id, text)
		DO UPDATE SET translation = EXCLUDED.translation`

	if _, err := s.db.Exec(ctx, query, serverKey, voiceKey, text, replacement); err != nil {
		return fmt.Errorf("store: add pronunciation %q: %w", text, err)
	}
	return nil
}

// RemovePronunciation deletes an override and reports whether one existed.
func (s *Store) RemovePronunciation(ctx context.Context, guildID, voice, text string) (bool, error) {
	const query = `
		DELETE FROM translations t
		USING servers s, voices v
		WHERE t.server_id = s.id AND t.voice_id = v.id
		  AND s.server_id = $1 AND v.name = $2 AND t.text = $3`

	tag, err := s.db.Exec(ctx, query, guildID, voice, text)
	if err != nil {
		return false, fmt.Errorf("store: remove pronunciation %q: %w", text, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListPronunciations returns every override in the given scope, keyed by
// trigger text.
func (s *Store) ListPronunciations(ctx context.Context, guildID, voice string) (map[string]string, error) {
	const query = `
		SELECT t.text, t.translation
		FROM translations t
		JOIN servers s ON s.id = t.server_id
		JOIN voices v ON v.id = t.voice_id
		WHERE s.server_id = $1 AND v.name = $2`

	rows, err := s.db.Query(ctx, query, guildID, voice)
	if err != nil {
		return nil, fmt.Errorf("store: list pronunciations: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]string)
	for rows.Next() {
		var text, replacement string
		if err := rows.Scan(&text, &replacement); err != nil {
			return nil, fmt.Errorf("store: list pronunciations scan: %w", err)
		}
		overrides[text] = replacement
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list pronunciations: %w", err)
	}
	return overrides, nil
}

// UserVoice returns the user's preferred voice name, or "" if none is set.
func (s *Store) UserVoice(ctx context.Context, userID string) (string, error) {
	const query = `SELECT voice FROM user_settings WHERE user_id = $1`

	var voice *string
	err := s.db.QueryRow(ctx, query, userID).Scan(&voice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("store: user voice %q: %w", userID, err)
	}
	if voice == nil {
		return "", nil
	}
	return *voice, nil
}

// SetUserVoice stores the user's preferred voice name. An empty voice clears
// the preference.
func (s *Store) SetUserVoice(ctx context.Context, userID, voice string) error {
	var value *string
	if voice != "" {
		value = &voice
	}

	const query = `
		INSERT INTO user_settings (user_id, voice) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET voice = EXCLUDED.voice`

	if _, err := s.db.Exec(ctx, query, userID, value); err != nil {
		return fmt.Errorf("store: set user voice %q: %w", userID, err)
	}
	return nil
}
