// Package sqlite provides a SQLite implementation of the CharacterStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.CharacterStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Characters (current head of each version ledger)
	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		attributes TEXT NOT NULL,
		current_version INTEGER NOT NULL,
		archived INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_characters_listing ON characters(archived, created_at);

	-- Version ledger (append-only history per character)
	CREATE TABLE IF NOT EXISTS character_versions (
		id TEXT PRIMARY KEY,
		character_id TEXT NOT NULL REFERENCES characters(id),
		version INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		tool_name TEXT NOT NULL,
		description TEXT,
		prompt_context TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(character_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_character_versions_character ON character_versions(character_id);

	-- Sessions (tool session -> active character pointer; an empty
	-- active_character_id means the pointer was cleared)
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		active_character_id TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	);

	-- Continuity registry (characters known to the checker)
	CREATE TABLE IF NOT EXISTS continuity_registry (
		character_id TEXT PRIMARY KEY,
		attributes TEXT NOT NULL,
		registered_at TIMESTAMP NOT NULL
	);

	-- Reference edges between registered characters
	CREATE TABLE IF NOT EXISTS character_refs (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		relation TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(source_id, target_id, relation)
	);
	CREATE INDEX IF NOT EXISTS idx_character_refs_source ON character_refs(source_id);
	CREATE INDEX IF NOT EXISTS idx_character_refs_target ON character_refs(target_id);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// FindCharacter finds a character by id. Returns nil, nil when absent.
func (r *Repository) FindCharacter(ctx context.Context, characterID string) (*entities.Character, error) {
	query := `
		SELECT id, attributes, current_version, archived, created_at, updated_at
		FROM characters
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, characterID)

	ch, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// ListCharacters lists non-archived characters newest-first.
func (r *Repository) ListCharacters(ctx context.Context, limit int) ([]*entities.Character, error) {
	query := `
		SELECT id, attributes, current_version, archived, created_at, updated_at
		FROM characters
		WHERE archived = 0
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.Character, 0, limit)
	for rows.Next() {
		ch, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ch)
	}
	return result, rows.Err()
}

// ArchiveCharacter marks a character archived and clears every session
// pointing at it, in one transaction.
func (r *Repository) ArchiveCharacter(ctx context.Context, characterID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := timeNow()
	result, err := tx.ExecContext(ctx,
		`UPDATE characters SET archived = 1, updated_at = ? WHERE id = ?`,
		now, characterID,
	)
	if err != nil {
		return fmt.Errorf("archiving character: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET active_character_id = '', updated_at = ? WHERE active_character_id = ?`,
		now, characterID,
	)
	if err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CreateCharacter atomically inserts the character row, its first version
// entry, and points the session at the new character.
func (r *Repository) CreateCharacter(ctx context.Context, ch *entities.Character, first *entities.VersionEntry, sessionID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := timeNow()
	if ch.ID == "" {
		ch.ID = generateUUID()
	}
	ch.CurrentVersion = 1
	ch.CreatedAt = now
	ch.UpdatedAt = now

	attrs, err := json.Marshal(ch.Attributes)
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO characters (id, attributes, current_version, archived, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, ch.ID, string(attrs), ch.CurrentVersion, ch.CreatedAt, ch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting character: %w", err)
	}

	first.CharacterID = ch.ID
	first.Version = 1
	if err := insertVersion(ctx, tx, first, now); err != nil {
		return err
	}

	if sessionID != "" {
		if err := upsertSession(ctx, tx, sessionID, ch.ID, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AppendVersion atomically appends a version entry, advances the character
// head, and optionally points the session at the character. The conditional
// update enforces that Version is exactly current_version+1 on a live
// character; a lost race surfaces as apperr.ErrConflict.
func (r *Repository) AppendVersion(ctx context.Context, entry *entities.VersionEntry, sessionID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := timeNow()
	attrs, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE characters
		SET attributes = ?, current_version = ?, updated_at = ?
		WHERE id = ? AND current_version = ? AND archived = 0
	`, string(attrs), entry.Version, now, entry.CharacterID, entry.Version-1)
	if err != nil {
		return fmt.Errorf("advancing character: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM characters WHERE id = ?)`, entry.CharacterID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking character: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, entry.CharacterID)
		}
		return fmt.Errorf("%w: version %d already taken", apperr.ErrConflict, entry.Version)
	}

	if err := insertVersion(ctx, tx, entry, now); err != nil {
		return err
	}

	if sessionID != "" {
		if err := upsertSession(ctx, tx, sessionID, entry.CharacterID, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListVersions returns all versions of a character, oldest first.
func (r *Repository) ListVersions(ctx context.Context, characterID string) ([]entities.VersionEntry, error) {
	query := `
		SELECT id, character_id, version, snapshot, tool_name, description, prompt_context, created_at
		FROM character_versions
		WHERE character_id = ?
		ORDER BY version ASC
	`
	rows, err := r.db.QueryContext(ctx, query, characterID)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.VersionEntry, 0, 16)
	for rows.Next() {
		entry, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// FindVersion finds one version entry. Returns nil, nil when absent.
func (r *Repository) FindVersion(ctx context.Context, characterID string, version int) (*entities.VersionEntry, error) {
	query := `
		SELECT id, character_id, version, snapshot, tool_name, description, prompt_context, created_at
		FROM character_versions
		WHERE character_id = ? AND version = ?
	`
	row := r.db.QueryRowContext(ctx, query, characterID, version)

	entry, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CountVersions counts how many versions a character has.
func (r *Repository) CountVersions(ctx context.Context, characterID string) (int, error) {
	query := `SELECT COUNT(*) FROM character_versions WHERE character_id = ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, characterID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting versions: %w", err)
	}
	return count, nil
}

// FindSession finds a session by id. Returns nil, nil when absent.
func (r *Repository) FindSession(ctx context.Context, sessionID string) (*entities.Session, error) {
	query := `SELECT id, active_character_id, updated_at FROM sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, sessionID)

	var sess entities.Session
	err := row.Scan(&sess.ID, &sess.ActiveCharacterID, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &sess, nil
}

// SaveSession inserts or replaces a session record.
func (r *Repository) SaveSession(ctx context.Context, session *entities.Session) error {
	query := `
		INSERT INTO sessions (id, active_character_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active_character_id = excluded.active_character_id,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, session.ID, session.ActiveCharacterID, timeNow())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// ClearSession drops the session's active-character pointer.
func (r *Repository) ClearSession(ctx context.Context, sessionID string) error {
	query := `UPDATE sessions SET active_character_id = '', updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, timeNow(), sessionID)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// ListSessions lists all sessions, most recently updated first.
func (r *Repository) ListSessions(ctx context.Context) ([]entities.Session, error) {
	query := `SELECT id, active_character_id, updated_at FROM sessions ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]entities.Session, 0, 4)
	for rows.Next() {
		var sess entities.Session
		if err := rows.Scan(&sess.ID, &sess.ActiveCharacterID, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SaveRegistryEntry inserts or replaces a registry snapshot.
func (r *Repository) SaveRegistryEntry(ctx context.Context, entry *entities.RegistryEntry) error {
	if entry.CharacterID == "" {
		entry.CharacterID = generateUUID()
	}
	if entry.RegisteredAt.IsZero() {
		entry.RegisteredAt = timeNow()
	}

	attrs, err := json.Marshal(entry.Attributes)
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}

	query := `
		INSERT INTO continuity_registry (character_id, attributes, registered_at)
		VALUES (?, ?, ?)
		ON CONFLICT(character_id) DO UPDATE SET
			attributes = excluded.attributes,
			registered_at = excluded.registered_at
	`
	_, err = r.db.ExecContext(ctx, query, entry.CharacterID, string(attrs), entry.RegisteredAt)
	if err != nil {
		return fmt.Errorf("saving registry entry: %w", err)
	}
	return nil
}

// FindRegistryEntry finds a registry snapshot. Returns nil, nil when absent.
func (r *Repository) FindRegistryEntry(ctx context.Context, characterID string) (*entities.RegistryEntry, error) {
	query := `SELECT character_id, attributes, registered_at FROM continuity_registry WHERE character_id = ?`
	row := r.db.QueryRowContext(ctx, query, characterID)

	entry, err := scanRegistryEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListRegistryEntries lists all registry snapshots, oldest first.
func (r *Repository) ListRegistryEntries(ctx context.Context) ([]entities.RegistryEntry, error) {
	query := `SELECT character_id, attributes, registered_at FROM continuity_registry ORDER BY registered_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying registry: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.RegistryEntry, 0, 16)
	for rows.Next() {
		entry, err := scanRegistryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// SaveReference records a mention edge between two registered characters.
// Saving the same source/target/relation again is a no-op.
func (r *Repository) SaveReference(ctx context.Context, ref *entities.CharacterRef) error {
	if ref.ID == "" {
		ref.ID = generateUUID()
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = timeNow()
	}

	query := `
		INSERT OR IGNORE INTO character_refs (id, source_id, target_id, relation, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, ref.ID, ref.SourceID, ref.TargetID, ref.Relation, ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving reference: %w", err)
	}
	return nil
}

// FindReferencesByCharacter finds edges where the character is source or
// target.
func (r *Repository) FindReferencesByCharacter(ctx context.Context, characterID string) ([]entities.CharacterRef, error) {
	query := `
		SELECT id, source_id, target_id, relation, created_at
		FROM character_refs
		WHERE source_id = ? OR target_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, characterID, characterID)
	if err != nil {
		return nil, fmt.Errorf("querying references: %w", err)
	}
	defer rows.Close()

	refs := make([]entities.CharacterRef, 0, 8)
	for rows.Next() {
		var ref entities.CharacterRef
		if err := rows.Scan(&ref.ID, &ref.SourceID, &ref.TargetID, &ref.Relation, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// insertVersion writes one ledger row inside the caller's transaction,
// filling the entry's id and timestamp.
func insertVersion(ctx context.Context, tx *sql.Tx, entry *entities.VersionEntry, now time.Time) error {
	if entry.ID == "" {
		entry.ID = generateUUID()
	}
	entry.CreatedAt = now

	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	var description, promptContext sql.NullString
	if entry.Description != "" {
		description = sql.NullString{String: entry.Description, Valid: true}
	}
	if entry.PromptContext != "" {
		promptContext = sql.NullString{String: entry.PromptContext, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO character_versions (id, character_id, version, snapshot, tool_name, description, prompt_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.CharacterID, entry.Version, string(snapshot), entry.ToolName, description, promptContext, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting version: %w", err)
	}
	return nil
}

// upsertSession points a session at a character inside the caller's
// transaction.
func upsertSession(ctx context.Context, tx *sql.Tx, sessionID, characterID string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, active_character_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active_character_id = excluded.active_character_id,
			updated_at = excluded.updated_at
	`, sessionID, characterID, now)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (*entities.Character, error) {
	var ch entities.Character
	var attrs string

	err := row.Scan(
		&ch.ID,
		&attrs,
		&ch.CurrentVersion,
		&ch.Archived,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning character: %w", err)
	}

	if err := json.Unmarshal([]byte(attrs), &ch.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshaling attributes: %w", err)
	}
	return &ch, nil
}

func scanVersion(row rowScanner) (*entities.VersionEntry, error) {
	var entry entities.VersionEntry
	var snapshot string
	var description, promptContext sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.CharacterID,
		&entry.Version,
		&snapshot,
		&entry.ToolName,
		&description,
		&promptContext,
		&entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning version: %w", err)
	}

	entry.Description = description.String
	entry.PromptContext = promptContext.String

	if err := json.Unmarshal([]byte(snapshot), &entry.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &entry, nil
}

func scanRegistryEntry(row rowScanner) (*entities.RegistryEntry, error) {
	var entry entities.RegistryEntry
	var attrs string

	err := row.Scan(&entry.CharacterID, &attrs, &entry.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning registry entry: %w", err)
	}

	if err := json.Unmarshal([]byte(attrs), &entry.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshaling attributes: %w", err)
	}
	return &entry, nil
}
