package ports

import (
	"context"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

// CharacterStore defines the durable storage interface for characters, their
// version ledger, sessions, and the continuity registry. Writes that spec a
// transaction (create, append) are all-or-nothing: either every row involved
// becomes visible to subsequent reads or none does.
type CharacterStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Character operations

	// FindCharacter finds a character by id. Returns nil, nil when absent.
	FindCharacter(ctx context.Context, characterID string) (*entities.Character, error)

	// ListCharacters lists non-archived characters newest-first.
	ListCharacters(ctx context.Context, limit int) ([]*entities.Character, error)

	// ArchiveCharacter marks a character archived and clears every session
	// pointing at it, in one transaction.
	ArchiveCharacter(ctx context.Context, characterID string) error

	// Version ledger

	// CreateCharacter atomically inserts the character row, its first
	// version entry, and points the session at the new character.
	CreateCharacter(ctx context.Context, ch *entities.Character, first *entities.VersionEntry, sessionID string) error

	// AppendVersion atomically appends a version entry whose Version must be
	// exactly current_version+1, advances the character's attributes and
	// current_version, and, when sessionID is non-empty, points the session
	// at the character. Returns apperr.ErrConflict when another writer
	// claimed that version first and apperr.ErrNotFound for an unknown id.
	AppendVersion(ctx context.Context, entry *entities.VersionEntry, sessionID string) error

	// ListVersions returns all versions of a character, oldest first.
	ListVersions(ctx context.Context, characterID string) ([]entities.VersionEntry, error)

	// FindVersion finds one version entry. Returns nil, nil when absent.
	FindVersion(ctx context.Context, characterID string, version int) (*entities.VersionEntry, error)

	// CountVersions counts how many versions a character has.
	CountVersions(ctx context.Context, characterID string) (int, error)

	// Sessions

	// FindSession finds a session by id. Returns nil, nil when absent.
	FindSession(ctx context.Context, sessionID string) (*entities.Session, error)

	// SaveSession inserts or replaces a session record.
	SaveSession(ctx context.Context, session *entities.Session) error

	// ClearSession drops the session's active-character pointer. The
	// character itself is untouched.
	ClearSession(ctx context.Context, sessionID string) error

	// ListSessions lists all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]entities.Session, error)

	// Continuity registry

	// SaveRegistryEntry inserts or replaces a registry snapshot.
	SaveRegistryEntry(ctx context.Context, entry *entities.RegistryEntry) error

	// FindRegistryEntry finds a registry snapshot. Returns nil, nil when
	// absent.
	FindRegistryEntry(ctx context.Context, characterID string) (*entities.RegistryEntry, error)

	// ListRegistryEntries lists all registry snapshots, oldest first.
	ListRegistryEntries(ctx context.Context) ([]entities.RegistryEntry, error)

	// Reference edges

	// SaveReference records a mention edge between two registered
	// characters. Saving the same source/target/relation again is a no-op.
	SaveReference(ctx context.Context, ref *entities.CharacterRef) error

	// FindReferencesByCharacter finds edges where the character is source or
	// target.
	FindReferencesByCharacter(ctx context.Context, characterID string) ([]entities.CharacterRef, error)
}
