package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/infrastructure/characterstore/sqlite"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

func TestStore_FileDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "forge.db")

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should exist")

	// Create a character with two ledger entries and an active session.
	ch := &entities.Character{Attributes: entities.Attributes{"name": "Vex"}}
	first := &entities.VersionEntry{
		ID:          "ver-1",
		Snapshot:    entities.Attributes{"name": "Vex"},
		ToolName:    "save",
		Description: "Character created",
	}
	require.NoError(t, repo.CreateCharacter(ctx, ch, first, "local"))

	second := &entities.VersionEntry{
		ID:          "ver-2",
		CharacterID: ch.ID,
		Version:     2,
		Snapshot:    entities.Attributes{"name": "Vex", "mood": "grim"},
		ToolName:    "update",
		Description: "Character updated",
	}
	require.NoError(t, repo.AppendVersion(ctx, second, "local"))

	// Registry entry and a mention edge.
	require.NoError(t, repo.SaveRegistryEntry(ctx, &entities.RegistryEntry{
		CharacterID:  "reg-1",
		Attributes:   entities.Attributes{"name": "Kael"},
		RegisteredAt: time.Now(),
	}))
	require.NoError(t, repo.SaveReference(ctx, &entities.CharacterRef{
		ID:       "ref-1",
		SourceID: "reg-1",
		TargetID: "reg-2",
		Relation: entities.RelationMentions,
	}))

	// Close and reopen; everything must survive.
	require.NoError(t, repo.Close())

	repo2, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer repo2.Close()

	found, err := repo2.FindCharacter(ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 2, found.CurrentVersion)
	assert.Equal(t, "Vex", found.Attributes.String("name"))
	assert.Equal(t, "grim", found.Attributes.String("mood"))

	versions, err := repo2.ListVersions(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)

	sess, err := repo2.FindSession(ctx, "local")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, ch.ID, sess.ActiveCharacterID)

	entry, err := repo2.FindRegistryEntry(ctx, "reg-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Kael", entry.Attributes.String("name"))

	refs, err := repo2.FindReferencesByCharacter(ctx, "reg-1")
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestStore_ConcurrentReads(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "concurrent-test.db")

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	for i := 0; i < 100; i++ {
		err := repo.SaveRegistryEntry(ctx, &entities.RegistryEntry{
			CharacterID:  fmt.Sprintf("reg-%d", i),
			Attributes:   entities.Attributes{"name": fmt.Sprintf("Character %d", i)},
			RegisteredAt: time.Now(),
		})
		require.NoError(t, err)
	}

	errCh := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			entries, err := repo.ListRegistryEntries(context.Background())
			if err != nil {
				errCh <- err
				return
			}
			if len(entries) != 100 {
				errCh <- fmt.Errorf("expected 100 registry entries, got %d", len(entries))
				return
			}
			errCh <- nil
		}()
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, <-errCh)
	}
}

func TestStore_ArchiveDetachesSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "archive-test.db")

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	ch := &entities.Character{Attributes: entities.Attributes{"name": "Nyx"}}
	first := &entities.VersionEntry{ID: "ver-1", Snapshot: entities.Attributes{"name": "Nyx"}, ToolName: "save"}
	require.NoError(t, repo.CreateCharacter(ctx, ch, first, "desk"))

	// A second session also picks up the character.
	require.NoError(t, repo.SaveSession(ctx, &entities.Session{ID: "laptop", ActiveCharacterID: ch.ID}))

	require.NoError(t, repo.ArchiveCharacter(ctx, ch.ID))

	// The character is hidden from listings but still readable by id.
	listed, err := repo.ListCharacters(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, listed)

	found, err := repo.FindCharacter(ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Archived)

	// Both sessions keep their rows but lose the pointer.
	for _, sessionID := range []string{"desk", "laptop"} {
		sess, err := repo.FindSession(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, sess, "session %s should still exist", sessionID)
		assert.Empty(t, sess.ActiveCharacterID)
	}
}
