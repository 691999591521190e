package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/services"
	"github.com/visionforge/forge-core/internal/infrastructure/characterstore/sqlite"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

// newFileStore builds a file-backed store for service-level tests.
func newFileStore(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "forge.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestCharacterLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	characters := services.NewCharacterService(newFileStore(t))

	// Save creates a character and makes it the session's active one.
	saved, err := characters.Save(ctx, "local",
		entities.Attributes{"name": "Vex", "mood": "angry"},
		"character-generator", "", "a rooftop brooder")
	require.NoError(t, err)
	assert.True(t, saved.Created)
	assert.Equal(t, 1, saved.Version)

	// Update merges on top of the current snapshot.
	updated, err := characters.Update(ctx, "local", entities.Attributes{"mood": "calm"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, saved.CharacterID, updated.CharacterID)
	assert.Equal(t, 2, updated.Version)

	current, err := characters.Current(ctx, "local")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "Vex", current.Attributes.String("name"))
	assert.Equal(t, "calm", current.Attributes.String("mood"))

	history, err := characters.History(ctx, saved.CharacterID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, "a rooftop brooder", history[0].PromptContext)

	diff, err := characters.Diff(ctx, saved.CharacterID, 1, 2)
	require.NoError(t, err)
	assert.Contains(t, diff.Changed, "mood")

	// Rollback appends the old snapshot as a new head; history stays intact.
	rolled, err := characters.Rollback(ctx, saved.CharacterID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, rolled.Version)
	assert.Equal(t, 1, rolled.RestoredFrom)

	current, err = characters.Current(ctx, "local")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "angry", current.Attributes.String("mood"))

	history, err = characters.History(ctx, saved.CharacterID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	// Archive hides the character and frees the session.
	require.NoError(t, characters.Archive(ctx, saved.CharacterID))

	current, err = characters.Current(ctx, "local")
	require.NoError(t, err)
	assert.Nil(t, current)

	listed, err := characters.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSessionIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	store := newFileStore(t)
	characters := services.NewCharacterService(store)
	sessions := services.NewSessionService(store)

	desk, err := characters.Save(ctx, "desk", entities.Attributes{"name": "Vex"}, "", "", "")
	require.NoError(t, err)
	laptop, err := characters.Save(ctx, "laptop", entities.Attributes{"name": "Kael"}, "", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, desk.CharacterID, laptop.CharacterID)

	// Each session sees only its own character.
	current, err := characters.Current(ctx, "desk")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "Vex", current.Attributes.String("name"))

	current, err = characters.Current(ctx, "laptop")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "Kael", current.Attributes.String("name"))

	all, err := sessions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Clearing keeps the session row with an empty pointer.
	require.NoError(t, sessions.Clear(ctx, "desk"))

	active, err := sessions.GetActive(ctx, "desk")
	require.NoError(t, err)
	assert.Empty(t, active)

	current, err = characters.Current(ctx, "desk")
	require.NoError(t, err)
	assert.Nil(t, current)

	// The other session is untouched.
	active, err = sessions.GetActive(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, laptop.CharacterID, active)
}

func TestRegistryMentionsAndCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	store := newFileStore(t)
	engine := services.NewContinuityService(store, nil, nil, nil, nil, services.ContinuityOptions{})

	kaelID, err := engine.Register(ctx, entities.Attributes{
		"name":            "Kael",
		"origin":          "street courier",
		"persona_summary": "A fast-talking courier who knows every alley.",
	})
	require.NoError(t, err)
	require.NotEmpty(t, kaelID)

	// Vex's persona names Kael, so registration records a mention edge.
	vexID, err := engine.Register(ctx, entities.Attributes{
		"name":            "Vex",
		"persona_summary": "A vigilante haunted by a dark past, trained by Kael.",
	})
	require.NoError(t, err)

	refs, err := store.FindReferencesByCharacter(ctx, vexID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, kaelID, refs[0].TargetID)
	assert.Equal(t, entities.RelationMentions, refs[0].Relation)

	// Checking Vex flags the cliché and carries the Kael cross-reference.
	report, err := engine.CheckCharacter(ctx, vexID)
	require.NoError(t, err)
	require.NotZero(t, report.TotalViolations)

	var style *entities.Violation
	for i := range report.Violations {
		if report.Violations[i].Type == entities.ViolationStyleIssue {
			style = &report.Violations[i]
			break
		}
	}
	require.NotNil(t, style, "expected a style violation for the cliché")
	assert.Contains(t, style.Description, "dark past")

	var mentionsKael bool
	for _, ref := range style.CrossReferences {
		if strings.Contains(ref, "Kael") {
			mentionsKael = true
		}
	}
	assert.True(t, mentionsKael, "cross references should name Kael: %v", style.CrossReferences)
}
