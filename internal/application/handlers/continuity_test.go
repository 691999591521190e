package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/mocks"
	"github.com/visionforge/forge-core/internal/domain/services"
)

func newContinuityHandler(store *mocks.CharacterStore) *ContinuityHandler {
	engine := services.NewContinuityService(store, nil, nil, nil, nil, services.ContinuityOptions{})
	return NewContinuityHandler(
		engine,
		services.NewImportService(store, engine),
		services.NewSessionService(store),
	)
}

func TestContinuityHandler_CheckCharacter(t *testing.T) {
	store := mocks.NewCharacterStore()
	characters := newCharacterHandler(store)
	handler := newContinuityHandler(store)
	ctx := context.Background()

	saved, err := characters.HandleSave(ctx, "desk", entities.Attributes{
		"name":   "Vex",
		"origin": "an ordinary accountant with no powers",
		"power_suggestions": []any{
			map[string]any{"name": "Shadow Flame", "description": "channels dark magic", "cost_level": float64(9)},
		},
	}, "", "", "")
	require.NoError(t, err)

	t.Run("empty id falls back to the session", func(t *testing.T) {
		report, err := handler.HandleCheckCharacter(ctx, "desk", "")
		require.NoError(t, err)
		assert.Equal(t, saved.CharacterID, report.CharacterID)
		assert.NotZero(t, report.TotalViolations)
		assert.Equal(t, entities.SeverityHigh, report.MaxSeverity())
	})

	t.Run("explicit id", func(t *testing.T) {
		report, err := handler.HandleCheckCharacter(ctx, "", saved.CharacterID)
		require.NoError(t, err)
		assert.Equal(t, saved.CharacterID, report.CharacterID)
	})

	t.Run("no id and no active character", func(t *testing.T) {
		_, err := handler.HandleCheckCharacter(ctx, "empty-session", "")
		assert.ErrorIs(t, err, apperr.ErrNoActiveCharacter)
	})
}

func TestContinuityHandler_CheckContent(t *testing.T) {
	handler := newContinuityHandler(mocks.NewCharacterStore())
	ctx := context.Background()

	report, err := handler.HandleCheckContent(ctx, "haunted by a dark past, she trusts no one", nil)
	require.NoError(t, err)
	assert.NotZero(t, report.TotalViolations)

	_, err = handler.HandleCheckContent(ctx, "", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestContinuityHandler_Register(t *testing.T) {
	store := mocks.NewCharacterStore()
	handler := newContinuityHandler(store)
	ctx := context.Background()

	id, err := handler.HandleRegister(ctx, entities.Attributes{"name": "Mara", "genre": "noir"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entry, err := store.FindRegistryEntry(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Mara", entry.Attributes.String("name"))
}

func TestContinuityHandler_RegisterFile(t *testing.T) {
	store := mocks.NewCharacterStore()
	handler := newContinuityHandler(store)
	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chars.csv")
		require.NoError(t, os.WriteFile(path, []byte("name,origin\nMara,village girl\nRex,lab accident\n"), 0644))

		result, err := handler.HandleRegisterFile(ctx, path, RegisterFileOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)
		assert.Empty(t, result.Errors)

		entries, err := store.ListRegistryEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("json with explicit format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chars.txt")
		require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Kira", "genre": "noir"}]`), 0644))

		result, err := handler.HandleRegisterFile(ctx, path, RegisterFileOptions{Format: "json"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
	})
}

func TestContinuityHandler_RegisterFile_DryRun(t *testing.T) {
	store := mocks.NewCharacterStore()
	handler := newContinuityHandler(store)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "chars.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nMara\n"), 0644))

	result, err := handler.HandleRegisterFile(ctx, path, RegisterFileOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	entries, err := store.ListRegistryEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestContinuityHandler_RegisterFile_Errors(t *testing.T) {
	handler := newContinuityHandler(mocks.NewCharacterStore())
	ctx := context.Background()

	t.Run("unsupported format", func(t *testing.T) {
		_, err := handler.HandleRegisterFile(ctx, "chars.txt", RegisterFileOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := handler.HandleRegisterFile(ctx, filepath.Join(t.TempDir(), "nope.csv"), RegisterFileOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening file")
	})
}
