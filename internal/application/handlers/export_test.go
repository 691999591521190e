package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/mocks"
	"github.com/visionforge/forge-core/internal/domain/services"
)

func TestExportHandler_Handle(t *testing.T) {
	store := mocks.NewCharacterStore()
	characters := services.NewCharacterService(store)
	handler := NewExportHandler(characters)
	ctx := context.Background()

	saved, err := characters.Save(ctx, "desk", entities.Attributes{"name": "Vex", "mood": "wary"}, "", "", "")
	require.NoError(t, err)
	_, err = characters.Update(ctx, "desk", entities.Attributes{"mood": "grim"}, "", "")
	require.NoError(t, err)

	export, err := handler.Handle(ctx, saved.CharacterID)
	require.NoError(t, err)
	require.NotNil(t, export.Character)
	assert.Equal(t, saved.CharacterID, export.Character.ID)
	assert.Equal(t, 2, export.Character.CurrentVersion)
	require.Len(t, export.Versions, 2)
	assert.Equal(t, "wary", export.Versions[0].Snapshot.String("mood"))
	assert.Equal(t, "grim", export.Versions[1].Snapshot.String("mood"))
}

func TestExportHandler_Handle_NotFound(t *testing.T) {
	handler := NewExportHandler(services.NewCharacterService(mocks.NewCharacterStore()))

	_, err := handler.Handle(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
