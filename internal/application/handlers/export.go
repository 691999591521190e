package handlers

import (
	"context"

	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/services"
)

// CharacterExport is the file format `forge export` writes and
// `forge import` reads: the character head plus its full version ledger.
type CharacterExport struct {
	Character *entities.Character     `json:"character"`
	Versions  []entities.VersionEntry `json:"versions"`
}

// ExportHandler assembles character exports.
type ExportHandler struct {
	characters *services.CharacterService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(characters *services.CharacterService) *ExportHandler {
	return &ExportHandler{characters: characters}
}

// Handle collects a character and its lineage for export.
func (h *ExportHandler) Handle(ctx context.Context, characterID string) (*CharacterExport, error) {
	ch, err := h.characters.Get(ctx, characterID)
	if err != nil {
		return nil, err
	}
	versions, err := h.characters.History(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return &CharacterExport{Character: ch, Versions: versions}, nil
}
