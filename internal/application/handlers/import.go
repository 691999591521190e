package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/visionforge/forge-core/internal/domain/services"
)

// ImportHandler restores exported characters.
type ImportHandler struct {
	characters *services.CharacterService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(characters *services.CharacterService) *ImportHandler {
	return &ImportHandler{characters: characters}
}

// RestoreResult contains the result of restoring an export.
type RestoreResult struct {
	CharacterID string
	Name        string
	Versions    int
}

// Handle restores a character export file under a fresh id. When sessionID
// is non-empty the session is pointed at the restored character.
func (h *ImportHandler) Handle(ctx context.Context, sessionID, filePath string) (*RestoreResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	var export CharacterExport
	if err := json.NewDecoder(file).Decode(&export); err != nil {
		return nil, fmt.Errorf("parsing export file: %w", err)
	}

	res, err := h.characters.Restore(ctx, sessionID, export.Versions)
	if err != nil {
		return nil, err
	}

	ch, err := h.characters.Get(ctx, res.CharacterID)
	if err != nil {
		return nil, err
	}

	return &RestoreResult{
		CharacterID: res.CharacterID,
		Name:        ch.Attributes.String("name"),
		Versions:    res.Version,
	}, nil
}
