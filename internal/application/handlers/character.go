// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/services"
)

// CharacterHandler handles character lifecycle operations. It resolves
// session context where the caller passed no explicit character id, so the
// CLI, HTTP and MCP surfaces share one resolution rule.
type CharacterHandler struct {
	characters *services.CharacterService
	sessions   *services.SessionService
}

// NewCharacterHandler creates a new character handler.
func NewCharacterHandler(characters *services.CharacterService, sessions *services.SessionService) *CharacterHandler {
	return &CharacterHandler{
		characters: characters,
		sessions:   sessions,
	}
}

// HistoryResult contains a character's full version ledger.
type HistoryResult struct {
	CharacterID string                  `json:"character_id"`
	Entries     []entities.VersionEntry `json:"entries"`
}

// HandleSave persists a full character profile for the session.
func (h *CharacterHandler) HandleSave(ctx context.Context, sessionID string, data entities.Attributes, toolName, description, promptContext string) (*services.SaveResult, error) {
	return h.characters.Save(ctx, sessionID, data, toolName, description, promptContext)
}

// HandleUpdate merges a partial patch into the session's active character.
func (h *CharacterHandler) HandleUpdate(ctx context.Context, sessionID string, patch entities.Attributes, toolName, description string) (*services.SaveResult, error) {
	return h.characters.Update(ctx, sessionID, patch, toolName, description)
}

// HandleCurrent returns the session's active character, or nil when the
// session has none.
func (h *CharacterHandler) HandleCurrent(ctx context.Context, sessionID string) (*entities.Character, error) {
	return h.characters.Current(ctx, sessionID)
}

// HandleHistory returns the version ledger for characterID, falling back to
// the session's active character when characterID is empty.
func (h *CharacterHandler) HandleHistory(ctx context.Context, sessionID, characterID string) (*HistoryResult, error) {
	id, err := h.resolveCharacterID(ctx, sessionID, characterID)
	if err != nil {
		return nil, err
	}
	entries, err := h.characters.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{CharacterID: id, Entries: entries}, nil
}

// HandleDiff compares two recorded versions of a character, resolving the
// session's active character when characterID is empty.
func (h *CharacterHandler) HandleDiff(ctx context.Context, sessionID, characterID string, from, to int) (*entities.VersionDiff, error) {
	id, err := h.resolveCharacterID(ctx, sessionID, characterID)
	if err != nil {
		return nil, err
	}
	return h.characters.Diff(ctx, id, from, to)
}

// HandleRollback restores an earlier version as a new head version,
// resolving the session's active character when characterID is empty.
func (h *CharacterHandler) HandleRollback(ctx context.Context, sessionID, characterID string, version int) (*services.RollbackResult, error) {
	id, err := h.resolveCharacterID(ctx, sessionID, characterID)
	if err != nil {
		return nil, err
	}
	return h.characters.Rollback(ctx, id, version)
}

// HandleArchive retires a character.
func (h *CharacterHandler) HandleArchive(ctx context.Context, characterID string) error {
	return h.characters.Archive(ctx, characterID)
}

// HandleList returns non-archived characters, newest first.
func (h *CharacterHandler) HandleList(ctx context.Context, limit int) ([]*entities.Character, error) {
	return h.characters.List(ctx, limit)
}

func (h *CharacterHandler) resolveCharacterID(ctx context.Context, sessionID, characterID string) (string, error) {
	return resolveCharacterID(ctx, h.sessions, sessionID, characterID)
}

// resolveCharacterID returns characterID unchanged, or the session's active
// character when characterID is empty.
func resolveCharacterID(ctx context.Context, sessions *services.SessionService, sessionID, characterID string) (string, error) {
	if characterID != "" {
		return characterID, nil
	}
	active, err := sessions.GetActive(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if active == "" {
		return "", fmt.Errorf("%w: no character id given and session %q has no active character", apperr.ErrNoActiveCharacter, sessionID)
	}
	return active, nil
}
