package api

import (
	"github.com/visionforge/forge-core/internal/application/handlers"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/services"
)

// SaveCharacterRequest is the body for POST /api/characters.
type SaveCharacterRequest struct {
	Attributes    entities.Attributes `json:"attributes"`
	ToolName      string              `json:"tool_name,omitempty"`
	Description   string              `json:"description,omitempty"`
	PromptContext string              `json:"prompt_context,omitempty"`
}

// UpdateCharacterRequest is the body for PATCH /api/characters/current.
// Attributes is a partial patch, merged into the active character.
type UpdateCharacterRequest struct {
	Attributes  entities.Attributes `json:"attributes"`
	ToolName    string              `json:"tool_name,omitempty"`
	Description string              `json:"description,omitempty"`
}

// RollbackRequest is the body for POST /api/characters/{id}/rollback.
type RollbackRequest struct {
	Version int `json:"version"`
}

// CheckRequest is the body for POST /api/continuity/check. Exactly one of
// Content or CharacterID selects the check target; when both are empty the
// session's active character is checked.
type CheckRequest struct {
	CharacterID   string              `json:"character_id,omitempty"`
	Content       string              `json:"content,omitempty"`
	CharacterData entities.Attributes `json:"character_data,omitempty"`
}

// RegisterRequest is the body for POST /api/continuity/register.
type RegisterRequest struct {
	CharacterData entities.Attributes `json:"character_data"`
}

// RegisterResponse carries the registry id of a newly registered character.
type RegisterResponse struct {
	ID string `json:"id"`
}

// CharacterListResponse wraps character listings.
type CharacterListResponse struct {
	Characters []*entities.Character `json:"characters"`
	Total      int                   `json:"total"`
}

// Response types aliased from the domain layer.
type (
	Character      = entities.Character
	Report         = entities.Report
	VersionDiff    = entities.VersionDiff
	SaveResult     = services.SaveResult
	RollbackResult = services.RollbackResult
	HistoryResult  = handlers.HistoryResult
)
