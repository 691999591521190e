package entities

import "time"

// Tool names recorded on version entries when the calling tool does not
// supply its own. ToolRollback is always set by the rollback path itself.
const (
	ToolSave     = "save"
	ToolUpdate   = "update"
	ToolRollback = "rollback"
)

// VersionEntry is one immutable snapshot in a character's lineage.
// Version numbers are per-character, start at 1, and increase in commit
// order. The ledger is append-only: rollback adds a new entry instead of
// rewriting history.
type VersionEntry struct {
	ID            string     `json:"id"`
	CharacterID   string     `json:"character_id"`
	Version       int        `json:"version"`
	Snapshot      Attributes `json:"snapshot"`
	ToolName      string     `json:"tool_name"`
	Description   string     `json:"description"`
	PromptContext string     `json:"prompt_context,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// VersionDiff describes the top-level attribute changes between two versions.
type VersionDiff struct {
	CharacterID string         `json:"character_id"`
	FromVersion int            `json:"from_version"`
	ToVersion   int            `json:"to_version"`
	Added       Attributes     `json:"added,omitempty"`
	Removed     []string       `json:"removed,omitempty"`
	Changed     map[string]any `json:"changed,omitempty"`
}
