package entities

import (
	"strings"
	"time"
)

// CharacterRef is an explicit edge between two registered characters,
// recorded when one character's backstory or persona mentions another by
// name. Edges feed the cross_references field of violation reports.
type CharacterRef struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Relation  string    `json:"relation"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationMentions marks an edge discovered by name-mention scanning.
const RelationMentions = "mentions"

// RegistryEntry is a character snapshot stored in the continuity registry,
// the shared database checks cross-reference against. Registration is
// independent of session state.
type RegistryEntry struct {
	CharacterID  string     `json:"character_id"`
	Attributes   Attributes `json:"attributes"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// ReferencePoint is the vector-indexed projection of a registry entry used
// for semantic cross-referencing.
type ReferencePoint struct {
	CharacterID  string    `json:"character_id"`
	Name         string    `json:"name"`
	Summary      string    `json:"summary"`
	Genre        string    `json:"genre"`
	Embedding    []float32 `json:"embedding,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NormalizeName lowercases and trims a character name for case-insensitive
// mention matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
