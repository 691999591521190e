package entities

import "time"

// Session binds an external session identifier to at most one active
// character. Only the pointer lives here; clearing a session never touches
// the character it pointed to.
type Session struct {
	ID                string    `json:"id"`
	ActiveCharacterID string    `json:"active_character_id,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}
