package services

import (
	"context"
	"fmt"

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/ports"
)

// SessionService resolves which character is active for a session. Only the
// pointer lives here; session lifecycle is independent of character
// lifecycle.
type SessionService struct {
	store ports.CharacterStore
}

// NewSessionService creates a new SessionService.
func NewSessionService(store ports.CharacterStore) *SessionService {
	return &SessionService{store: store}
}

// GetActive returns the session's active character id, or "" when the
// session is unknown or has no active character.
func (s *SessionService) GetActive(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.store.FindSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("finding session: %w", err)
	}
	if sess == nil {
		return "", nil
	}
	return sess.ActiveCharacterID, nil
}

// SetActive points the session at a character. The character must exist and
// must not be archived.
func (s *SessionService) SetActive(ctx context.Context, sessionID, characterID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", apperr.ErrValidation)
	}

	ch, err := s.store.FindCharacter(ctx, characterID)
	if err != nil {
		return fmt.Errorf("finding character: %w", err)
	}
	if ch == nil {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
	}
	if ch.Archived {
		return fmt.Errorf("%w: character %s is archived", apperr.ErrValidation, characterID)
	}

	session := &entities.Session{
		ID:                sessionID,
		ActiveCharacterID: characterID,
		UpdatedAt:         timeNow(),
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear drops the session's active-character pointer. The character it
// pointed to is untouched.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// List returns all sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context) ([]entities.Session, error) {
	return s.store.ListSessions(ctx)
}
