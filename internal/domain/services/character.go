// Package services contains domain business logic.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/ports"
)

var timeNow = time.Now

const (
	// maxWriteRetries bounds how often a write re-reads and retries after a
	// concurrent writer wins the version slot.
	maxWriteRetries = 3

	// DefaultListLimit caps character listings.
	DefaultListLimit = 100
)

// SaveResult identifies the version entry a write produced.
type SaveResult struct {
	CharacterID string `json:"character_id"`
	Version     int    `json:"version"`
	Created     bool   `json:"created,omitempty"`
}

// RollbackResult carries the restored mapping along with the version entry
// that recorded the rollback.
type RollbackResult struct {
	CharacterID  string              `json:"character_id"`
	Version      int                 `json:"version"`
	RestoredFrom int                 `json:"restored_from"`
	Attributes   entities.Attributes `json:"attributes"`
}

// writeLocks hands out one mutex per character id so in-process writers to
// the same character serialize while writers to other characters proceed
// independently.
type writeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newWriteLocks() *writeLocks {
	return &writeLocks{locks: make(map[string]*sync.Mutex)}
}

func (w *writeLocks) acquire(id string) *sync.Mutex {
	w.mu.Lock()
	m, ok := w.locks[id]
	if !ok {
		m = &sync.Mutex{}
		w.locks[id] = m
	}
	w.mu.Unlock()
	m.Lock()
	return m
}

// CharacterService owns the character lifecycle: creation, versioned edits,
// history, rollback and archival. Every write to a character lands as a new
// entry in its append-only version ledger.
type CharacterService struct {
	store ports.CharacterStore
	locks *writeLocks
}

// NewCharacterService creates a new CharacterService.
func NewCharacterService(store ports.CharacterStore) *CharacterService {
	return &CharacterService{store: store, locks: newWriteLocks()}
}

// Save stores data as the session's active character. Without an active
// character a new one is created and becomes active; otherwise the active
// character gains a full-replacement version.
func (s *CharacterService) Save(ctx context.Context, sessionID string, data entities.Attributes, toolName, description, promptContext string) (*SaveResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", apperr.ErrValidation)
	}
	if err := validateAttributes(data); err != nil {
		return nil, err
	}
	if toolName == "" {
		toolName = entities.ToolSave
	}

	sess, err := s.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	if sess != nil && sess.ActiveCharacterID != "" {
		ch, err := s.store.FindCharacter(ctx, sess.ActiveCharacterID)
		if err != nil {
			return nil, fmt.Errorf("finding character: %w", err)
		}
		if ch != nil && !ch.Archived {
			if description == "" {
				description = "Character saved"
			}
			return s.appendVersion(ctx, ch.ID, sessionID, replaceWith(data), toolName, description, promptContext)
		}
		// Stale pointer; fall through and create a fresh character.
	}

	return s.create(ctx, sessionID, data, toolName, description, promptContext)
}

// Update merges patch into the session's active character as a new version.
// Only the top-level keys present in patch change; everything else carries
// over from the current snapshot.
func (s *CharacterService) Update(ctx context.Context, sessionID string, patch entities.Attributes, toolName, description string) (*SaveResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", apperr.ErrValidation)
	}
	if err := validateAttributes(patch); err != nil {
		return nil, err
	}
	if toolName == "" {
		toolName = entities.ToolUpdate
	}
	if description == "" {
		description = "Character updated"
	}

	sess, err := s.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	if sess == nil || sess.ActiveCharacterID == "" {
		return nil, fmt.Errorf("%w: save a character before updating", apperr.ErrNoActiveCharacter)
	}
	return s.appendVersion(ctx, sess.ActiveCharacterID, sessionID, mergeWith(patch), toolName, description, "")
}

// Current returns the session's active character, or nil when the session
// has none.
func (s *CharacterService) Current(ctx context.Context, sessionID string) (*entities.Character, error) {
	sess, err := s.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	if sess == nil || sess.ActiveCharacterID == "" {
		return nil, nil
	}
	ch, err := s.store.FindCharacter(ctx, sess.ActiveCharacterID)
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}
	if ch == nil || ch.Archived {
		return nil, nil
	}
	return ch, nil
}

// Get returns a character by id, archived or not.
func (s *CharacterService) Get(ctx context.Context, characterID string) (*entities.Character, error) {
	if characterID == "" {
		return nil, fmt.Errorf("%w: character id is required", apperr.ErrValidation)
	}
	ch, err := s.store.FindCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
	}
	return ch, nil
}

// History returns the character's full version ledger, oldest first.
func (s *CharacterService) History(ctx context.Context, characterID string) ([]entities.VersionEntry, error) {
	ch, err := s.store.FindCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
	}
	entries, err := s.store.ListVersions(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return entries, nil
}

// Rollback restores the snapshot recorded at version by appending it as a
// new head version. History is never rewritten.
func (s *CharacterService) Rollback(ctx context.Context, characterID string, version int) (*RollbackResult, error) {
	target, err := s.store.FindVersion(ctx, characterID, version)
	if err != nil {
		return nil, fmt.Errorf("finding version: %w", err)
	}
	if target == nil {
		ch, err := s.store.FindCharacter(ctx, characterID)
		if err != nil {
			return nil, fmt.Errorf("finding character: %w", err)
		}
		if ch == nil {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
		}
		return nil, fmt.Errorf("%w: character %s has no version %d", apperr.ErrVersionNotFound, characterID, version)
	}

	description := fmt.Sprintf("Rolled back to version %d", version)
	res, err := s.appendVersion(ctx, characterID, "", replaceWith(target.Snapshot), entities.ToolRollback, description, "")
	if err != nil {
		return nil, err
	}
	return &RollbackResult{
		CharacterID:  characterID,
		Version:      res.Version,
		RestoredFrom: version,
		Attributes:   target.Snapshot.Clone(),
	}, nil
}

// List returns non-archived characters, newest first.
func (s *CharacterService) List(ctx context.Context, limit int) ([]*entities.Character, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	chars, err := s.store.ListCharacters(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	return chars, nil
}

// Archive retires a character. Its ledger stays readable, but it disappears
// from listings, stops accepting writes, and is detached from any session
// that had it active.
func (s *CharacterService) Archive(ctx context.Context, characterID string) error {
	lock := s.locks.acquire(characterID)
	defer lock.Unlock()

	ch, err := s.store.FindCharacter(ctx, characterID)
	if err != nil {
		return fmt.Errorf("finding character: %w", err)
	}
	if ch == nil {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
	}
	if err := s.store.ArchiveCharacter(ctx, characterID); err != nil {
		return fmt.Errorf("archiving character: %w", err)
	}
	return nil
}

// Diff compares two recorded versions of a character at the top level of
// the attribute mapping.
func (s *CharacterService) Diff(ctx context.Context, characterID string, from, to int) (*entities.VersionDiff, error) {
	vFrom, err := s.store.FindVersion(ctx, characterID, from)
	if err != nil {
		return nil, fmt.Errorf("finding version: %w", err)
	}
	if vFrom == nil {
		return nil, fmt.Errorf("%w: character %s has no version %d", apperr.ErrVersionNotFound, characterID, from)
	}
	vTo, err := s.store.FindVersion(ctx, characterID, to)
	if err != nil {
		return nil, fmt.Errorf("finding version: %w", err)
	}
	if vTo == nil {
		return nil, fmt.Errorf("%w: character %s has no version %d", apperr.ErrVersionNotFound, characterID, to)
	}

	added, removed, changed := diffAttributes(vFrom.Snapshot, vTo.Snapshot)
	return &entities.VersionDiff{
		CharacterID: characterID,
		FromVersion: from,
		ToVersion:   to,
		Added:       added,
		Removed:     removed,
		Changed:     changed,
	}, nil
}

// Restore recreates a character from an exported lineage under a fresh id,
// replaying the entries oldest first. The restored ledger is renumbered from
// 1, so gaps in the export collapse. An empty sessionID restores without
// touching any session.
func (s *CharacterService) Restore(ctx context.Context, sessionID string, versions []entities.VersionEntry) (*SaveResult, error) {
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: export has no versions", apperr.ErrValidation)
	}

	sorted := make([]entities.VersionEntry, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for i := range sorted {
		if err := validateAttributes(sorted[i].Snapshot); err != nil {
			return nil, fmt.Errorf("version %d: %w", sorted[i].Version, err)
		}
	}

	first := sorted[0]
	toolName := first.ToolName
	if toolName == "" {
		toolName = entities.ToolSave
	}
	res, err := s.create(ctx, sessionID, first.Snapshot, toolName, first.Description, first.PromptContext)
	if err != nil {
		return nil, err
	}

	for _, v := range sorted[1:] {
		toolName := v.ToolName
		if toolName == "" {
			toolName = entities.ToolUpdate
		}
		res, err = s.appendVersion(ctx, res.CharacterID, sessionID, replaceWith(v.Snapshot), toolName, v.Description, v.PromptContext)
		if err != nil {
			return nil, fmt.Errorf("restoring version %d: %w", v.Version, err)
		}
	}

	return &SaveResult{CharacterID: res.CharacterID, Version: res.Version, Created: true}, nil
}

// appendVersion serializes in-process writers on the character, rebuilds the
// snapshot from the row current at write time and appends it as the next
// version. When a writer in another process wins the version slot, the
// read-build-append cycle retries on fresh state, so concurrent writers
// produce consecutive versions rather than failures.
func (s *CharacterService) appendVersion(ctx context.Context, characterID, sessionID string, build func(entities.Attributes) entities.Attributes, toolName, description, promptContext string) (*SaveResult, error) {
	lock := s.locks.acquire(characterID)
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		ch, err := s.store.FindCharacter(ctx, characterID)
		if err != nil {
			return nil, fmt.Errorf("finding character: %w", err)
		}
		if ch == nil {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, characterID)
		}
		if ch.Archived {
			return nil, fmt.Errorf("%w: character %s is archived", apperr.ErrValidation, characterID)
		}

		entry := &entities.VersionEntry{
			CharacterID:   characterID,
			Version:       ch.CurrentVersion + 1,
			Snapshot:      build(ch.Attributes),
			ToolName:      toolName,
			Description:   description,
			PromptContext: promptContext,
		}
		err = s.store.AppendVersion(ctx, entry, sessionID)
		if err == nil {
			return &SaveResult{CharacterID: characterID, Version: entry.Version}, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, fmt.Errorf("appending version: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("appending version after %d attempts: %w", maxWriteRetries, lastErr)
}

func (s *CharacterService) create(ctx context.Context, sessionID string, data entities.Attributes, toolName, description, promptContext string) (*SaveResult, error) {
	if description == "" {
		description = "Character created"
	}
	ch := &entities.Character{
		Attributes:     data.Clone(),
		CurrentVersion: 1,
	}
	first := &entities.VersionEntry{
		Version:       1,
		Snapshot:      data.Clone(),
		ToolName:      toolName,
		Description:   description,
		PromptContext: promptContext,
	}
	if err := s.store.CreateCharacter(ctx, ch, first, sessionID); err != nil {
		return nil, fmt.Errorf("creating character: %w", err)
	}
	return &SaveResult{CharacterID: ch.ID, Version: 1, Created: true}, nil
}

func replaceWith(data entities.Attributes) func(entities.Attributes) entities.Attributes {
	return func(entities.Attributes) entities.Attributes { return data.Clone() }
}

func mergeWith(patch entities.Attributes) func(entities.Attributes) entities.Attributes {
	return func(current entities.Attributes) entities.Attributes { return current.Merge(patch) }
}

// validateAttributes rejects payloads that are not a usable open mapping.
// The mapping itself stays schemaless; only structural problems are errors.
func validateAttributes(attrs entities.Attributes) error {
	if len(attrs) == 0 {
		return fmt.Errorf("%w: attributes must be a non-empty mapping", apperr.ErrValidation)
	}
	for key := range attrs {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: attribute keys must not be blank", apperr.ErrValidation)
		}
	}
	if _, err := json.Marshal(attrs); err != nil {
		return fmt.Errorf("%w: attributes must be JSON-serializable: %v", apperr.ErrValidation, err)
	}
	return nil
}

func diffAttributes(from, to entities.Attributes) (entities.Attributes, []string, map[string]any) {
	added := entities.Attributes{}
	changed := map[string]any{}
	var removed []string

	for key, after := range to {
		before, ok := from[key]
		switch {
		case !ok:
			added[key] = after
		case !reflect.DeepEqual(before, after):
			changed[key] = map[string]any{"from": before, "to": after}
		}
	}
	for key := range from {
		if _, ok := to[key]; !ok {
			removed = append(removed, key)
		}
	}
	sort.Strings(removed)
	return added, removed, changed
}
