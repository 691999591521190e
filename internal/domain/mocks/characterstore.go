// Package mocks provides in-memory implementations of the domain ports for
// tests.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/visionforge/forge-core/internal/domain/apperr"
	"github.com/visionforge/forge-core/internal/domain/entities"
)

// CharacterStore is an in-memory ports.CharacterStore with the same
// conflict semantics as the SQLite implementation. Safe for concurrent use.
type CharacterStore struct {
	mu sync.Mutex

	characters map[string]*entities.Character
	charSeq    map[string]int
	versions   map[string][]entities.VersionEntry
	sessions   map[string]entities.Session
	sessSeq    map[string]int
	registry   map[string]entities.RegistryEntry
	regOrder   []string
	refs       []entities.CharacterRef

	seq int

	// Err, when set, is returned by every method.
	Err error
	// ConflictsToInject fails that many AppendVersion calls with ErrConflict
	// before applying, to exercise the retry path.
	ConflictsToInject int
}

// NewCharacterStore creates an empty in-memory store.
func NewCharacterStore() *CharacterStore {
	return &CharacterStore{
		characters: make(map[string]*entities.Character),
		charSeq:    make(map[string]int),
		versions:   make(map[string][]entities.VersionEntry),
		sessions:   make(map[string]entities.Session),
		sessSeq:    make(map[string]int),
		registry:   make(map[string]entities.RegistryEntry),
	}
}

func (s *CharacterStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *CharacterStore) EnsureSchema(ctx context.Context) error {
	return s.Err
}

func (s *CharacterStore) Close() error {
	return nil
}

func (s *CharacterStore) FindCharacter(ctx context.Context, id string) (*entities.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	ch, ok := s.characters[id]
	if !ok {
		return nil, nil
	}
	return cloneCharacter(ch), nil
}

func (s *CharacterStore) ListCharacters(ctx context.Context, limit int) ([]*entities.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*entities.Character, 0, len(s.characters))
	for _, ch := range s.characters {
		if !ch.Archived {
			out = append(out, cloneCharacter(ch))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.charSeq[out[i].ID] > s.charSeq[out[j].ID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *CharacterStore) ArchiveCharacter(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	ch, ok := s.characters[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	ch.Archived = true
	ch.UpdatedAt = time.Now()
	for sid, sess := range s.sessions {
		if sess.ActiveCharacterID == id {
			sess.ActiveCharacterID = ""
			sess.UpdatedAt = time.Now()
			s.sessions[sid] = sess
		}
	}
	return nil
}

func (s *CharacterStore) CreateCharacter(ctx context.Context, ch *entities.Character, first *entities.VersionEntry, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if ch.ID == "" {
		ch.ID = s.nextID("char")
	}
	now := time.Now()
	ch.CreatedAt = now
	ch.UpdatedAt = now
	ch.CurrentVersion = 1

	stored := cloneCharacter(ch)
	s.characters[ch.ID] = stored
	s.seq++
	s.charSeq[ch.ID] = s.seq

	if first.ID == "" {
		first.ID = s.nextID("ver")
	}
	first.CharacterID = ch.ID
	first.Version = 1
	first.CreatedAt = now
	s.versions[ch.ID] = append(s.versions[ch.ID], cloneEntry(first))

	if sessionID != "" {
		s.setSession(sessionID, ch.ID, now)
	}
	return nil
}

func (s *CharacterStore) AppendVersion(ctx context.Context, entry *entities.VersionEntry, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	ch, ok := s.characters[entry.CharacterID]
	if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, entry.CharacterID)
	}
	if s.ConflictsToInject > 0 {
		s.ConflictsToInject--
		return fmt.Errorf("%w: version %d already taken", apperr.ErrConflict, entry.Version)
	}
	if ch.Archived || entry.Version != ch.CurrentVersion+1 {
		return fmt.Errorf("%w: version %d already taken", apperr.ErrConflict, entry.Version)
	}

	now := time.Now()
	if entry.ID == "" {
		entry.ID = s.nextID("ver")
	}
	entry.CreatedAt = now
	s.versions[ch.ID] = append(s.versions[ch.ID], cloneEntry(entry))

	ch.CurrentVersion = entry.Version
	ch.Attributes = entry.Snapshot.Clone()
	ch.UpdatedAt = now

	if sessionID != "" {
		s.setSession(sessionID, ch.ID, now)
	}
	return nil
}

func (s *CharacterStore) ListVersions(ctx context.Context, characterID string) ([]entities.VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	entries := s.versions[characterID]
	out := make([]entities.VersionEntry, 0, len(entries))
	for i := range entries {
		out = append(out, cloneEntry(&entries[i]))
	}
	return out, nil
}

func (s *CharacterStore) FindVersion(ctx context.Context, characterID string, version int) (*entities.VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for i := range s.versions[characterID] {
		if s.versions[characterID][i].Version == version {
			entry := cloneEntry(&s.versions[characterID][i])
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *CharacterStore) CountVersions(ctx context.Context, characterID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.versions[characterID]), nil
}

func (s *CharacterStore) FindSession(ctx context.Context, id string) (*entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	out := sess
	return &out, nil
}

func (s *CharacterStore) SaveSession(ctx context.Context, session *entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.setSession(session.ID, session.ActiveCharacterID, time.Now())
	return nil
}

func (s *CharacterStore) ClearSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if sess, ok := s.sessions[id]; ok {
		sess.ActiveCharacterID = ""
		sess.UpdatedAt = time.Now()
		s.sessions[id] = sess
	}
	return nil
}

func (s *CharacterStore) ListSessions(ctx context.Context) ([]entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]entities.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.sessSeq[out[i].ID] > s.sessSeq[out[j].ID]
	})
	return out, nil
}

func (s *CharacterStore) SaveRegistryEntry(ctx context.Context, entry *entities.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if entry.CharacterID == "" {
		entry.CharacterID = s.nextID("reg")
	}
	if entry.RegisteredAt.IsZero() {
		entry.RegisteredAt = time.Now()
	}
	if _, ok := s.registry[entry.CharacterID]; !ok {
		s.regOrder = append(s.regOrder, entry.CharacterID)
	}
	stored := *entry
	stored.Attributes = entry.Attributes.Clone()
	s.registry[entry.CharacterID] = stored
	return nil
}

func (s *CharacterStore) FindRegistryEntry(ctx context.Context, characterID string) (*entities.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	entry, ok := s.registry[characterID]
	if !ok {
		return nil, nil
	}
	out := entry
	out.Attributes = entry.Attributes.Clone()
	return &out, nil
}

func (s *CharacterStore) ListRegistryEntries(ctx context.Context) ([]entities.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]entities.RegistryEntry, 0, len(s.regOrder))
	for _, id := range s.regOrder {
		entry := s.registry[id]
		entry.Attributes = entry.Attributes.Clone()
		out = append(out, entry)
	}
	return out, nil
}

func (s *CharacterStore) SaveReference(ctx context.Context, ref *entities.CharacterRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.refs {
		if existing.SourceID == ref.SourceID && existing.TargetID == ref.TargetID && existing.Relation == ref.Relation {
			return nil
		}
	}
	if ref.ID == "" {
		ref.ID = s.nextID("ref")
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}
	s.refs = append(s.refs, *ref)
	return nil
}

func (s *CharacterStore) FindReferencesByCharacter(ctx context.Context, characterID string) ([]entities.CharacterRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []entities.CharacterRef
	for _, ref := range s.refs {
		if ref.SourceID == characterID || ref.TargetID == characterID {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (s *CharacterStore) setSession(id, characterID string, now time.Time) {
	s.seq++
	s.sessSeq[id] = s.seq
	s.sessions[id] = entities.Session{
		ID:                id,
		ActiveCharacterID: characterID,
		UpdatedAt:         now,
	}
}

func cloneCharacter(ch *entities.Character) *entities.Character {
	out := *ch
	out.Attributes = ch.Attributes.Clone()
	return &out
}

func cloneEntry(entry *entities.VersionEntry) entities.VersionEntry {
	out := *entry
	out.Snapshot = entry.Snapshot.Clone()
	return out
}
