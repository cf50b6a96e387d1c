package store

import (
	"sort"
	"sync"

	"github.com/calvinwijaya/klondike-be/internal/game"
)

// MemoryStore is an in-memory implementation of the game registry. Games live
// only as long as the process.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// SaveGame saves a game to the store, replacing any session with the same ID
func (s *MemoryStore) SaveGame(g *game.KlondikeGame) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := NewSession(g)
	s.sessions[g.ID] = sess
	return sess, nil
}

// GetGame retrieves a session by ID
func (s *MemoryStore) GetGame(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrGameNotFound
	}

	return sess, nil
}

// DeleteGame removes a game from the store
func (s *MemoryStore) DeleteGame(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return ErrGameNotFound
	}
	delete(s.sessions, id)

	return nil
}

// GetAllGames returns all sessions ordered by game ID
func (s *MemoryStore) GetAllGames() ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID() < sessions[j].ID() })

	return sessions, nil
}
