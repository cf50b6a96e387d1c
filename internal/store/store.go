package store

import (
	"errors"
	"sync"

	"github.com/calvinwijaya/klondike-be/internal/game"
)

// ErrGameNotFound is returned when no live game has the requested ID.
var ErrGameNotFound = errors.New("game not found")

// Store defines the interface for the registry of live games
type Store interface {
	// SaveGame registers a game and returns its session
	SaveGame(g *game.KlondikeGame) (*Session, error)

	// GetGame retrieves a session by game ID
	GetGame(id string) (*Session, error)

	// DeleteGame removes a game from the store
	DeleteGame(id string) error

	// GetAllGames returns every live session
	GetAllGames() ([]*Session, error)
}

// Session serializes access to one game. The game core has no locks of its
// own, so every read or write goes through Do.
type Session struct {
	mu       sync.Mutex
	game     *game.KlondikeGame
	recorded bool
}

func NewSession(g *game.KlondikeGame) *Session {
	return &Session{game: g}
}

// ID returns the game ID. It never changes, so no lock is taken.
func (s *Session) ID() string {
	return s.game.ID
}

// Do runs fn with exclusive access to the game.
func (s *Session) Do(fn func(g *game.KlondikeGame) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.game)
}

// Snapshot returns a copy of the game's current state
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// MarkRecorded flips the session to recorded and reports whether this call did
// it, so a finished game's result is written only once.
func (s *Session) MarkRecorded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorded {
		return false
	}
	s.recorded = true
	return true
}

// ClearRecorded undoes MarkRecorded after a failed write so a later call can
// try again.
func (s *Session) ClearRecorded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = false
}
