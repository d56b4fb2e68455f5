package app

import (
	"sync"

	"shipit/internal/domain"
)

// Store is an explicit in-memory registry of games keyed by id. Each game
// carries its own mutex so mutating operations against the same game are
// serialized even when the transport admits concurrent requests; there is
// no cross-game shared state.
type Store struct {
	mu    sync.RWMutex
	games map[string]*storeEntry
}

type storeEntry struct {
	mu   sync.Mutex
	game *domain.Game
}

// NewStore creates an empty game store.
func NewStore() *Store {
	return &Store{games: make(map[string]*storeEntry)}
}

// Put registers a game under its id.
func (s *Store) Put(g *domain.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = &storeEntry{game: g}
}

// Get returns the game with the given id. Callers must not mutate the
// result directly; mutations go through WithGame.
func (s *Store) Get(id string) (*domain.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.games[id]
	if !ok {
		return nil, false
	}
	return entry.game, true
}

// WithGame runs fn while holding the game's mutex, guaranteeing that at
// most one mutating operation runs per game at a time.
func (s *Store) WithGame(id string, fn func(*domain.Game) error) error {
	s.mu.RLock()
	entry, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return domain.NewError(domain.CodeGameNotFound, "game %s not found", id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.game)
}

// Delete removes a game from the store.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// Len reports the number of registered games.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
