package services

import "sync"

// GameLocks serializes mutations per game id. Locks for different games are
// independent, and an entry lives only while someone holds or waits on it.
type GameLocks struct {
	mu      sync.Mutex
	entries map[string]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func NewGameLocks() *GameLocks {
	return &GameLocks{entries: make(map[string]*gameLock)}
}

// Lock blocks until gameID is free and returns the matching unlock.
func (l *GameLocks) Lock(gameID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[gameID]
	if !ok {
		entry = &gameLock{}
		l.entries[gameID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, gameID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *GameLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
