package sessions

import (
	"sync"

	"github.com/google/uuid"
)

// keyedLocks serializes all mutations for one session id while letting
// distinct sessions proceed in parallel. Entries are reference-counted so
// the map does not grow with dead sessions.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the exclusive section for id and returns its unlock func.
func (l *keyedLocks) Lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
