package qualification

import (
	"sync"

	"github.com/google/uuid"
)

// LeadLocks serializes qualification steps per lead id. Two concurrent
// steps on stale copies of the same conversation would lose a scored turn,
// so every caller takes the lead's lock for the duration of a step.
type LeadLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*leadLock
}

type leadLock struct {
	mu   sync.Mutex
	refs int
}

func NewLeadLocks() *LeadLocks {
	return &LeadLocks{locks: make(map[uuid.UUID]*leadLock)}
}

// Lock blocks until the lead's lock is held and returns the unlock func.
// Entries are reference counted so the map does not grow with every lead
// ever seen.
func (l *LeadLocks) Lock(leadID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[leadID]
	if !ok {
		entry = &leadLock{}
		l.locks[leadID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, leadID)
		}
		l.mu.Unlock()
	}
}
