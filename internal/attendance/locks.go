package attendance

import (
	"fmt"
	"sync"
)

// keyedLocks serializes the read-check-then-write sequences on a
// per-(student, session) key within this process. The unique index on
// attendances remains the authoritative guard when several instances run;
// this lock just keeps a single instance from racing itself between the
// live check-in path and the batch absence-synthesis path.
type keyedLocks struct {
	mu   sync.Mutex
	held map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{held: make(map[string]*lockEntry)}
}

// lock acquires the mutex for key and returns the matching unlock func.
func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.held[key]
	if !ok {
		e = &lockEntry{}
		k.held[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}

func recordKey(studentID, sessionID uint64) string {
	return fmt.Sprintf("%d:%d", studentID, sessionID)
}
