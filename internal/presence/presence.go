// Package presence tracks per-user online/offline state and last-seen
// timestamps. Records are transient: recreated on reconnect, updated on
// disconnect, never written to the primary database.
package presence

import (
	"sync"
	"time"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type Record struct {
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// Store is the presence backend. The in-memory implementation covers a single
// process; the Redis implementation is the seam for running several server
// instances behind one presence view.
type Store interface {
	SetOnline(userID string) Record
	SetOffline(userID string, lastSeen time.Time) Record
	Get(userID string) (Record, bool)
}

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) SetOnline(userID string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{UserID: userID, Status: StatusOnline, LastSeen: time.Now()}
	s.records[userID] = rec
	return rec
}

func (s *memoryStore) SetOffline(userID string, lastSeen time.Time) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{UserID: userID, Status: StatusOffline, LastSeen: lastSeen}
	s.records[userID] = rec
	return rec
}

func (s *memoryStore) Get(userID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		// A user we have never seen is offline with no last-seen.
		return Record{UserID: userID, Status: StatusOffline}, false
	}
	return rec, true
}
