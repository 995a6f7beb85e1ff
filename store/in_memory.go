package store

import (
	"sync"

	"github.com/aprendecomigo-edu/courier/core"
)

// DefaultCapacity is the bound applied when no explicit capacity is given.
const DefaultCapacity = 50

// InMemoryStore is the session-scoped core.NotificationStore implementation.
// Entries are kept most-recent-first in a bounded slice guarded by an
// RWMutex; reads return defensive copies so callers can never mutate stored
// state. UnreadCount is always recomputed from the entries, never cached.
type InMemoryStore struct {
	mu       sync.RWMutex
	capacity int
	entries  []core.Notification
	ids      map[string]bool
}

// InMemoryStoreOptions configures NewInMemoryStore.
type InMemoryStoreOptions struct {
	// Capacity bounds the number of retained entries (default 50).
	Capacity int
}

// NewInMemoryStore constructs an empty bounded store.
func NewInMemoryStore(optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	opts := InMemoryStoreOptions{Capacity: DefaultCapacity}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	return &InMemoryStore{capacity: opts.Capacity, ids: make(map[string]bool)}
}

// Add prepends the notification and trims the oldest entries beyond
// capacity. Inserts with an id already present are dropped (false) so ids
// stay unique for the lifetime of the session.
func (s *InMemoryStore) Add(n core.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[n.ID] {
		return false
	}
	s.entries = append([]core.Notification{n}, s.entries...)
	s.ids[n.ID] = true
	for len(s.entries) > s.capacity {
		evicted := s.entries[len(s.entries)-1]
		s.entries = s.entries[:len(s.entries)-1]
		delete(s.ids, evicted.ID)
	}
	return true
}

// Get returns the notification with the given id, if present.
func (s *InMemoryStore) Get(id string) (core.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.entries {
		if n.ID == id {
			return n, true
		}
	}
	return core.Notification{}, false
}

// List returns a snapshot of all entries, most-recent-first.
func (s *InMemoryStore) List() []core.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Notification, len(s.entries))
	copy(out, s.entries)
	return out
}

// MarkRead flags the matching entry as read. Returns false if absent.
func (s *InMemoryStore) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead flags every entry as read.
func (s *InMemoryStore) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		s.entries[i].Read = true
	}
}

// Clear removes the matching entry. Returns false if absent.
func (s *InMemoryStore) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			delete(s.ids, id)
			return true
		}
	}
	return false
}

// ClearAll removes every entry.
func (s *InMemoryStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.ids = make(map[string]bool)
}

// UnreadCount counts entries with Read == false.
func (s *InMemoryStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.entries {
		if !n.Read {
			count++
		}
	}
	return count
}

// Len returns the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
