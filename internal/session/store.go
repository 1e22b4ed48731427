// Package session binds browser sessions to users. A signed cookie carries
// an opaque session id; the data it points at lives in a Store.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

// Data is the server-side state of one session. UserID is zero for anonymous sessions.
type Data struct {
	UserID    int       `json:"user_id,omitempty"`
	Flashes   []string  `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether the session is bound to a user.
func (d *Data) Authenticated() bool {
	return d != nil && d.UserID > 0
}

func (d *Data) clone() *Data {
	c := *d
	c.Flashes = append([]string(nil), d.Flashes...)
	return &c
}

// Store persists session data by id.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, d *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ==========================
// In-memory store
// ==========================

type memEntry struct {
	data    *Data
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between instances.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memEntry
	lastPurge time.Time
	now       func() time.Time
}

// memPurgeInterval bounds how often Save sweeps expired entries.
const memPurgeInterval = time.Minute

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return nil, ErrNotFound
	}
	return e.data.clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, d *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastPurge) >= memPurgeInterval {
		for k, e := range s.entries {
			if !now.Before(e.expires) {
				delete(s.entries, k)
			}
		}
		s.lastPurge = now
	}
	s.entries[id] = memEntry{data: d.clone(), expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}
