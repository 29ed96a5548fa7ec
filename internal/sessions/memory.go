package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/kalike-app/kalike/internal/simulation"
)

type entry struct {
	lock    chan struct{}
	sess    simulation.Session
	expires time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{entries: make(map[string]*entry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, s simulation.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[s.ID]; ok && m.now().Before(e.expires) {
		return ErrExists
	}
	m.entries[s.ID] = &entry{
		lock:    make(chan struct{}, 1),
		sess:    s.Clone(),
		expires: m.now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryStore) lookup(id string) (*entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || !m.now().Before(e.expires) {
		return nil, false
	}
	return e, true
}

func (m *MemoryStore) Get(_ context.Context, id string) (simulation.Session, error) {
	e, ok := m.lookup(id)
	if !ok {
		return simulation.Session{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return e.sess.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (simulation.Session, error) {
	e, ok := m.lookup(id)
	if !ok {
		return simulation.Session{}, ErrNotFound
	}

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return simulation.Session{}, ctx.Err()
	}
	defer func() { <-e.lock }()

	m.mu.Lock()
	current := e.sess.Clone()
	m.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, still := m.entries[id]; !still {
		return simulation.Session{}, ErrNotFound
	}
	e.sess = next.Clone()
	e.expires = m.now().Add(m.ttl)
	return next, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// Len counts stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
