package lock

import (
	"context"
	"sync"
	"time"

	"LedgerApi/internal/model"
)

// Manager hands out per-account locks so that mutating operations on the
// same account are strictly serialized while operations on different
// accounts run in parallel. Lock entries are reference-counted and removed
// from the map once the last interested caller is gone.
type Manager struct {
	mu      sync.Mutex
	timeout time.Duration
	locks   map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		timeout: timeout,
		locks:   make(map[string]*entry),
	}
}

// Acquire blocks until the per-account lock is available, the context is
// cancelled, or the timeout elapses. On timeout it returns model.ErrBusy.
// The returned release function is safe to call more than once.
func (m *Manager) Acquire(ctx context.Context, accountID string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[accountID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.locks[accountID] = e
	}
	e.refs++
	m.mu.Unlock()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.sem
				m.put(accountID, e)
			})
		}
		return release, nil
	case <-ctx.Done():
		m.put(accountID, e)
		return nil, ctx.Err()
	case <-timer.C:
		m.put(accountID, e)
		return nil, model.ErrBusy
	}
}

func (m *Manager) put(accountID string, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, accountID)
	}
	m.mu.Unlock()
}
