package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultIdleTimeout is how long a session may go untouched before
// EvictIdle drops it.
const DefaultIdleTimeout = time.Hour

// Manager hands out one Controller per session ID. A Slack channel or a
// browser tab each map to their own session.
type Manager struct {
	orch    Orchestrator
	history HistoryRecorder
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	controller *Controller
	lastUsed   time.Time
}

func NewManager(orch Orchestrator, history HistoryRecorder, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		orch:     orch,
		history:  history,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Get returns the controller for id, creating it on first use.
func (m *Manager) Get(id string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		e = &entry{controller: NewController(id, m.orch, m.history, m.logger)}
		m.sessions[id] = e
		m.logger.Debug("Session created", zap.String("session", id))
	}
	e.lastUsed = m.now()
	return e.controller
}

// Lookup returns the controller for id without creating one.
func (m *Manager) Lookup(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = m.now()
	return e.controller, true
}

// Snapshot reads a session's state. Unknown IDs report a fresh landing
// view and are not stored.
func (m *Manager) Snapshot(id string) Snapshot {
	if c, ok := m.Lookup(id); ok {
		return c.Snapshot()
	}
	return NewController(id, nil, nil, m.logger).Snapshot()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle drops sessions untouched for longer than maxIdle and returns
// how many went.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	evicted := 0
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.Info("🧹 Evicted idle sessions", zap.Int("evicted", evicted), zap.Int("remaining", len(m.sessions)))
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (m *Manager) RunEviction(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(maxIdle)
		}
	}
}
