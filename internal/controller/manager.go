package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pedro664/TimTimBebidas-sub000/internal/catalog"
	"github.com/pedro664/TimTimBebidas-sub000/internal/handoff"
	"github.com/pedro664/TimTimBebidas-sub000/internal/kv"
	"github.com/pedro664/TimTimBebidas-sub000/internal/session"
	"github.com/pedro664/TimTimBebidas-sub000/internal/shipping"
)

const (
	// idleTTL is how long a controller stays resident without being
	// touched. Dropping it loses nothing: state lives in the backend
	// and rehydrates on the next request.
	idleTTL = 30 * time.Minute

	cleanupInterval = 1 * time.Minute
)

type managedSession struct {
	controller *Controller
	lastSeen   time.Time
}

// Manager hands out one Controller per session id over a shared
// backend. Different sessions never contend: isolation comes from the
// store's key namespacing, not from locking.
type Manager struct {
	backend   kv.Backend
	calc      *shipping.Calculator
	catalog   catalog.Catalog
	publisher handoff.Publisher
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*managedSession

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewManager(
	backend kv.Backend,
	calc *shipping.Calculator,
	cat catalog.Catalog,
	publisher handoff.Publisher,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		backend:     backend,
		calc:        calc,
		catalog:     cat,
		publisher:   publisher,
		logger:      logger,
		sessions:    make(map[string]*managedSession),
		stopCleanup: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// Session returns the controller for the given session id, creating it
// (and hydrating it from the backend) on first touch. An empty or
// malformed id starts a fresh session with a new id.
func (m *Manager) Session(ctx context.Context, sessionID string) (*Controller, error) {
	if len(sessionID) != 36 {
		sessionID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ms, exists := m.sessions[sessionID]; exists {
		ms.lastSeen = time.Now()
		return ms.controller, nil
	}

	store, err := session.NewForSession(ctx, m.backend, sessionID, nil, m.logger)
	if err != nil {
		return nil, err
	}
	ctrl := New(ctx, store, m.calc, m.catalog, m.publisher, m.logger)
	m.sessions[sessionID] = &managedSession{controller: ctrl, lastSeen: time.Now()}
	return ctrl, nil
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) expireIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-idleTTL)
	for id, ms := range m.sessions {
		if ms.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// Close stops the background cleanup and waits for it to finish.
func (m *Manager) Close() error {
	close(m.stopCleanup)
	m.wg.Wait()
	return nil
}
