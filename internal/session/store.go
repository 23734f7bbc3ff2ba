// Package session provides namespaced, quota-aware persistence for small
// structured values, scoped to a per-visitor session id. Writes recover
// from quota exhaustion by evicting stale entries of other sessions, and
// reads self-heal corrupted payloads by deleting them. Nothing in this
// package lets a storage failure escape to the caller as a panic or an
// unhandled error.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pedro664/TimTimBebidas-sub000/internal/kv"
)

const (
	// SessionKey is the fixed, un-namespaced key holding the session id.
	SessionKey = "session-id"

	// EntityCart and EntityShippingQuote are the entity kinds this
	// subsystem persists; all are keyed as "<entity>-<sessionID>".
	EntityCart          = "cart"
	EntityShippingQuote = "shipping-quote"

	sessionIDLength = 36
)

// EntityKinds lists every entity kind the store knows about.
func EntityKinds() []string {
	return []string{EntityCart, EntityShippingQuote}
}

// Store is a session-scoped view over a shared key-value backend.
type Store struct {
	backend   kv.Backend
	policy    EvictionPolicy
	logger    *slog.Logger
	sessionID string
}

// New opens a store bound to the session id persisted under SessionKey,
// generating and persisting a fresh id when none exists. Repeated calls
// against the same backend resolve to the same id.
func New(ctx context.Context, backend kv.Backend, policy EvictionPolicy, logger *slog.Logger) (*Store, error) {
	s := newStore(backend, policy, logger)
	id, err := s.resolveSessionID(ctx)
	if err != nil {
		return nil, err
	}
	s.sessionID = id
	s.migrateLegacy(ctx)
	return s, nil
}

// NewForSession opens a store bound to an explicit session id, for
// serving contexts where the id travels with each request instead of
// living under the fixed key.
func NewForSession(ctx context.Context, backend kv.Backend, sessionID string, policy EvictionPolicy, logger *slog.Logger) (*Store, error) {
	if len(sessionID) != sessionIDLength {
		return nil, fmt.Errorf("session: malformed session id %q", sessionID)
	}
	s := newStore(backend, policy, logger)
	s.sessionID = sessionID
	s.migrateLegacy(ctx)
	return s, nil
}

func newStore(backend kv.Backend, policy EvictionPolicy, logger *slog.Logger) *Store {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, policy: policy, logger: logger}
}

func (s *Store) resolveSessionID(ctx context.Context) (string, error) {
	data, err := s.backend.Get(ctx, SessionKey)
	if err == nil && len(data) == sessionIDLength {
		return string(data), nil
	}
	if err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return "", fmt.Errorf("session: reading session id: %w", err)
	}

	id := uuid.NewString()
	if err := s.backend.Set(ctx, SessionKey, []byte(id)); err != nil {
		// The id still identifies this process lifetime; only reload
		// survival is lost.
		s.logger.Warn("failed to persist session id", "error", err)
	}
	return id, nil
}

// SessionID returns the stable id all entity keys are namespaced under.
func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) key(entity string) string {
	return entity + "-" + s.sessionID
}

// Save serializes v and writes it under "<entity>-<sessionID>". On quota
// exhaustion it evicts other sessions' stale entries per the policy and
// retries exactly once. Save never fails loudly: a write that cannot be
// recovered comes back as a degraded Outcome and prior stored state is
// left unchanged.
func (s *Store) Save(ctx context.Context, entity string, v any) Outcome {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to serialize entity", "entity", entity, "error", err)
		return Outcome{Status: StatusDegraded, Err: err}
	}

	key := s.key(entity)
	err = s.backend.Set(ctx, key, data)
	if err == nil {
		return Outcome{Status: StatusPersisted}
	}
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		s.logger.Warn("store write failed", "entity", entity, "error", err)
		return Outcome{Status: StatusDegraded, Err: err}
	}

	evicted := s.recoverQuota(ctx)
	if retryErr := s.backend.Set(ctx, key, data); retryErr != nil {
		s.logger.Warn("store write failed after quota recovery",
			"entity", entity, "evicted", evicted, "error", retryErr)
		return Outcome{Status: StatusDegraded, Evicted: evicted, Err: retryErr}
	}
	s.logger.Info("store write recovered after eviction", "entity", entity, "evicted", evicted)
	return Outcome{Status: StatusRecovered, Evicted: evicted}
}

func (s *Store) recoverQuota(ctx context.Context) int {
	entries, err := s.backend.Entries(ctx)
	if err != nil {
		s.logger.Warn("failed to list entries for eviction", "error", err)
		return 0
	}
	evicted := 0
	for _, key := range s.policy.Candidates(entries, s.sessionID) {
		if err := s.backend.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to evict entry", "key", key, "error", err)
			continue
		}
		evicted++
	}
	return evicted
}

// Load reads the entity into out and reports whether a stored value was
// decoded. A missing key leaves out untouched; a corrupt payload is
// deleted so the next read starts clean.
func (s *Store) Load(ctx context.Context, entity string, out any) bool {
	key := s.key(entity)
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("store read failed", "entity", entity, "error", err)
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("corrupted payload, deleting key", "entity", entity, "error", err)
		if delErr := s.backend.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete corrupted key", "entity", entity, "error", delErr)
		}
		return false
	}
	return true
}

// Clear removes the entity's key for this session only.
func (s *Store) Clear(ctx context.Context, entity string) {
	if err := s.backend.Delete(ctx, s.key(entity)); err != nil {
		s.logger.Warn("failed to clear entity", "entity", entity, "error", err)
	}
}

// ClearSession removes every entity key belonging to this session. The
// session id itself survives.
func (s *Store) ClearSession(ctx context.Context) {
	entries, err := s.backend.Entries(ctx)
	if err != nil {
		// Fall back to the known entity kinds.
		for _, kind := range EntityKinds() {
			s.Clear(ctx, kind)
		}
		return
	}
	suffix := "-" + s.sessionID
	for _, entry := range entries {
		if entry.Key == SessionKey || !strings.HasSuffix(entry.Key, suffix) {
			continue
		}
		if err := s.backend.Delete(ctx, entry.Key); err != nil {
			s.logger.Warn("failed to clear session key", "key", entry.Key, "error", err)
		}
	}
}
