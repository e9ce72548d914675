// Package memory keeps orchestrator sessions in process memory with a
// sliding TTL.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type entry struct {
	session    *domain.Session
	lastAccess time.Time
}

type Store struct {
	ttl    time.Duration
	clock  ports.Clock
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]entry
}

// New creates a store. A zero ttl keeps sessions until they are deleted.
func New(ttl time.Duration, clock ports.Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		entries: make(map[string]entry),
	}
}

func (s *Store) Create(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "create session", fmt.Errorf("session id is required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(session.ID); ok {
		return domain.WrapError(domain.ErrInvalidInput, "create session", fmt.Errorf("id=%s already exists", session.ID))
	}
	s.entries[session.ID] = entry{session: session.Clone(), lastAccess: s.clock.Now()}
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id=%s", id))
	}
	e.lastAccess = s.clock.Now()
	s.entries[id] = e
	return e.session.Clone(), nil
}

func (s *Store) Update(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(session.ID); !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "update session", fmt.Errorf("id=%s", session.ID))
	}
	s.entries[session.ID] = entry{session: session.Clone(), lastAccess: s.clock.Now()}
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(id); !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("id=%s", id))
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// live returns the entry for id, dropping it when expired. Callers hold mu.
func (s *Store) live(id string) (entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return entry{}, false
	}
	if s.expired(e, s.clock.Now()) {
		delete(s.entries, id)
		return entry{}, false
	}
	return e, true
}

func (s *Store) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastAccess) > s.ttl
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("session.sweep", "expired", n, "remaining", s.Len())
			}
		}
	}
}
