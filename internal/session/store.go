// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/model"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for the session store.
type Config struct {
	// TTL is how long an idle session is kept (default: 30 minutes).
	TTL time.Duration

	// SweepInterval is how often Start looks for expired sessions
	// (default: one minute).
	SweepInterval time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		TTL:           30 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// HandlerFactory builds the chat handler for a new session.
type HandlerFactory func(*model.Session) *chat.Handler

// =============================================================================
// STORE
// =============================================================================

// Store maps session IDs to chat handlers. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Handler

	ttl      time.Duration
	interval time.Duration
	factory  HandlerFactory
	now      func() time.Time

	onExpire func(id string)
}

// NewStore creates an empty store.
func NewStore(cfg Config, factory HandlerFactory) *Store {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	return &Store{
		sessions: make(map[string]*chat.Handler),
		ttl:      cfg.TTL,
		interval: cfg.SweepInterval,
		factory:  factory,
		now:      time.Now,
	}
}

// SetExpireCallback registers fn to be called with the ID of every session
// removed by Sweep.
func (s *Store) SetExpireCallback(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// GetOrCreate returns the live session for id. If id is empty, not a UUID,
// unknown or expired, a new session with a fresh ID is created instead and
// created is true.
func (s *Store) GetOrCreate(id string) (h *chat.Handler, created bool) {
	if h, ok := s.Get(id); ok {
		return h, false
	}

	sess := model.NewSession()
	h = s.factory(sess)

	s.mu.Lock()
	s.sessions[sess.ID] = h
	s.mu.Unlock()
	return h, true
}

// Get returns the live session for id and records activity on it.
func (s *Store) Get(id string) (*chat.Handler, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.RLock()
	h, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.expired(h) {
		return nil, false
	}

	h.Session().Touch()
	return h, true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions currently held, including expired ones
// not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	var removed []string
	for id, h := range s.sessions {
		if s.expired(h) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	onExpire := s.onExpire
	s.mu.Unlock()

	if onExpire != nil {
		for _, id := range removed {
			onExpire(id)
		}
	}
	return len(removed)
}

// Start sweeps expired sessions every SweepInterval until ctx is done.
func (s *Store) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// TTL returns the idle timeout.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) expired(h *chat.Handler) bool {
	return h.Session().IdleFor(s.now()) > s.ttl
}
