// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one conversation with the support backend.
//
// ID is generated once and never changes; it is sent with every request so
// the backend can keep its own conversational context. Nothing here is
// persisted.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Transcript *Transcript

	mu         sync.Mutex
	lastActive time.Time
}

// NewSession creates a session with a fresh random UUID.
func NewSession() *Session {
	return NewSessionWithID(uuid.NewString())
}

// NewSessionWithID creates a session with a caller-chosen identifier.
func NewSessionWithID(id string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		Transcript: NewTranscript(),
		lastActive: now,
	}
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// LastActive returns the time of the most recent Touch.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// IdleFor returns how long the session has been inactive.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActive())
}
