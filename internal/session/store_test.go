// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/model"
)

type staticAsker struct{}

func (staticAsker) Ask(context.Context, backend.AskRequest) (*backend.AskResponse, error) {
	return &backend.AskResponse{Answer: "ok"}, nil
}

func newTestStore(cfg Config) *Store {
	logger, _ := test.NewNullLogger()
	return NewStore(cfg, func(s *model.Session) *chat.Handler {
		return chat.NewHandlerForSession(s, staticAsker{}, logger)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Minute, cfg.TTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)

	s := newTestStore(Config{})
	assert.Equal(t, 30*time.Minute, s.TTL())
}

func TestGetOrCreate_NewSessionForUnknownIDs(t *testing.T) {
	s := newTestStore(DefaultConfig())

	for _, id := range []string{"", "not-a-uuid", uuid.NewString()} {
		h, created := s.GetOrCreate(id)
		require.True(t, created, "id %q", id)
		assert.NotEqual(t, id, h.SessionID())
		_, err := uuid.Parse(h.SessionID())
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, s.Len())
}

func TestGetOrCreate_ReturnsSameSession(t *testing.T) {
	s := newTestStore(DefaultConfig())

	h, created := s.GetOrCreate("")
	require.True(t, created)

	_, err := h.Submit(context.Background(), "printer offline")
	require.NoError(t, err)

	again, created := s.GetOrCreate(h.SessionID())
	assert.False(t, created)
	assert.Same(t, h, again)
	assert.Equal(t, 2, again.Transcript().Len())
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := newTestStore(DefaultConfig())

	a, _ := s.GetOrCreate("")
	b, _ := s.GetOrCreate("")

	_, err := a.Submit(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, 2, a.Transcript().Len())
	assert.Equal(t, 0, b.Transcript().Len())
}

func TestStore_ExpiryAndSweep(t *testing.T) {
	s := newTestStore(Config{TTL: time.Minute})
	now := time.Now()
	s.now = func() time.Time { return now }

	h, _ := s.GetOrCreate("")
	id := h.SessionID()

	var expired []string
	s.SetExpireCallback(func(id string) { expired = append(expired, id) })

	_, ok := s.Get(id)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = s.Get(id)
	assert.False(t, ok, "expired sessions are not returned")

	removed := s.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{id}, expired)
	assert.Equal(t, 0, s.Len())

	fresh, created := s.GetOrCreate(id)
	assert.True(t, created)
	assert.NotEqual(t, id, fresh.SessionID())
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(DefaultConfig())
	h, _ := s.GetOrCreate("")
	s.Delete(h.SessionID())

	_, ok := s.Get(h.SessionID())
	assert.False(t, ok)
}

func TestStore_StartStopsOnCancel(t *testing.T) {
	s := newTestStore(Config{TTL: time.Minute, SweepInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

// TestStore_ConcurrentAccess should be run with -race.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(DefaultConfig())
	h, _ := s.GetOrCreate("")
	id := h.SessionID()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			s.GetOrCreate(id)
		}()
		go func() {
			defer wg.Done()
			s.GetOrCreate("")
		}()
		go func() {
			defer wg.Done()
			s.Sweep()
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, s.Len())
}
