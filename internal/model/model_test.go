// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_DisplayName(t *testing.T) {
	assert.Equal(t, "You", SenderUser.DisplayName())
	assert.Equal(t, "Bot", SenderBot.DisplayName())
	assert.Equal(t, "other", Sender("other").DisplayName())
}

func TestTranscript_AppendExchangeOrder(t *testing.T) {
	tr := NewTranscript()
	require.True(t, tr.IsEmpty())

	tr.AppendExchange("q1", "a1", nil)
	tr.AppendExchange("q2", "a2", []string{"doc1.pdf"})

	entries := tr.Entries()
	require.Len(t, entries, 4)

	assert.Equal(t, SenderUser, entries[0].Sender)
	assert.Equal(t, "q1", entries[0].Text)
	assert.Equal(t, SenderBot, entries[1].Sender)
	assert.Equal(t, "a1", entries[1].Text)
	assert.False(t, entries[1].HasSources())

	assert.Equal(t, "q2", entries[2].Text)
	assert.Equal(t, "a2", entries[3].Text)
	assert.Equal(t, []string{"doc1.pdf"}, entries[3].Sources)
}

func TestTranscript_Exchanges(t *testing.T) {
	tr := NewTranscript()
	tr.AppendExchange("printer jammed", "Open tray 2.", nil)
	tr.AppendExchange("still jammed", "Call the desk.", nil)

	ex := tr.Exchanges()
	require.Len(t, ex, 2)
	assert.Equal(t, "still jammed", ex[1].Question.Text)
	assert.Equal(t, "Call the desk.", ex[1].Answer.Text)
}

func TestTranscript_EntriesIsACopy(t *testing.T) {
	tr := NewTranscript()
	sources := []string{"kb-101"}
	tr.AppendExchange("q", "a", sources)

	sources[0] = "mutated by caller"
	entries := tr.Entries()
	entries[1].Sources[0] = "mutated by reader"
	entries[0].Text = "changed"

	again := tr.Entries()
	assert.Equal(t, "q", again[0].Text)
	assert.Equal(t, []string{"kb-101"}, again[1].Sources)
}

func TestTranscript_LastAnswer(t *testing.T) {
	tr := NewTranscript()
	_, ok := tr.LastAnswer()
	assert.False(t, ok)

	tr.AppendExchange("q1", "a1", nil)
	tr.AppendExchange("q2", "a2", nil)

	last, ok := tr.LastAnswer()
	require.True(t, ok)
	assert.Equal(t, "a2", last.Text)
}

// TestTranscript_ConcurrentAppend checks that pairs are never interleaved.
// Run with: go test -race ./internal/model/
func TestTranscript_ConcurrentAppend(t *testing.T) {
	tr := NewTranscript()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.AppendExchange("q", "a", nil)
		}()
		go func() {
			defer wg.Done()
			_ = tr.Entries()
		}()
	}
	wg.Wait()

	entries := tr.Entries()
	require.Len(t, entries, 100)
	for i := 0; i < len(entries); i += 2 {
		assert.Equal(t, SenderUser, entries[i].Sender, "entry %d", i)
		assert.Equal(t, SenderBot, entries[i+1].Sender, "entry %d", i+1)
	}
}

func TestNewSession_IDs(t *testing.T) {
	a := NewSession()
	b := NewSession()

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Transcript, b.Transcript)

	id := a.ID
	a.Transcript.AppendExchange("q", "a", nil)
	a.Touch()
	assert.Equal(t, id, a.ID)
}

func TestSession_Touch(t *testing.T) {
	s := NewSession()
	before := s.LastActive()
	s.Touch()
	assert.False(t, s.LastActive().Before(before))
	assert.GreaterOrEqual(t, int64(s.IdleFor(s.LastActive())), int64(0))
}
