// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"time"
)

// Transcript is an ordered, append-only log of entries.
//
// Entries are only ever added as a user entry immediately followed by a bot
// entry; nothing is reordered or removed. Safe for concurrent use.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// AppendExchange appends the question and answer as one pair.
func (t *Transcript) AppendExchange(question, answer string, sources []string) Exchange {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now()
	ex := Exchange{
		Question: Entry{Sender: SenderUser, Text: question, Timestamp: ts},
		Answer:   Entry{Sender: SenderBot, Text: answer, Sources: sources, Timestamp: ts},
	}
	t.entries = append(t.entries, ex.Question, ex.Answer.clone())
	ex.Answer = ex.Answer.clone()
	return ex
}

// Entries returns a copy of all entries in insertion order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.clone()
	}
	return out
}

// Exchanges returns the transcript grouped into user/bot pairs.
func (t *Transcript) Exchanges() []Exchange {
	entries := t.Entries()
	out := make([]Exchange, 0, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		out = append(out, Exchange{Question: entries[i], Answer: entries[i+1]})
	}
	return out
}

// Len returns the number of entries (twice the number of exchanges).
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// IsEmpty returns true if nothing has been recorded yet.
func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}

// LastAnswer returns the most recent bot entry.
func (t *Transcript) LastAnswer() (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Sender == SenderBot {
			return t.entries[i].clone(), true
		}
	}
	return Entry{}, false
}
