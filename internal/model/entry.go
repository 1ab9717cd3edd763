// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns the label shown next to the entry.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Bot"
	default:
		return string(s)
	}
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is one line of a transcript.
type Entry struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Sources   []string  `json:"sources,omitempty"` // bot entries only
	Timestamp time.Time `json:"timestamp"`
}

// HasSources reports whether the entry carries citations.
func (e Entry) HasSources() bool {
	return len(e.Sources) > 0
}

// clone returns a copy that shares no slice with e.
func (e Entry) clone() Entry {
	if e.Sources != nil {
		e.Sources = append([]string(nil), e.Sources...)
	}
	return e
}

// Exchange is the user/bot pair produced by one successful submission.
type Exchange struct {
	Question Entry `json:"question"`
	Answer   Entry `json:"answer"`
}
