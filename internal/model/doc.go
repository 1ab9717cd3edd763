// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for support sessions and their
// transcripts.
//
// # Key Types
//
//   - Session: One conversation with the support backend, identified by a UUID
//   - Transcript: Append-only log of user/bot entries, written in pairs
//   - Entry: One rendered line of the transcript, with optional sources
//   - Sender: Entry author (user or bot)
//
// # Usage
//
// Start a session and record a successful exchange:
//
//	sess := model.NewSession()
//	sess.Transcript.AppendExchange("How do I reset my VPN token?",
//	    "Open the self-service portal...", []string{"vpn-guide.pdf"})
//
// Read it back in order:
//
//	for _, e := range sess.Transcript.Entries() {
//	    fmt.Printf("%s: %s\n", e.Sender.DisplayName(), e.Text)
//	}
package model
