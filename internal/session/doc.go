// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps the chat sessions of the web front end.
//
// Each browser gets its own session, looked up by the UUID stored in its
// session cookie. Sessions live only in memory and are dropped after a
// period of inactivity; a returning browser simply starts a new transcript.
//
// # Key Types
//
//   - Store: Thread-safe map from session ID to *chat.Handler
//   - Config: Idle timeout and sweep interval
//
// # Usage
//
//	store := session.NewStore(session.DefaultConfig(), func(s *model.Session) *chat.Handler {
//	    return chat.NewHandlerForSession(s, client, log)
//	})
//	go store.Start(ctx)
//
//	h, created := store.GetOrCreate(cookieValue)
package session
