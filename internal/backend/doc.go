// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the IT support /ask service.
//
// The service is external: it receives a question and a session identifier
// and answers with a JSON object holding an "answer" string and an optional
// "sources" list. This package makes exactly one attempt per question and
// reduces every failure (connection, timeout, HTTP status, malformed body)
// to a *ClientError wrapping ErrBackendUnavailable.
//
// # Key Types
//
//   - Client: Thread-safe /ask client
//   - Config: Endpoint, timeout and user agent
//   - AskRequest, AskResponse: Wire payloads
//   - ClientError: Classified failure, matches ErrBackendUnavailable
//
// # Usage
//
//	client := backend.NewClient(backend.Config{
//	    Endpoint: "http://localhost:8000/ask",
//	    Timeout:  60 * time.Second,
//	})
//	resp, err := client.Ask(ctx, backend.AskRequest{
//	    Question:  "How do I map a network drive?",
//	    SessionID: sess.ID,
//	})
//	if errors.Is(err, backend.ErrBackendUnavailable) {
//	    // show the error, keep the transcript as it was
//	}
package backend
