// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the chat as a single web page.
//
// Each browser gets its own session, tracked by an HttpOnly cookie holding
// the session UUID. Sessions idle longer than the configured TTL are swept
// and the next visit starts a fresh transcript.
//
// # Endpoints
//
//   - GET  /          - Chat page with the session transcript
//   - POST /ask       - Submit a question (form field "question")
//   - GET  /healthz   - Liveness check with the live session count
//   - GET  /static/*  - Embedded stylesheet
//
// A failed question re-renders the page with status 502, an error banner
// and the question left in the input box. The transcript is unchanged.
//
// # Usage
//
//	srv := server.New(server.ConfigFrom(cfg), client, log)
//	if err := srv.ListenAndServe(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
