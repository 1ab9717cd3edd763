// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

// AskRequest is the body POSTed to the /ask endpoint.
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// AskResponse is a validated answer from the backend.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// askResponseWire mirrors the JSON body. Answer is a pointer so that a
// missing or null field can be told apart from an empty string.
type askResponseWire struct {
	Answer  *string  `json:"answer"`
	Sources []string `json:"sources"`
}
