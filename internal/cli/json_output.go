// json_output.go - machine-readable output for --json.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope every --json command writes. Error is null
// on success and Data is null on failure.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Command   string      `json:"command,omitempty"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"` // RFC 3339, UTC
}

// NewJSONResponse wraps the result of a successful command.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Command:   command,
		Data:      data,
		Timestamp: now(),
	}
}

// NewJSONErrorResponse wraps a failed command.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Command:   command,
		Error:     &msg,
		Timestamp: now(),
	}
}

// Write encodes the envelope to w, indented, with a trailing newline.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// PAYLOADS
// =============================================================================

// AskData is the payload of a successful ask.
type AskData struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	SessionID  string   `json:"session_id"`
	Endpoint   string   `json:"endpoint"`
	DurationMs int64    `json:"duration_ms"`
}

// ConfigData is the payload of config show.
type ConfigData struct {
	Path   string      `json:"path"`
	Exists bool        `json:"exists"`
	Config interface{} `json:"config"`
}

// VersionData is the payload of version --json.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}
