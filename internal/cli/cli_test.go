// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/config"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no args starts TUI",
			args:        nil,
			wantCommand: CmdTUI,
		},
		{
			name:        "ask joins words",
			args:        []string{"ask", "How", "do", "I", "print?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "How do I print?" {
					t.Errorf("Query = %q, want %q", a.Query, "How do I print?")
				}
			},
		},
		{
			name:        "ask with json and quiet",
			args:        []string{"ask", "--json", "-q", "VPN"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.JSON || !a.Quiet {
					t.Errorf("JSON = %v, Quiet = %v, want both true", a.JSON, a.Quiet)
				}
				if a.Query != "VPN" {
					t.Errorf("Query = %q, want %q", a.Query, "VPN")
				}
			},
		},
		{
			name:        "endpoint and timeout",
			args:        []string{"--endpoint", "http://helpdesk:8000/ask", "ask", "--timeout=5", "hi"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Endpoint != "http://helpdesk:8000/ask" {
					t.Errorf("Endpoint = %q", a.Endpoint)
				}
				if a.TimeoutSecs != 5 {
					t.Errorf("TimeoutSecs = %d, want 5", a.TimeoutSecs)
				}
			},
		},
		{
			name:        "double dash keeps flag-like words",
			args:        []string{"ask", "--", "what", "does", "-q", "do"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "what does -q do" {
					t.Errorf("Query = %q", a.Query)
				}
				if a.Quiet {
					t.Error("Quiet should be false")
				}
			},
		},
		{
			name:        "chat",
			args:        []string{"chat"},
			wantCommand: CmdChat,
		},
		{
			name:        "serve with addr",
			args:        []string{"serve", "--addr", "127.0.0.1:9000"},
			wantCommand: CmdServe,
			validate: func(t *testing.T, a Args) {
				if a.Addr != "127.0.0.1:9000" {
					t.Errorf("Addr = %q", a.Addr)
				}
			},
		},
		{
			name:        "config subcommand",
			args:        []string{"config", "INIT", "--force"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "init" || !a.Force {
					t.Errorf("Subcommand = %q, Force = %v", a.Subcommand, a.Force)
				}
			},
		},
		{
			name:        "version",
			args:        []string{"--version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "help",
			args:        []string{"-h"},
			wantCommand: CmdHelp,
		},
		{
			name:        "unknown command",
			args:        []string{"frobnicate"},
			wantCommand: CmdHelp,
			validate: func(t *testing.T, a Args) {
				if !IsValidationError(a.Err) {
					t.Errorf("Err = %v, want ValidationError", a.Err)
				}
			},
		},
		{
			name:        "bad timeout",
			args:        []string{"ask", "--timeout", "soon", "q"},
			wantCommand: CmdHelp,
			validate: func(t *testing.T, a Args) {
				if GetExitCode(a.Err) != ExitUsageError {
					t.Errorf("exit code = %d, want %d", GetExitCode(a.Err), ExitUsageError)
				}
			},
		},
		{
			name:        "missing endpoint value",
			args:        []string{"ask", "--endpoint"},
			wantCommand: CmdHelp,
			validate: func(t *testing.T, a Args) {
				if a.Err == nil {
					t.Error("expected error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.args)
			if cmd != tt.wantCommand {
				t.Errorf("command = %v, want %v", cmd, tt.wantCommand)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	err := ApplyFlags(cfg, Args{Endpoint: "https://it.example.com/ask", TimeoutSecs: 10, Addr: ":9090", Verbose: true})
	if err != nil {
		t.Fatalf("ApplyFlags: %v", err)
	}
	if cfg.Backend.URL != "https://it.example.com/ask" || cfg.Backend.TimeoutSecs != 10 {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}

	err = ApplyFlags(config.Default(), Args{Endpoint: "not a url"})
	if GetExitCode(err) != ExitConfigError {
		t.Errorf("exit code = %d, want %d (err: %v)", GetExitCode(err), ExitConfigError, err)
	}
}

func TestPrintUsageAndVersion(t *testing.T) {
	var b strings.Builder
	PrintUsage(&b)
	if !strings.Contains(b.String(), config.DefaultBackendURL) {
		t.Error("usage should mention the default endpoint")
	}
	if strings.Contains(b.String(), "%!") {
		t.Errorf("usage has a formatting error:\n%s", b.String())
	}

	b.Reset()
	PrintVersion(&b)
	if !strings.Contains(b.String(), Version) {
		t.Error("version output should contain the version")
	}
}

func TestHandleVersionJSON(t *testing.T) {
	var b strings.Builder
	if err := HandleVersion(Args{JSON: true}, &b); err != nil {
		t.Fatalf("HandleVersion: %v", err)
	}

	var resp struct {
		Success bool        `json:"success"`
		Data    VersionData `json:"data"`
	}
	if err := json.Unmarshal([]byte(b.String()), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, b.String())
	}
	if !resp.Success || resp.Data.Version != Version || resp.Data.Platform == "" {
		t.Errorf("unexpected version payload: %+v", resp)
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	unavailable := &backend.ClientError{Type: backend.ErrTypeTimeout, Message: "request timed out"}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"empty question", chat.ErrEmptyQuestion, ExitUsageError},
		{"validation", NewValidationError("timeout", "x", "bad"), ExitUsageError},
		{"backend", unavailable, ExitBackendUnavailable},
		{"wrapped backend", fmt.Errorf("ask: %w", unavailable), ExitBackendUnavailable},
		{"config", &ConfigError{Err: errors.New("backend.url: bad")}, ExitConfigError},
		{"other", errors.New("disk full"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisplayErrorJSON(t *testing.T) {
	var b strings.Builder
	DisplayError(&b, &backend.ClientError{Type: backend.ErrTypeStatus, Message: "backend returned 502"}, true)
	out := b.String()
	if !strings.Contains(out, `"backend_unavailable"`) || !strings.Contains(out, `"kind": "status"`) {
		t.Errorf("unexpected JSON error output:\n%s", out)
	}
}
