// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for deskchat.
//
// Global flags are accepted anywhere on the command line; everything else
// is handed to the command.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/jeranaias/deskchat/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdServe:
		return "serve"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet       bool
	Verbose     bool
	JSON        bool   // Output in JSON format
	Endpoint    string // Overrides backend.url
	TimeoutSecs int    // Overrides backend.timeout_secs; 0 keeps config
	Addr        string // Overrides server.addr
	Force       bool

	// Command-specific
	Query      string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Err is set when the command line itself is invalid.
	Err error
}

const usageText = `deskchat - chat client for the internal IT support assistant

Usage:
  deskchat                      Start the terminal UI (default)
  deskchat ask "question"       Ask a single question and print the answer
  deskchat chat                 Interactive line-mode chat
  deskchat serve                Serve the chat page over HTTP
  deskchat config [show|path|init]
                                Show, locate or create the config file
  deskchat version              Show version information

Ask:
  deskchat ask "How do I reset my VPN token?"
  echo "printer is offline" | deskchat ask
  deskchat ask --json "Where is the wifi guide?"

  Exit codes: 0 answered, 2 empty question or bad usage,
              3 backend unavailable, 4 invalid configuration

Chat commands:
  /history    Show the transcript again
  /session    Show the session identifier
  /help       Show chat commands
  /exit       Leave (also: exit, quit, Ctrl+D)

Global flags:
  --endpoint URL    Backend endpoint (default: %s)
  --timeout SECS    Request timeout in seconds (default: %d)
  --addr ADDR       Listen address for serve (default: %s)
  --json            JSON output for ask and config
  -q, --quiet       Print only the answer
  -v, --verbose     Debug logging
  -h, --help        Show this help

Configuration:
  %s
  Environment: DESKCHAT_BACKEND_URL, DESKCHAT_TIMEOUT, DESKCHAT_ADDR,
  DESKCHAT_THEME, DESKCHAT_LOG_LEVEL, DESKCHAT_LOG_FORMAT, DESKCHAT_LOG_FILE

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	path, err := config.ConfigPathTOML()
	if err != nil {
		path = "~/.deskchat/config.toml"
	}
	fmt.Fprintf(w, usageText,
		config.DefaultBackendURL, config.DefaultTimeoutSecs, config.DefaultAddr, path, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "deskchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// HandleVersion prints version information, as JSON with --json.
func HandleVersion(args Args, w io.Writer) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}).Write(w)
	}
	PrintVersion(w)
	return nil
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments (without the program name).
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)
	if parsedArgs.Err != nil {
		return CmdHelp, parsedArgs
	}

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdAsk, parsedArgs

	case "chat", "repl":
		return CmdChat, parsedArgs

	case "serve", "server", "web":
		return CmdServe, parsedArgs

	case "config":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = strings.ToLower(remaining[0])
		}
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Err = NewValidationError("command", cmd, "unknown command")
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Everything after "--" is passed through untouched.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			remaining = append(remaining, args[i+1:]...)
			break
		}

		name, value, hasValue := strings.Cut(arg, "=")
		takeValue := func() (string, bool) {
			if hasValue {
				return value, true
			}
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			parsedArgs.Err = NewValidationError(strings.TrimLeft(name, "-"), "", "missing value")
			return "", false
		}

		switch name {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--force":
			parsedArgs.Force = true
		case "--endpoint", "--url":
			if v, ok := takeValue(); ok {
				parsedArgs.Endpoint = v
			}
		case "--addr":
			if v, ok := takeValue(); ok {
				parsedArgs.Addr = v
			}
		case "--timeout":
			if v, ok := takeValue(); ok {
				secs, err := strconv.Atoi(v)
				if err != nil || secs <= 0 {
					parsedArgs.Err = NewValidationErrorWithExample("timeout", v,
						"must be a positive number of seconds", "--timeout 30")
				} else {
					parsedArgs.TimeoutSecs = secs
				}
			}
		default:
			remaining = append(remaining, arg)
		}

		if parsedArgs.Err != nil {
			return nil, parsedArgs
		}
	}

	return remaining, parsedArgs
}

// ApplyFlags copies command-line overrides onto cfg and validates the
// result. Flags win over file and environment settings.
func ApplyFlags(cfg *config.Config, args Args) error {
	if args.Endpoint != "" {
		cfg.Backend.URL = args.Endpoint
	}
	if args.TimeoutSecs > 0 {
		cfg.Backend.TimeoutSecs = args.TimeoutSecs
	}
	if args.Addr != "" {
		cfg.Server.Addr = args.Addr
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}
