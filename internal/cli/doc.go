// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// deskchat.
//
// # Key Types
//
//   - Command: the command to run (tui, ask, chat, serve, config, version)
//   - Args: parsed global flags and command arguments
//   - Streams: the stdin/stdout/stderr a command uses, with TTY state
//   - JSONResponse: the --json output envelope
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, args, cfg)
//	case cli.CmdChat:
//	    err = cli.HandleChatCommand(args, cfg)
//	}
//	os.Exit(cli.GetExitCode(err))
package cli
