// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View or create configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init                Write a config file with the defaults
//
// Flags:
//   --json              Output in JSON format
//   --force             Let init overwrite an existing file
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/util"
)

var (
	configSectionStyle = lipgloss.NewStyle().Bold(true)
	configKeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	configPathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// HandleConfig handles the "config" command. It shows config.Global(), the
// effective configuration after file, environment and flags were applied.
func HandleConfig(args Args, s Streams) error {
	cfg := config.Global()
	path, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", args.Subcommand, "cannot locate config directory", err)
	}

	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return NewJSONResponse("config", ConfigData{
				Path:   path,
				Exists: fileExists(path),
				Config: cfg,
			}).Write(s.Out)
		}
		printConfig(s.Out, cfg, path)
		return nil

	case "path":
		_, err := fmt.Fprintln(s.Out, path)
		return err

	case "init":
		return handleConfigInit(args, path, s)

	default:
		return NewValidationErrorWithExample("config subcommand", args.Subcommand,
			"expected show, path or init", "deskchat config init")
	}
}

func handleConfigInit(args Args, path string, s Streams) error {
	if fileExists(path) && !args.Force {
		return NewCommandError("config", "init", "config file already exists at "+path+" (use --force to overwrite)", nil)
	}
	if err := config.Save(config.Default()); err != nil {
		return NewCommandError("config", "init", "could not write config file", err)
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigData{Path: path, Exists: true, Config: config.Default()}).Write(s.Out)
	}
	fmt.Fprintf(s.Out, "%s wrote %s\n", SuccessStyle.Render("[OK]"), configPathStyle.Render(path))
	return nil
}

func printConfig(w io.Writer, cfg *config.Config, path string) {
	status := "(not created; defaults in use)"
	if fileExists(path) {
		status = ""
	}
	fmt.Fprintf(w, "%s %s\n", configPathStyle.Render(path), DimStyle.Render(status))

	section := func(name string) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, configSectionStyle.Render("["+name+"]"))
	}
	row := func(key string, value any) {
		fmt.Fprintf(w, "  %s %v\n", configKeyStyle.Render(util.PadRight(key, 16)), value)
	}

	section("backend")
	row("url", cfg.Backend.URL)
	row("timeout_secs", cfg.Backend.TimeoutSecs)
	row("user_agent", cfg.Backend.UserAgent)

	section("ui")
	row("title", cfg.UI.Title)
	row("subtitle", cfg.UI.Subtitle)
	row("caption", cfg.UI.Caption)
	row("input_label", cfg.UI.InputLabel)
	row("theme", cfg.UI.Theme)

	section("server")
	row("addr", cfg.Server.Addr)
	row("cookie_name", cfg.Server.CookieName)
	row("session_ttl_mins", cfg.Server.SessionTTLMins)
	row("rate_limit", cfg.Server.RateLimit)
	row("rate_burst", cfg.Server.RateBurst)

	section("log")
	row("level", cfg.Log.Level)
	row("format", cfg.Log.Format)
	logPath, err := cfg.LogPath()
	if err != nil {
		logPath = cfg.Log.File
	}
	row("file", logPath)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
