// deskchat - a chat client for the internal IT support assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/cli"
	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/logging"
	"github.com/jeranaias/deskchat/internal/server"
	uichat "github.com/jeranaias/deskchat/internal/ui/chat"
	"github.com/jeranaias/deskchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI arguments
	cmd, args := cli.Parse()
	if args.Err != nil {
		cli.DisplayError(os.Stderr, args.Err, args.JSON)
		cli.PrintUsage(os.Stderr)
		return cli.ExitUsageError
	}

	switch cmd {
	case cli.CmdVersion:
		if err := cli.HandleVersion(args, os.Stdout); err != nil {
			return cli.ExitGeneralError
		}
		return cli.ExitSuccess
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	}

	cfg, err := loadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}
	config.SetGlobal(cfg)

	// Route to appropriate handler
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(cfg)
	case cli.CmdAsk:
		// RunAsk reports its own failures.
		return cli.GetExitCode(cli.HandleAsk(context.Background(), args, cfg))
	case cli.CmdChat:
		err = cli.HandleChatCommand(args, cfg)
	case cli.CmdServe:
		err = runServer(cfg, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args, cli.StdStreams())
	}

	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// loadConfig reads the config file and environment, then applies flags.
// An unreadable config file only warns; the defaults are used instead.
func loadConfig(args cli.Args) (*config.Config, error) {
	cfg, err := config.Load()
	if cfg == nil {
		return nil, &cli.ConfigError{Err: err}
	}
	if err != nil && !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", cli.WarningStyle.Render("Warning:"), err)
	}
	if err := cli.ApplyFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newClient(cfg *config.Config, log logrus.FieldLogger) *backend.Client {
	return backend.NewClient(backend.Config{
		Endpoint:  cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout(),
		UserAgent: cfg.Backend.UserAgent,
		Logger:    log,
	})
}

// runTUI starts the full-screen chat. Logs go to a file since the
// terminal belongs to the UI.
func runTUI(cfg *config.Config) error {
	logger, closer, err := logging.NewFile(cfg)
	if err != nil {
		logger = logging.Discard()
	} else {
		defer closer.Close()
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	client := newClient(cfg, logger)
	handler := chat.NewHandler(client, logger)
	logger.WithFields(logrus.Fields{
		"session_id": handler.SessionID(),
		"endpoint":   client.Endpoint(),
	}).Info("tui session started")

	m := uichat.New(theme, handler, cfg.UI, uichat.WithBackendHost(client.Host()))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// runServer serves the web chat until SIGINT or SIGTERM. Edits to the
// config file swap the backend client without a restart; command-line
// flags still win over the reloaded file.
func runServer(cfg *config.Config, args cli.Args) error {
	logger := logging.New(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.ConfigFrom(cfg), newClient(cfg, logger), logger)

	if path, err := config.ConfigPathTOML(); err == nil {
		reload := func(next *config.Config) {
			if err := cli.ApplyFlags(next, args); err != nil {
				logger.WithError(err).Warn("reloaded config rejected, keeping current settings")
				return
			}
			config.SetGlobal(next)
			srv.ApplyConfig(next)
		}
		err := config.Watch(ctx, path, reload, func(err error) {
			logger.WithError(err).Warn("config reload failed, keeping current settings")
		})
		if err != nil {
			logger.WithError(err).Debug("config file not watched")
		}
	}

	logger.WithFields(logrus.Fields{
		"addr":     cfg.Server.Addr,
		"endpoint": cfg.Backend.URL,
		"version":  Version,
	}).Info("starting web chat")
	logger.Debug("effective config: " + cfg.String())

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
