// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Interactive Commands (during chat):
//   /history            Show the transcript again
//   /session            Show the session identifier
//   /help, /h           Show available commands
//   /exit, /quit, /q    Exit chat
//   Ctrl+C              Cancel the pending question, or exit at the prompt
//   Ctrl+D              Exit chat
//
// Input history lives only for the life of the process.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/logging"
	"github.com/jeranaias/deskchat/internal/render"
	"github.com/jeranaias/deskchat/internal/util"
)

// =============================================================================
// INPUT
// =============================================================================

// ChatCLI provides line editing and in-memory history for the REPL.
type ChatCLI struct {
	line *liner.State
}

// NewChatCLI creates a new ChatCLI. It puts the terminal into raw mode
// while prompting; Close restores it.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &ChatCLI{line: line}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close restores the terminal.
func (c *ChatCLI) Close() {
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// ChatSession is one REPL conversation.
type ChatSession struct {
	Handler *chat.Handler
	Config  *config.Config

	out    io.Writer
	errOut io.Writer
	render func(string) string
}

// NewChatSession creates a REPL session writing to out and errOut. When
// styled is true answers are rendered with glamour.
func NewChatSession(cfg *config.Config, client chat.Asker, log logrus.FieldLogger, s Streams) *ChatSession {
	cs := &ChatSession{
		Handler: chat.NewHandler(client, log),
		Config:  cfg,
		out:     s.Out,
		errOut:  s.Err,
		render:  func(md string) string { return md },
	}
	if s.OutTTY {
		width := s.Width
		if width <= 0 {
			width = DefaultTerminalWidth
		}
		term := render.NewTerminal(cfg.UI.Theme, width-2)
		cs.render = term.Render
	}
	return cs
}

// HandleLine processes one line of input. It returns false when the user
// asked to leave.
func (cs *ChatSession) HandleLine(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}

	// Anything else starting with a slash, such as a file path, is a question.
	if cmd := strings.ToLower(strings.Fields(input)[0]); chatCommands[cmd] {
		return cs.handleSlashCommand(cmd)
	}

	if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
		return false
	}

	if _, err := cs.Handler.Submit(ctx, input); err != nil {
		fmt.Fprintln(cs.errOut, ErrorStyle.Render(render.ErrorText(err)))
		return true
	}
	cs.printTranscript()
	return true
}

// chatCommands are the slash commands the REPL understands.
var chatCommands = map[string]bool{
	"/exit":    true,
	"/quit":    true,
	"/q":       true,
	"/history": true,
	"/session": true,
	"/help":    true,
	"/h":       true,
	"/?":       true,
}

func (cs *ChatSession) handleSlashCommand(cmd string) bool {
	switch cmd {
	case "/exit", "/quit", "/q":
		return false
	case "/history":
		if cs.Handler.Transcript().IsEmpty() {
			fmt.Fprintln(cs.out, DimStyle.Render("No questions yet."))
			return true
		}
		cs.printTranscript()
	case "/session":
		fmt.Fprintln(cs.out, cs.Handler.SessionID())
	case "/help", "/h", "/?":
		printChatHelp(cs.out)
	}
	return true
}

// printTranscript prints the whole transcript, oldest first.
func (cs *ChatSession) printTranscript() {
	fmt.Fprintln(cs.out)
	fmt.Fprintln(cs.out, cs.render(cs.Handler.Render()))
	fmt.Fprintln(cs.out)
}

func (cs *ChatSession) printWelcome() {
	ui := cs.Config.UI
	fmt.Fprintln(cs.out, TitleStyle.Render(ui.Title))
	if ui.Subtitle != "" {
		fmt.Fprintln(cs.out, ui.Subtitle)
	}
	fmt.Fprintln(cs.out, RenderSeparator())
	fmt.Fprintln(cs.out, DimStyle.Render(fmt.Sprintf("session %s | backend %s | /help for commands",
		util.ShortID(cs.Handler.SessionID(), 8), cs.Config.Backend.URL)))
	if ui.Caption != "" {
		fmt.Fprintln(cs.out, DimStyle.Render(ui.Caption))
	}
	fmt.Fprintln(cs.out)
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  /history    Show the transcript again")
	fmt.Fprintln(w, "  /session    Show the session identifier")
	fmt.Fprintln(w, "  /help       Show this help")
	fmt.Fprintln(w, "  /exit       Leave (also: exit, quit, Ctrl+D)")
	fmt.Fprintln(w, "Anything else is sent to the support backend.")
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the interactive REPL until the user leaves.
func HandleChatCommand(args Args, cfg *config.Config) error {
	logger, closer, err := logging.NewFile(cfg)
	if err != nil {
		logger = logging.Discard()
	} else {
		defer closer.Close()
	}

	client := backend.NewClient(backend.Config{
		Endpoint:  cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout(),
		UserAgent: cfg.Backend.UserAgent,
		Logger:    logger,
	})
	session := NewChatSession(cfg, client, logger, StdStreams())
	logger.WithField("session_id", session.Handler.SessionID()).Info("chat session started")

	if !args.Quiet {
		session.printWelcome()
	}

	input := NewChatCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput(PromptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or closed stdin
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				logger.WithError(err).Warn("reading input failed")
			}
			fmt.Fprintln(session.out)
			return nil
		}

		// Ctrl+C while waiting cancels only the pending question.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		more := session.HandleLine(ctx, line)
		stop()
		if !more {
			return nil
		}
	}
}
