// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   deskchat ask "How do I map a network drive?"
//   deskchat ask --json "Where is the VPN guide?"
//   git log -1 --format=%B | deskchat ask
//
// Flags:
//   --json              Output response as JSON
//   -q, --quiet         Print only the answer text
//   --endpoint URL      Backend endpoint
//   --timeout SECS      Request timeout
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/logging"
	"github.com/jeranaias/deskchat/internal/render"
)

// MaxStdinQuestion caps how much piped input is read as a question.
const MaxStdinQuestion = 64 * 1024

// HandleAsk runs the ask command against the process streams.
func HandleAsk(ctx context.Context, args Args, cfg *config.Config) error {
	return RunAsk(ctx, args, cfg, StdStreams())
}

// RunAsk asks one question and prints the answer. It returns
// chat.ErrEmptyQuestion for blank input and an error wrapping
// backend.ErrBackendUnavailable when the backend could not answer.
func RunAsk(ctx context.Context, args Args, cfg *config.Config, s Streams) error {
	question, err := askQuestion(args, s)
	if err != nil {
		return reportAskError(s, args, err)
	}
	if chat.Normalize(question) == "" {
		return reportAskError(s, args, chat.ErrEmptyQuestion)
	}

	logger := askLogger(cfg, args, s.Err)
	client := backend.NewClient(backend.Config{
		Endpoint:  cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout(),
		UserAgent: cfg.Backend.UserAgent,
		Logger:    logger,
	})
	h := chat.NewHandler(client, logger)

	start := time.Now()
	ex, err := h.Submit(ctx, question)
	if err != nil {
		return reportAskError(s, args, err)
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Question:   ex.Question.Text,
			Answer:     ex.Answer.Text,
			Sources:    nonNil(ex.Answer.Sources),
			SessionID:  h.SessionID(),
			Endpoint:   client.Endpoint(),
			DurationMs: time.Since(start).Milliseconds(),
		}).Write(s.Out)
	}

	if args.Quiet {
		_, err := fmt.Fprintln(s.Out, ex.Answer.Text)
		return err
	}

	md := render.Exchange(ex)
	if s.OutTTY {
		width := s.Width
		if width <= 0 {
			width = DefaultTerminalWidth
		}
		md = render.NewTerminal(cfg.UI.Theme, width-2).Render(md)
	}
	_, err = fmt.Fprintln(s.Out, strings.TrimRight(md, "\n"))
	return err
}

// askQuestion takes the question from the arguments, or from stdin when it
// is piped and no arguments were given.
func askQuestion(args Args, s Streams) (string, error) {
	if args.Query != "" || s.InTTY || s.In == nil {
		return args.Query, nil
	}
	data, err := io.ReadAll(io.LimitReader(s.In, MaxStdinQuestion))
	if err != nil {
		return "", NewCommandError("ask", "read", "could not read question from stdin", err)
	}
	return string(data), nil
}

// askLogger logs warnings and above to stderr unless --verbose was given.
func askLogger(cfg *config.Config, args Args, w io.Writer) *logrus.Logger {
	lc := cfg.Log
	if !args.Verbose {
		lc.Level = "warn"
	}
	return logging.New(lc, w)
}

func reportAskError(s Streams, args Args, err error) error {
	switch {
	case args.JSON:
		NewJSONErrorResponse("ask", err).Write(s.Out)
	case backend.IsUnavailable(err):
		fmt.Fprintln(s.Err, ErrorStyle.Render(render.ErrorText(err)))
	case errors.Is(err, chat.ErrEmptyQuestion):
		fmt.Fprintln(s.Err, ErrorStyle.Render("[ERROR]"), "no question given")
		fmt.Fprintln(s.Err, DimStyle.Render(`Usage: deskchat ask "your question"`))
	default:
		DisplayError(s.Err, err, false)
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
