// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat holds the per-session submit and render logic shared by the
// TUI, the REPL, the one-shot ask command and the web page.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/model"
	"github.com/jeranaias/deskchat/internal/render"
)

// ErrEmptyQuestion is returned by Submit for blank input. No request is made.
var ErrEmptyQuestion = errors.New("question is empty")

// Asker sends one question to the support backend.
// *backend.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, req backend.AskRequest) (*backend.AskResponse, error)
}

// Handler owns one session: its identifier, its transcript and the client
// used to reach the backend.
type Handler struct {
	session *model.Session
	client  Asker
	log     logrus.FieldLogger

	// submitMu keeps one request in flight per session.
	submitMu sync.Mutex
}

// NewHandler creates a handler with a fresh session.
func NewHandler(client Asker, log logrus.FieldLogger) *Handler {
	return NewHandlerForSession(model.NewSession(), client, log)
}

// NewHandlerForSession wraps an existing session.
func NewHandlerForSession(sess *model.Session, client Asker, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		session: sess,
		client:  client,
		log:     log.WithField("session_id", sess.ID),
	}
}

// Session returns the underlying session.
func (h *Handler) Session() *model.Session {
	return h.session
}

// SessionID returns the identifier sent with every request.
func (h *Handler) SessionID() string {
	return h.session.ID
}

// Transcript returns the session transcript.
func (h *Handler) Transcript() *model.Transcript {
	return h.session.Transcript
}

// Normalize trims surrounding whitespace and applies Unicode NFC so that the
// same question typed on different keyboards reaches the backend identically.
func Normalize(question string) string {
	return norm.NFC.String(strings.TrimSpace(question))
}

// Submit sends question to the backend.
//
// On success the question and answer are appended to the transcript as one
// pair and the pair is returned. On failure nothing is appended and the
// error (matching backend.ErrBackendUnavailable) is returned unchanged.
// Blank input returns ErrEmptyQuestion without contacting the backend.
func (h *Handler) Submit(ctx context.Context, question string) (model.Exchange, error) {
	q := Normalize(question)
	if q == "" {
		return model.Exchange{}, ErrEmptyQuestion
	}

	h.submitMu.Lock()
	defer h.submitMu.Unlock()

	h.session.Touch()
	resp, err := h.client.Ask(ctx, backend.AskRequest{
		Question:  q,
		SessionID: h.session.ID,
	})
	if err != nil {
		h.log.WithError(err).WithField("kind", backend.TypeOf(err).String()).Info("submission failed, transcript unchanged")
		return model.Exchange{}, err
	}

	ex := h.session.Transcript.AppendExchange(q, resp.Answer, resp.Sources)
	h.log.WithField("entries", h.session.Transcript.Len()).Debug("exchange recorded")
	return ex, nil
}

// Render returns the whole transcript as markdown, in insertion order.
func (h *Handler) Render() string {
	return render.Markdown(h.session.Transcript.Entries())
}
