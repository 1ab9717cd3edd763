// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns a transcript into markdown, terminal output and HTML.
//
// Markdown is the canonical form. Every front end re-renders the whole
// transcript from it on each refresh:
//
//	**You:** How do I reset my password?
//
//	**Bot:** Use the self-service portal.
//
//	*Sources:*
//	- password-policy.pdf
package render

import (
	"strings"

	"github.com/jeranaias/deskchat/internal/model"
)

// ErrorPrefix starts every user-visible backend error.
const ErrorPrefix = "Error contacting backend: "

// Markdown renders entries in order. Sources follow the answer they belong to.
func Markdown(entries []model.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		writeEntry(&b, e)
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	return b.String()
}

// Exchange renders a single question and answer.
func Exchange(ex model.Exchange) string {
	return Markdown([]model.Entry{ex.Question, ex.Answer})
}

func writeEntry(b *strings.Builder, e model.Entry) {
	b.WriteString("**")
	b.WriteString(e.Sender.DisplayName())
	b.WriteString(":** ")
	b.WriteString(e.Text)

	if !e.HasSources() {
		return
	}
	b.WriteString("\n\n*Sources:*\n")
	for i, src := range e.Sources {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(src)
	}
}

// ErrorText is the single message shown for any failed submission.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	return ErrorPrefix + err.Error()
}
