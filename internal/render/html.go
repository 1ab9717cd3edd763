// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	// Answers come from the backend and are treated as untrusted.
	sanitizer = bluemonday.UGCPolicy()
)

// HTML converts one message's markdown into sanitized HTML. Tags written
// in the message are shown as text.
func HTML(text string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(EscapeRawHTML(text)), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}
