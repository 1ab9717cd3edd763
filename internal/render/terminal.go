// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Glamour style names accepted by NewTerminal.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// Terminal renders markdown for a terminal with glamour. Safe for concurrent use.
type Terminal struct {
	mu       sync.Mutex
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewTerminal creates a renderer. theme is "dark", "light", "notty" or
// "auto"; auto is resolved once, here, from the terminal background.
func NewTerminal(theme string, width int) *Terminal {
	t := &Terminal{style: ResolveStyle(theme), width: width}
	t.rebuild()
	return t
}

// ResolveStyle maps a config theme to a glamour style.
func ResolveStyle(theme string) string {
	switch strings.ToLower(theme) {
	case StyleDark, StyleLight, StyleNoTTY:
		return strings.ToLower(theme)
	}
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

// SetWidth changes the word wrap width. No-op if unchanged.
func (t *Terminal) SetWidth(width int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if width == t.width {
		return
	}
	t.width = width
	t.rebuild()
}

// Render converts markdown to styled terminal text. Tags written in the
// markdown are shown as text. If glamour fails the markdown is returned
// unchanged.
func (t *Terminal) Render(md string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.renderer == nil || md == "" {
		return md
	}
	out, err := t.renderer.Render(EscapeRawHTML(md))
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// rebuild must be called with mu held.
func (t *Terminal) rebuild() {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(t.style)}
	if t.width > 0 {
		opts = append(opts, glamour.WithWordWrap(t.width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		t.renderer = nil
		return
	}
	t.renderer = r
}
