// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/render"
	"github.com/jeranaias/deskchat/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady   State = iota // Ready for input
	StateWaiting              // A question is with the backend
	StateError                // Showing the last backend error
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateWaiting:
		return "waiting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State

	// Styling
	theme    *styles.Theme
	renderer *render.Terminal
	ui       config.UIConfig

	// Dimensions
	width  int
	height int

	// Session
	handler     *core.Handler
	backendHost string

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keyMap   KeyMap

	// Status
	errText   string
	notice    string
	showHelp  bool
	startedAt time.Time // when the pending request was sent

	copyFn func(string) error
}

// Option configures a Model.
type Option func(*Model)

// WithBackendHost sets the host shown in the status bar.
func WithBackendHost(host string) Option {
	return func(m *Model) { m.backendHost = host }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copyFn = fn }
}

// New creates a new chat model for the session held by h.
func New(theme *styles.Theme, h *core.Handler, ui config.UIConfig, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your question and press Enter"
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	vp := viewport.New(80, 20)

	// ASCII frames render on every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	hp := help.New()
	hp.Styles.ShortKey = theme.ShortcutKey
	hp.Styles.ShortDesc = theme.ShortcutDesc
	hp.Styles.FullKey = theme.ShortcutKey
	hp.Styles.FullDesc = theme.ShortcutDesc

	m := Model{
		state:    StateReady,
		theme:    theme,
		renderer: render.NewTerminal(theme.GlamourStyle(), 78),
		ui:       ui,
		handler:  h,
		viewport: vp,
		input:    ti,
		spinner:  sp,
		help:     hp,
		keyMap:   DefaultKeyMap(),
		copyFn:   clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.refreshTranscript()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// State returns the current view state.
func (m Model) State() State {
	return m.state
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}

// ErrorText returns the error line, or "" when none is shown.
func (m Model) ErrorText() string {
	return m.errText
}

// Handler returns the session handler.
func (m Model) Handler() *core.Handler {
	return m.handler
}
