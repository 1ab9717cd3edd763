// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	core "github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/render"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case SubmitResultMsg:
		return m.handleSubmitResult(msg)

	case CopyResultMsg:
		if msg.Err != nil {
			m.notice = ""
			m.errText = "Could not copy to clipboard: " + msg.Err.Error()
			m.layout()
			return m, nil
		}
		m.notice = "Copied last answer to clipboard"
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if m.state == StateWaiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width

	const promptLen = 2 // "> "
	inputWidth := m.width - 4 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.layout()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Dismiss):
		if m.state == StateError {
			m.state = StateReady
		}
		m.errText = ""
		m.notice = ""
		m.layout()
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keyMap.Copy):
		return m, m.copyLastAnswer()

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	if m.state == StateWaiting {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input to the backend. Blank input and submissions while
// a request is pending are ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state == StateWaiting {
		return m, nil
	}
	question := m.input.Value()
	if core.Normalize(question) == "" {
		return m, nil
	}

	m.state = StateWaiting
	m.errText = ""
	m.notice = ""
	m.startedAt = time.Now()
	m.input.Blur()
	m.layout()

	return m, tea.Batch(submitCmd(m.handler, question), m.spinner.Tick)
}

// submitCmd runs one submission off the UI goroutine.
func submitCmd(h *core.Handler, question string) tea.Cmd {
	return func() tea.Msg {
		ex, err := h.Submit(context.Background(), question)
		return SubmitResultMsg{Question: question, Exchange: ex, Err: err}
	}
}

func (m Model) handleSubmitResult(msg SubmitResultMsg) (tea.Model, tea.Cmd) {
	m.input.Focus()

	if msg.Err != nil {
		if errors.Is(msg.Err, core.ErrEmptyQuestion) {
			m.state = StateReady
			m.layout()
			return m, textinput.Blink
		}
		// Keep the question in the input so it can be retried by hand.
		m.state = StateError
		m.errText = render.ErrorText(msg.Err)
		m.layout()
		return m, textinput.Blink
	}

	m.state = StateReady
	m.errText = ""
	m.input.Reset()
	m.refreshTranscript()
	m.layout()
	m.viewport.GotoBottom()
	return m, textinput.Blink
}

func (m Model) copyLastAnswer() tea.Cmd {
	last, ok := m.handler.Transcript().LastAnswer()
	if !ok {
		return nil
	}
	copyFn := m.copyFn
	return func() tea.Msg {
		return CopyResultMsg{Err: copyFn(last.Text)}
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport to whatever the fixed parts of the screen leave.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	fixed := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderFooter())
	vpHeight := m.height - fixed
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight

	width := m.width - 2
	if width < 20 {
		width = 20
	}
	m.renderer.SetWidth(width)
	m.refreshTranscript()
}

// refreshTranscript re-renders the whole transcript into the viewport.
func (m *Model) refreshTranscript() {
	atBottom := m.viewport.AtBottom()

	if m.handler.Transcript().IsEmpty() {
		m.viewport.SetContent(m.theme.EmptyHint.Render("No questions yet. Type one below and press Enter."))
	} else {
		m.viewport.SetContent(m.renderer.Render(m.handler.Render()))
	}

	if atBottom {
		m.viewport.GotoBottom()
	}
}
