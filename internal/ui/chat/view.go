// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/deskchat/internal/util"
)

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.theme.Transcript.Render(m.viewport.View()),
		m.renderFooter(),
	)
}

// renderHeader renders the title and the wrapped subtitle.
func (m Model) renderHeader() string {
	lines := []string{m.theme.HeaderTitle.Render(util.TruncateWidth(m.ui.Title, m.width-2))}
	if m.ui.Subtitle != "" {
		lines = append(lines, m.theme.HeaderSubtitle.Width(m.width-2).Render(m.ui.Subtitle))
	}
	return m.theme.Header.Width(m.width).Render(strings.Join(lines, "\n"))
}

// renderFooter renders everything below the transcript. Its height changes
// with help and the error box, and layout re-measures it after either.
func (m Model) renderFooter() string {
	parts := []string{m.renderStatusLine(), m.renderInput()}
	if m.showHelp {
		parts = append(parts, " "+m.help.FullHelpView(m.keyMap.FullHelp()))
	}
	if m.ui.Caption != "" {
		parts = append(parts, m.theme.Caption.Render(util.TruncateWidth(m.ui.Caption, m.width-2)))
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderStatusLine shows the pending request, the last error or a notice.
// Errors wrap so the whole description stays visible.
func (m Model) renderStatusLine() string {
	width := m.width - 4
	switch {
	case m.state == StateWaiting:
		elapsed := time.Since(m.startedAt).Truncate(time.Second)
		text := fmt.Sprintf("Waiting for the support backend... %s", elapsed)
		return " " + m.spinner.View() + " " + m.theme.WaitingText.Render(util.TruncateWidth(text, width-2))
	case m.errText != "":
		return m.theme.ErrorBox.Width(width).Render(m.errText)
	case m.notice != "":
		return " " + m.theme.Notice.Render(util.TruncateWidth(m.notice, width))
	default:
		return ""
	}
}

// renderInput renders the label and the question field.
func (m Model) renderInput() string {
	label := m.theme.InputLabel.Render(m.ui.InputLabel)
	return m.theme.InputContainer.Width(m.width).Render(label + "\n" + m.input.View())
}

// renderStatusBar shows session, transcript size and backend on the left
// and key hints on the right.
func (m Model) renderStatusBar() string {
	exchanges := m.handler.Transcript().Len() / 2
	left := fmt.Sprintf("session %s | %d %s", util.ShortID(m.handler.SessionID(), 8), exchanges, plural(exchanges, "question", "questions"))
	if m.backendHost != "" {
		left += " | " + m.backendHost
	}

	right := m.help.ShortHelpView(m.keyMap.ShortHelp())

	inner := m.width - 2
	gap := inner - util.StringWidth(left) - lipgloss.Width(right)
	if gap < 1 {
		// Not enough room for hints
		return m.theme.StatusBar.Width(m.width).Render(util.TruncateWidth(left, inner))
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
