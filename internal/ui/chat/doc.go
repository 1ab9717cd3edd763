// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen terminal interface for deskchat.

It is a Bubble Tea program over a single support session. The whole
transcript is re-rendered with glamour after every successful question; a
failed question shows one error line and leaves the transcript untouched.

# Key Components

## Model (model.go)

Holds the session handler, the scrollable transcript viewport, the question
input and the spinner shown while a request is pending. Only one request is
in flight at a time.

## Update Loop (update.go)

  - Enter submits the input if it is not blank
  - SubmitResultMsg applies the outcome of a request
  - Esc dismisses the error line
  - Ctrl+Y copies the last answer to the clipboard

## View Rendering (view.go)

Header (title and subtitle), transcript, error or progress line, input,
footer caption and status bar (session, entry count, backend host).

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	h := chat.NewHandler(client, log)
	m := uichat.New(theme, h, cfg.UI, uichat.WithBackendHost(client.Host()))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
*/
package chat
