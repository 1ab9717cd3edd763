// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/deskchat/internal/model"

// SubmitResultMsg carries the outcome of one question.
type SubmitResultMsg struct {
	Question string
	Exchange model.Exchange
	Err      error
}

// CopyResultMsg reports a clipboard copy.
type CopyResultMsg struct {
	Err error
}
