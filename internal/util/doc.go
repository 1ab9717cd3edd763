// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by deskchat's front ends.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: column-aware truncation with ellipsis (go-runewidth)
//   - StringWidth, PadRight: terminal width helpers
//   - ShortID, OneLine: compact forms for status lines and logs
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Fit a status line into the terminal
//	line := util.TruncateWidth(status, width)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
