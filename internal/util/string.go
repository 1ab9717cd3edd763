// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

// TruncateWidth truncates s to at most maxWidth terminal columns, appending
// "..." when something was cut. Wide (CJK, emoji) runes count as two columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, ellipsis)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to width columns. Longer strings are returned as-is.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// ShortID returns the first n runes of an identifier, for status lines.
func ShortID(id string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(id)
	if len(r) <= n {
		return id
	}
	return string(r[:n])
}

// OneLine collapses runs of whitespace, including newlines, to single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
