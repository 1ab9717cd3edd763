// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Blue - Brand color, header title, input prompt
var Blue = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}

// Teal - Bot label and sources
var Teal = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

// Emerald - Success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// RoseDeep - Error box background
var RoseDeep = lipgloss.AdaptiveColor{Light: "#FFE4E6", Dark: "#4C0519"}

// Amber - Warnings, pending request
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

// SurfaceDim - Header and status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#111827"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#374151"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"}

// TextSecondary - Subtitle, labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}

// TextMuted - Caption, hints
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}

// =============================================================================
// STATUS HELPERS
// =============================================================================

// Status indicators pair every color with a shape so meaning does not rely
// on color alone.
const (
	IndicatorSuccess = "✓"
	IndicatorError   = "✗"
	IndicatorWarning = "!"
)

// RenderSuccess renders a success line with a check mark.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(IndicatorSuccess + " " + message)
}

// RenderError renders an error line with an X mark.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(IndicatorError + " " + message)
}

// RenderWarning renders a warning line.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(IndicatorWarning + " " + message)
}
