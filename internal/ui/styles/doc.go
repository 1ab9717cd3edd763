// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the deskchat TUI.

All colors use Lip Gloss AdaptiveColor so the same palette works on light
and dark terminals. The theme can be forced with ui.theme in the config.

# Colors (colors.go)

  - Blue - Brand color for the title and input prompt
  - Teal - Bot label and sources
  - Rose - Backend errors
  - Amber - Pending request spinner
  - TextPrimary, TextSecondary, TextMuted - Body, labels, captions

# Theme (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.HeaderTitle.Render(cfg.UI.Title)
	errLine := theme.ErrorBox.Render("Error contacting backend: ...")

Status helpers (RenderSuccess, RenderError, RenderWarning) pair each color
with a shape so meaning does not depend on color alone.
*/
package styles
