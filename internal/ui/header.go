package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/loglens/internal/viewer"
)

// renderHeader renders the top line: logo, mode, anchor, source and health.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	health := m.viewer.Health()

	parts := []string{
		bg.Render("loglens", styles.Logo),
		m.renderModeBadge(),
	}
	if m.anchor != "" && m.viewer.Mode() == viewer.ModeContext {
		parts = append(parts, bg.Render("@ "+truncate(m.anchor, 32), styles.AccentText))
	}
	if m.source != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.source, 48), styles.MutedText))
	}

	switch {
	case health.IsOffline():
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText))
		if m.viewer.Tailing() {
			parts = append(parts, bg.Render("Retrying...", styles.WarningText.Bold(true)))
		}
	case health.AnchorMissing:
		parts = append(parts, bg.Render("ANCHOR NOT FOUND", styles.WarningText.Bold(true)))
	}

	if id := m.viewer.ID(); len(id) >= 8 {
		parts = append(parts, bg.Render("session "+id[:8], styles.FaintText))
	}

	content := strings.Join(parts, bg.Spaces(2))
	return styles.Header.Width(m.width).Render(truncate(content, m.width-2))
}

// renderModeBadge renders CONTEXT, TAIL or PAUSED as a colored badge.
func (m Model) renderModeBadge() string {
	label, color := "CONTEXT", m.theme.Accent
	if m.viewer.Mode() == viewer.ModeTail {
		label, color = "TAIL", m.theme.Success
		if !m.viewer.Tailing() {
			label, color = "PAUSED", m.theme.Warning
		}
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(color)).
		Bold(true).
		Padding(0, 1).
		Render(label)
}

// renderCommandBar renders the key hints, the registered highlight terms in
// their palette colors, and the theme indicator.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	segments := []string{m.help.ShortHelpView(m.keys.ShortHelp())}

	for _, t := range m.viewer.Highlights().Terms() {
		segments = append(segments, styles.TermStyle(t.ColorIndex).Render(" "+truncate(t.Key, 16)+" "))
	}

	colon := bg.Render(":", styles.FaintText)
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	content := strings.Join(segments, bg.Spaces(2))
	return styles.Header.Width(m.width).Render(truncate(content, m.width-2))
}
