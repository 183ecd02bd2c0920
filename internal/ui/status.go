package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/five82/loglens/internal/filter"
	"github.com/five82/loglens/internal/logpage"
	"github.com/five82/loglens/internal/viewer"
)

// renderStatus renders the status bar below the log pane.
func (m Model) renderStatus() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	health := m.viewer.Health()
	hl := m.viewer.Highlights()
	spec := m.viewer.Filter()

	var parts []string

	if loading := m.loadingLabel(); loading != "" {
		parts = append(parts, m.spinner.View()+bg.Space()+bg.Render(loading, styles.AccentText))
	}

	lines := humanize.Comma(int64(len(m.viewer.Lines()))) + " lines"
	if spec.Active() {
		lines += ", " + humanize.Comma(int64(len(m.surface.rows))) + " shown"
	}
	parts = append(parts, bg.Render(lines, styles.MutedText))

	if n := hl.Count(); n > 0 {
		i, _, _ := hl.Current()
		upStyle, downStyle := styles.AccentText, styles.AccentText
		if hl.UpDisabled() {
			upStyle = styles.FaintText
		}
		if hl.DownDisabled() {
			downStyle = styles.FaintText
		}
		parts = append(parts,
			bg.Render("▲", upStyle)+bg.Render("▼", downStyle)+bg.Space()+
				bg.Render(fmt.Sprintf("match %d/%d", i, n), styles.WarningText))
	} else if len(hl.Terms()) > 0 {
		parts = append(parts, bg.Render("no matches", styles.FaintText))
	}

	if spec.Active() || !compact {
		parts = append(parts, bg.Render(filterSummary(spec), styles.InfoText))
	}

	if m.viewer.Mode() == viewer.ModeTail && m.viewer.Tailing() && !m.follow {
		parts = append(parts, bg.Render("follow off (G to resume)", styles.WarningText))
	}

	switch {
	case health.LastError != nil && !health.AnchorMissing:
		parts = append(parts, bg.Render(truncate(health.LastError.Error(), 48), styles.DangerText))
	case !health.LastSuccess.IsZero() && !compact:
		parts = append(parts, bg.Render("updated "+humanize.Time(health.LastSuccess), styles.FaintText))
	}

	if m.notice != "" {
		style := styles.MutedText
		if m.noticeErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(m.notice, style))
	}

	content := bg.Join(parts, " • ", styles.FaintText)
	return bg.FillLine(truncate(content, m.width), m.width)
}

// loadingLabel describes the context fetch in progress, if any.
func (m Model) loadingLabel() string {
	switch {
	case m.opening:
		return "opening"
	case m.viewer.Loading(logpage.DirectionOlder):
		return "loading older"
	case m.viewer.Loading(logpage.DirectionNewer):
		return "loading newer"
	}
	return ""
}

// filterSummary renders a filter spec as `include "err" -2/+3 ignore case`.
func filterSummary(spec filter.Spec) string {
	if !spec.Active() {
		return "no filter"
	}
	parts := []string{fmt.Sprintf("%s %q", spec.Type, spec.Keyword)}
	if spec.Type == filter.Include && (spec.ContextBefore > 0 || spec.ContextNext > 0) {
		parts = append(parts, fmt.Sprintf("-%d/+%d", spec.ContextBefore, spec.ContextNext))
	}
	if spec.IgnoreCase {
		parts = append(parts, "ignore case")
	}
	return strings.Join(parts, " ")
}
