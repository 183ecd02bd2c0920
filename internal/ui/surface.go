package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/five82/loglens/internal/highlight"
	"github.com/five82/loglens/internal/viewer"
)

// Ensure logSurface implements highlight.Surface at compile time.
var _ highlight.Surface = (*logSurface)(nil)

// logSurface is the log pane. It owns the viewport, the rows currently
// rendered into it and the highlight occurrences found in those rows. Only the
// UI goroutine touches it.
type logSurface struct {
	vp viewport.Model

	rows      []viewer.VisibleLine
	texts     []string
	keys      []string
	anchorRow int

	occs   []highlight.Occurrence
	byRow  map[int][]highlight.Occurrence
	active *highlight.Occurrence
}

func newLogSurface() *logSurface {
	return &logSurface{
		vp:        viewport.New(0, 0),
		anchorRow: -1,
		byRow:     map[int][]highlight.Occurrence{},
	}
}

// setRows installs the visible lines and rescans them for terms.
func (s *logSurface) setRows(rows []viewer.VisibleLine, anchorIndex int, terms []highlight.Term, ignoreCase bool) {
	s.rows = rows
	s.texts = make([]string, len(rows))
	s.keys = make([]string, len(rows))
	s.anchorRow = -1

	scan := make([]highlight.Row, len(rows))
	for i, row := range rows {
		s.texts[i] = DisplayText(row.Line)
		s.keys[i] = row.Line.Identity()
		scan[i] = highlight.Row{Key: s.keys[i], Text: s.texts[i]}
		if anchorIndex >= 0 && row.Index == anchorIndex {
			s.anchorRow = i
		}
	}

	s.occs = highlight.Scan(scan, terms, ignoreCase)
	s.byRow = make(map[int][]highlight.Occurrence, len(s.occs))
	for _, o := range s.occs {
		s.byRow[o.Row] = append(s.byRow[o.Row], o)
	}
}

// Occurrences implements highlight.Surface.
func (s *logSurface) Occurrences() []highlight.Occurrence {
	return s.occs
}

// Activate implements highlight.Surface. The row is centered when possible.
func (s *logSurface) Activate(_ int, occ highlight.Occurrence) {
	s.active = &occ
	s.centerOn(occ.Row)
}

func (s *logSurface) centerOn(row int) {
	s.vp.SetYOffset(max(row-s.vp.Height/2, 0))
}

// keyAt returns the identity of the line on row, or "" when out of range.
func (s *logSurface) keyAt(row int) string {
	if row < 0 || row >= len(s.keys) {
		return ""
	}
	return s.keys[row]
}

// rowOf returns the row holding the line with identity key, or -1.
func (s *logSurface) rowOf(key string) int {
	for i, k := range s.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// bottomOffset is the YOffset that shows the last row at the bottom.
func (s *logSurface) bottomOffset() int {
	return max(len(s.rows)-s.vp.Height, 0)
}

// render draws every row into the viewport. colorOf maps a term to its
// palette slot; empty is shown when there are no rows.
func (s *logSurface) render(theme Theme, colorOf map[string]int, empty string) {
	styles := theme.Styles()
	bg := NewBgStyle(theme.FocusBg)
	width := s.vp.Width

	if len(s.rows) == 0 {
		s.vp.SetContent(bg.FillLine(bg.Render(empty, styles.MutedText), width))
		return
	}

	gutter := 1
	for _, row := range s.rows {
		gutter = max(gutter, len(rowLabel(row)))
	}

	anchorBg := NewBgStyle(theme.SelectionBg)
	var b strings.Builder
	for i, row := range s.rows {
		rowBg := bg
		marker, gutterStyle := " ", styles.FaintText
		if i == s.anchorRow {
			rowBg = anchorBg
			marker, gutterStyle = "▶", styles.AccentText
		}

		var line strings.Builder
		line.WriteString(rowBg.Render(fmt.Sprintf("%s%*s │ ", marker, gutter, rowLabel(row)), gutterStyle))
		base := styles.LevelStyle(lineLevel(row.Line))
		for _, seg := range highlight.Segments(s.texts[i], s.byRow[i], s.active) {
			switch {
			case seg.Active:
				line.WriteString(styles.ActiveStyle().Render(seg.Text))
			case seg.Term != "":
				line.WriteString(styles.TermStyle(colorOf[seg.Term]).Render(seg.Text))
			default:
				line.WriteString(rowBg.Render(seg.Text, base))
			}
		}

		b.WriteString(rowBg.FillLine(truncate(line.String(), width), width))
		if i < len(s.rows)-1 {
			b.WriteString("\n")
		}
	}
	s.vp.SetContent(b.String())
}

// rowLabel is the gutter label: the source sequence when known, otherwise
// the 1-based position in the materialized list.
func rowLabel(row viewer.VisibleLine) string {
	if row.Line.Seq > 0 {
		return strconv.FormatUint(row.Line.Seq, 10)
	}
	return strconv.Itoa(row.Index + 1)
}
