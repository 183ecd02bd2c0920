package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/five82/loglens/internal/highlight"
	"github.com/five82/loglens/internal/ui"
	"github.com/five82/loglens/internal/viewer"
)

const printTimeout = 15 * time.Second

// termColors mirrors the five-slot highlight palette with terminal colors.
var termColors = []*color.Color{
	color.New(color.BgYellow, color.FgBlack),
	color.New(color.BgCyan, color.FgBlack),
	color.New(color.BgMagenta, color.FgBlack),
	color.New(color.BgGreen, color.FgBlack),
	color.New(color.BgRed, color.FgWhite),
}

var (
	anchorColor = color.New(color.FgBlue, color.Bold)
	faintColor  = color.New(color.Faint)
)

// printWindow opens the anchor window once and writes the filtered lines to
// w with highlight terms colored, followed by a one-line summary.
func printWindow(ctx context.Context, v *viewer.Viewer, anchor string, w io.Writer) error {
	anchor = strings.TrimSpace(anchor)
	if anchor == "" {
		return errors.New("print mode needs -anchor")
	}

	ctx, cancel := context.WithTimeout(ctx, printTimeout)
	defer cancel()
	if err := v.Open(ctx, anchor); err != nil {
		return fmt.Errorf("open anchor %q: %w", anchor, err)
	}

	rows := v.Visible()
	texts := make([]string, len(rows))
	scan := make([]highlight.Row, len(rows))
	for i, row := range rows {
		texts[i] = ui.DisplayText(row.Line)
		scan[i] = highlight.Row{Key: row.Line.Identity(), Text: texts[i]}
	}

	hl := v.Highlights()
	occs := highlight.Scan(scan, hl.Terms(), v.Filter().IgnoreCase)
	byRow := make(map[int][]highlight.Occurrence, len(occs))
	for _, o := range occs {
		byRow[o.Row] = append(byRow[o.Row], o)
	}

	anchorIndex := v.AnchorIndex()
	for i, row := range rows {
		marker := "  "
		if row.Index == anchorIndex {
			marker = anchorColor.Sprint("▶ ")
		}
		var b strings.Builder
		for _, seg := range highlight.Segments(texts[i], byRow[i], nil) {
			if seg.Term == "" {
				b.WriteString(seg.Text)
				continue
			}
			slot, _ := hl.ColorIndex(seg.Term)
			b.WriteString(termColors[slot%len(termColors)].Sprint(seg.Text))
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", marker, b.String()); err != nil {
			return err
		}
	}

	_, err := faintColor.Fprintf(w, "-- %d of %d lines, %d matches\n", len(rows), len(v.Lines()), len(occs))
	return err
}
