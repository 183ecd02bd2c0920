package highlight

import (
	"regexp"
	"sort"
)

// Row is one rendered line offered to Scan.
type Row struct {
	Key  string
	Text string
}

// Scan finds every occurrence of terms in rows, in document order. Overlapping
// matches keep the earliest start, then the longest span.
func Scan(rows []Row, terms []Term, ignoreCase bool) []Occurrence {
	if len(terms) == 0 || len(rows) == 0 {
		return nil
	}
	patterns := make([]*regexp.Regexp, len(terms))
	for i, t := range terms {
		expr := regexp.QuoteMeta(t.Key)
		if ignoreCase {
			expr = "(?i)" + expr
		}
		patterns[i] = regexp.MustCompile(expr)
	}

	var out []Occurrence
	var row []Occurrence
	for r, line := range rows {
		row = row[:0]
		for i, re := range patterns {
			for _, loc := range re.FindAllStringIndex(line.Text, -1) {
				row = append(row, Occurrence{
					Term:    terms[i].Key,
					Row:     r,
					LineKey: line.Key,
					Start:   loc[0],
					End:     loc[1],
				})
			}
		}
		sort.SliceStable(row, func(a, b int) bool {
			if row[a].Start != row[b].Start {
				return row[a].Start < row[b].Start
			}
			return row[a].End > row[b].End
		})
		end := -1
		for _, o := range row {
			if o.Start < end {
				continue
			}
			out = append(out, o)
			end = o.End
		}
	}
	return out
}

// Segment is a run of text within a rendered line. Term is empty for plain text.
type Segment struct {
	Text   string
	Term   string
	Active bool
}

// Segments splits text around occs, which must belong to the same row and be
// ordered by Start. active marks the occurrence drawn with the active shade.
func Segments(text string, occs []Occurrence, active *Occurrence) []Segment {
	var out []Segment
	pos := 0
	for _, o := range occs {
		if o.Start < pos || o.End > len(text) {
			continue
		}
		if o.Start > pos {
			out = append(out, Segment{Text: text[pos:o.Start]})
		}
		out = append(out, Segment{
			Text:   text[o.Start:o.End],
			Term:   o.Term,
			Active: active != nil && o.sameAs(*active),
		})
		pos = o.End
	}
	if pos < len(text) {
		out = append(out, Segment{Text: text[pos:]})
	}
	return out
}
