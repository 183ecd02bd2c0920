package ui

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/five82/loglens/internal/logpage"
)

// timestampLayout is how line timestamps are shown in the pane.
const timestampLayout = "2006-01-02 15:04:05.000"

var levelRe = regexp.MustCompile(`\b(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|PANIC)\b`)

// levelKeys are attribute names that carry a record's level.
var levelKeys = []string{"level", "lvl", "severity"}

// DisplayText renders a line as it appears in the pane: local timestamp,
// message, then the remaining attributes as key=value pairs in key order.
// Highlight offsets refer to this string. Print mode writes the same form.
func DisplayText(line logpage.LogLine) string {
	var b strings.Builder
	if !line.Timestamp.IsZero() {
		b.WriteString(line.Timestamp.In(time.Local).Format(timestampLayout))
		b.WriteByte(' ')
	}
	b.WriteString(sanitize(line.Text))

	if len(line.Attrs) == 0 {
		return b.String()
	}
	keys := make([]string, 0, len(line.Attrs))
	for k := range line.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(sanitize(line.Attrs[k]))
	}
	return b.String()
}

// lineLevel returns the record's level from its attributes, or the first
// level word in its text.
func lineLevel(line logpage.LogLine) string {
	for _, k := range levelKeys {
		if v := strings.TrimSpace(line.Attrs[k]); v != "" {
			return strings.ToUpper(v)
		}
	}
	if m := levelRe.FindStringSubmatch(line.Text); len(m) > 1 {
		return m[1]
	}
	return ""
}
