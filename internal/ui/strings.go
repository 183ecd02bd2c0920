package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// truncate shortens a string to the given cell width, adding an ellipsis if
// needed. Escape sequences are preserved and do not count toward the width.
func truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	return ansi.Truncate(value, limit, "…")
}

// truncateMiddle shortens a string by removing characters from the middle,
// preserving both the beginning and end. For paths, it keeps the file name.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}

	ellipsis := []rune("…")
	keep := limit - len(ellipsis)
	if slash := strings.LastIndex(value, "/"); slash >= 0 {
		base := []rune(value[slash:])
		if len(base) < keep {
			prefix := keep - len(base)
			return string(runes[:prefix]) + string(ellipsis) + string(base)
		}
	}
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + string(ellipsis) + string(runes[len(runes)-suffix:])
}

// sanitize strips escape sequences and flattens tabs and line breaks so raw
// log text fits on one terminal row.
func sanitize(text string) string {
	text = ansi.Strip(text)
	if !strings.ContainsAny(text, "\t\r\n") {
		return text
	}
	return strings.NewReplacer(
		"\t", "    ",
		"\r\n", " ↵ ",
		"\n", " ↵ ",
		"\r", "",
	).Replace(text)
}
