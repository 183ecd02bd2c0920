package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/loglens/internal/filter"
	"github.com/five82/loglens/internal/logpage"
)

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("/var/log/app/service.log", 16)
	if want := "/va…/service.log"; got != want {
		t.Fatalf("truncateMiddle path = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 5); lipgloss.Width(got) > 5 {
		t.Fatalf("truncate = %q, want at most 5 cells", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q, want short", got)
	}
	if got := truncate("anything", 0); got != "anything" {
		t.Fatalf("truncate limit 0 = %q, want unchanged", got)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "ready", "ready"},
		{"tabs", "a\tb", "a    b"},
		{"newlines", "first\nsecond", "first ↵ second"},
		{"crlf", "first\r\nsecond", "first ↵ second"},
		{"ansi", "\x1b[31mred\x1b[0m", "red"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitize(tc.in); got != tc.want {
				t.Fatalf("sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDisplayText(t *testing.T) {
	oldLocal := time.Local
	time.Local = time.FixedZone("TestLocal", -5*60*60)
	defer func() {
		time.Local = oldLocal
	}()

	line := logpage.LogLine{
		Timestamp: time.Date(2025, 3, 4, 15, 6, 7, 8_000_000, time.UTC),
		Text:      "request done",
		Attrs:     map[string]string{"status": "200", "method": "GET"},
	}
	want := "2025-03-04 10:06:07.008 request done method=GET status=200"
	if got := DisplayText(line); got != want {
		t.Fatalf("DisplayText = %q, want %q", got, want)
	}

	if got := DisplayText(logpage.LogLine{Text: "bare"}); got != "bare" {
		t.Fatalf("DisplayText without timestamp = %q, want bare", got)
	}
}

func TestLineLevel(t *testing.T) {
	if got := lineLevel(logpage.LogLine{Attrs: map[string]string{"level": "warn"}}); got != "WARN" {
		t.Fatalf("lineLevel attr = %q, want WARN", got)
	}
	if got := lineLevel(logpage.LogLine{Text: "2025/01/01 ERROR disk full"}); got != "ERROR" {
		t.Fatalf("lineLevel text = %q, want ERROR", got)
	}
	if got := lineLevel(logpage.LogLine{Text: "nothing here"}); got != "" {
		t.Fatalf("lineLevel none = %q, want empty", got)
	}
}

func TestFilterSummary(t *testing.T) {
	cases := []struct {
		name string
		spec filter.Spec
		want string
	}{
		{"inactive", filter.Spec{}, "no filter"},
		{"include", filter.Spec{Keyword: "err"}, `include "err"`},
		{"context", filter.Spec{Keyword: "err", ContextBefore: 2, ContextNext: 3}, `include "err" -2/+3`},
		{"exclude ignores context", filter.Spec{Type: filter.Exclude, Keyword: "err", ContextBefore: 2}, `exclude "err"`},
		{"ignore case", filter.Spec{Keyword: "err", IgnoreCase: true}, `include "err" ignore case`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := filterSummary(tc.spec); got != tc.want {
				t.Fatalf("filterSummary = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		raw      string
		fallback int
		want     int
	}{
		{"", 4, 0},
		{" 3 ", 0, 3},
		{"-2", 5, 0},
		{"abc", 5, 5},
	}
	for _, tc := range cases {
		if got := parseCount(tc.raw, tc.fallback); got != tc.want {
			t.Fatalf("parseCount(%q, %d) = %d, want %d", tc.raw, tc.fallback, got, tc.want)
		}
	}
}

func TestThemeCycle(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames = %v, want 3 themes", names)
	}
	for i, name := range names {
		want := names[(i+1)%len(names)]
		if got := NextTheme(name); got != want {
			t.Fatalf("NextTheme(%q) = %q, want %q", name, got, want)
		}
	}
	if got := NextTheme("missing"); got != names[0] {
		t.Fatalf("NextTheme(missing) = %q, want %q", got, names[0])
	}
	if got := GetTheme("missing").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(missing) = %q, want Nightfox", got)
	}
}

func TestThemesHaveHighlightPalette(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		if len(th.Highlights) < 5 {
			t.Fatalf("%s has %d highlight colors, want at least 5", name, len(th.Highlights))
		}
	}
}
