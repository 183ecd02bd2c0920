package logsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/five82/loglens/internal/logpage"
)

func writeLog(t *testing.T, n int) string {
	t.Helper()
	var content strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&content, "Line %d\n", i)
	}
	path := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}
	return path
}

func textsOf(lines []logpage.LogLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestReadTail(t *testing.T) {
	path := writeLog(t, 10)

	tests := []struct {
		name      string
		maxLines  int
		wantFirst int
		wantLen   int
	}{
		{"zero", 0, 0, 0},
		{"partial", 5, 5, 5},
		{"exactly all", 10, 0, 10},
		{"more than exists", 20, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, first, err := readTail(path, tt.maxLines)
			if err != nil {
				t.Fatalf("readTail() error = %v", err)
			}
			if first != tt.wantFirst || len(got) != tt.wantLen {
				t.Fatalf("readTail() = %d lines from %d, want %d from %d", len(got), first, tt.wantLen, tt.wantFirst)
			}
			if tt.wantLen > 0 && got[0] != fmt.Sprintf("Line %d", tt.wantFirst+1) {
				t.Fatalf("first line = %q", got[0])
			}
		})
	}

	got, _, err := readTail(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("missing file = %v, %v; want nil, nil", got, err)
	}
}

func TestFile_ContextPaging(t *testing.T) {
	f := NewFile(writeLog(t, 30))
	ctx := context.Background()

	page, err := f.Fetch(ctx, logpage.Request{Anchor: "15", Direction: logpage.DirectionInitial, Size: 6})
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if page.ZeroIndex != 3 || page.CountStart != 3 {
		t.Fatalf("zeroIndex/countStart = %d/%d, want 3/3", page.ZeroIndex, page.CountStart)
	}
	if got := textsOf(page.Lines); !reflect.DeepEqual(got, []string{"Line 12", "Line 13", "Line 14", "Line 15", "Line 16", "Line 17"}) {
		t.Fatalf("initial lines = %v", got)
	}
	if page.Lines[3].Seq != 15 {
		t.Fatalf("anchor seq = %d, want 15", page.Lines[3].Seq)
	}

	older, err := f.Fetch(ctx, logpage.Request{Anchor: "15", Direction: logpage.DirectionOlder, Begin: -3, Size: 4})
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if got := textsOf(older.Lines); !reflect.DeepEqual(got, []string{"Line 8", "Line 9", "Line 10", "Line 11"}) {
		t.Fatalf("older lines = %v", got)
	}

	newer, err := f.Fetch(ctx, logpage.Request{Anchor: "15", Direction: logpage.DirectionNewer, Begin: 3, Size: 100})
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if len(newer.Lines) != 13 || newer.Lines[0].Text != "Line 18" {
		t.Fatalf("newer lines = %v", textsOf(newer.Lines))
	}

	top, err := f.Fetch(ctx, logpage.Request{Anchor: "15", Direction: logpage.DirectionOlder, Begin: -14, Size: 4})
	if err != nil || len(top.Lines) != 0 {
		t.Fatalf("past the top = %v, %v; want no lines", textsOf(top.Lines), err)
	}
}

func TestFile_SubstringAnchorAndMissing(t *testing.T) {
	f := NewFile(writeLog(t, 30))
	ctx := context.Background()

	page, err := f.Fetch(ctx, logpage.Request{Anchor: "Line 2", Direction: logpage.DirectionInitial, Size: 4})
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if page.Lines[page.ZeroIndex].Text != "Line 2" {
		t.Fatalf("anchor line = %q, want first match", page.Lines[page.ZeroIndex].Text)
	}

	for _, anchor := range []string{"nowhere", "0", "31", ""} {
		page, err = f.Fetch(ctx, logpage.Request{Anchor: anchor, Size: 4})
		if err != nil {
			t.Fatalf("Fetch(%q) error = %v", anchor, err)
		}
		if page.HasAnchor() {
			t.Fatalf("Fetch(%q) located an anchor", anchor)
		}
	}

	if _, err := NewFile(filepath.Join(t.TempDir(), "nope.log")).Fetch(ctx, logpage.Request{Anchor: "1"}); err == nil {
		t.Fatal("context fetch on a missing file should fail")
	}
}

func TestFile_Tail(t *testing.T) {
	path := writeLog(t, 10)
	f := NewFile(path)
	ctx := context.Background()

	page, err := f.Fetch(ctx, logpage.Request{Tail: true, Size: 3})
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if got := textsOf(page.Lines); !reflect.DeepEqual(got, []string{"Line 8", "Line 9", "Line 10"}) {
		t.Fatalf("first poll = %v", got)
	}
	last := page.Lines[2]

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	_, _ = fh.WriteString(`{"seq": 99, "ts": "2025-01-01T00:00:00Z", "msg": "json line", "level": "warn"}` + "\n")
	_, _ = fh.WriteString("Line 12\n")
	_ = fh.Close()

	page, err = f.Fetch(ctx, logpage.Request{Tail: true, After: &last, Size: 10})
	if err != nil {
		t.Fatalf("Fetch error = %v", err)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("second poll = %v", textsOf(page.Lines))
	}
	structured := page.Lines[0]
	if structured.Text != "json line" || structured.Seq != 11 || structured.Attrs["level"] != "warn" {
		t.Fatalf("structured line = %+v", structured)
	}

	missing := NewFile(filepath.Join(t.TempDir(), "later.log"))
	page, err = missing.Fetch(ctx, logpage.Request{Tail: true, Size: 3})
	if err != nil || len(page.Lines) != 0 {
		t.Fatalf("missing file tail = %v, %v; want empty", page.Lines, err)
	}
}
