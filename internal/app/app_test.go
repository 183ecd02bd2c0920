package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/five82/loglens/internal/config"
	"github.com/five82/loglens/internal/filter"
	"github.com/five82/loglens/internal/prefs"
)

func writeFixture(t *testing.T, lines int, highlights ...string) (configPath, prefsPath string) {
	t.Helper()
	dir := t.TempDir()

	var content strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&content, "Line %d\n", i)
	}
	logPath := filepath.Join(dir, "app.log")
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	configPath = filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("log_file = %q\npage_size = 10\n", logPath)
	if err := os.WriteFile(configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prefsPath = filepath.Join(dir, "prefs.toml")
	if err := prefs.Save(prefsPath, prefs.Prefs{Theme: "Slate", Highlights: highlights}); err != nil {
		t.Fatalf("save prefs: %v", err)
	}
	return configPath, prefsPath
}

func disableColor(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func TestRunPrint_WritesAnchorWindow(t *testing.T) {
	disableColor(t)
	configPath, prefsPath := writeFixture(t, 30, "Line 1")

	var out bytes.Buffer
	err := Run(context.Background(), Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		Anchor:     "15",
		Print:      true,
		Stdout:     &out,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("got %d output lines, want 11:\n%s", len(lines), out.String())
	}
	if lines[0] != "  Line 10" {
		t.Fatalf("first line = %q, want %q", lines[0], "  Line 10")
	}
	if lines[5] != "▶ Line 15" {
		t.Fatalf("anchor line = %q, want %q", lines[5], "▶ Line 15")
	}
	if want := "-- 10 of 10 lines, 10 matches"; lines[10] != want {
		t.Fatalf("summary = %q, want %q", lines[10], want)
	}
}

func TestRunPrint_AnchorNotFound(t *testing.T) {
	disableColor(t)
	configPath, prefsPath := writeFixture(t, 5)

	var out bytes.Buffer
	err := Run(context.Background(), Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		Anchor:     "no such line",
		Print:      true,
		Stdout:     &out,
	})
	if err == nil || !strings.Contains(err.Error(), "open anchor") {
		t.Fatalf("Run() error = %v, want open anchor failure", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunPrint_RequiresAnchor(t *testing.T) {
	configPath, prefsPath := writeFixture(t, 5)

	err := Run(context.Background(), Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		Print:      true,
		Stdout:     &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "-anchor") {
		t.Fatalf("Run() error = %v, want missing anchor error", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("page_size = [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	err := Run(context.Background(), Options{ConfigPath: path, Print: true})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("Run() error = %v, want load config failure", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = "/var/log/app.log"

	applyOverrides(&cfg, Options{APIBind: "10.0.0.1:9000", PollEvery: 3})
	if cfg.APIBind != "10.0.0.1:9000" || cfg.LogFile != "" {
		t.Fatalf("api override = %q/%q, want api and no file", cfg.APIBind, cfg.LogFile)
	}
	if cfg.Tail.PollInterval != 3*time.Second {
		t.Fatalf("PollInterval = %v, want 3s", cfg.Tail.PollInterval)
	}

	applyOverrides(&cfg, Options{File: "/tmp/other.log"})
	if cfg.LogFile != "/tmp/other.log" {
		t.Fatalf("LogFile = %q, want /tmp/other.log", cfg.LogFile)
	}
}

func TestInitialFilter(t *testing.T) {
	tests := []struct {
		name  string
		prefs prefs.Prefs
		want  filter.Spec
	}{
		{"defaults", prefs.Prefs{}, filter.Spec{}},
		{"exclude", prefs.Prefs{FilterType: " Exclude "}, filter.Spec{Type: filter.Exclude}},
		{
			"context and case",
			prefs.Prefs{IgnoreCase: true, ContextBefore: 2, ContextNext: -1},
			filter.Spec{IgnoreCase: true, ContextBefore: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := initialFilter(tt.prefs)
			if got != tt.want {
				t.Fatalf("initialFilter() = %+v, want %+v", got, tt.want)
			}
			if got.Active() {
				t.Fatalf("initialFilter() should start inactive")
			}
		})
	}
}

func TestNewViewer_RestoresHighlights(t *testing.T) {
	cfg := config.Default()
	cfg.HighlightCapacity = 2
	src, _, err := newSource(config.Config{LogFile: filepath.Join(t.TempDir(), "missing.log")})
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}

	v := newViewer(cfg, prefs.Prefs{Highlights: []string{"a", "b", "c"}}, src, zerolog.Nop())
	defer v.Close()

	terms := v.Highlights().Terms()
	if len(terms) != 2 || terms[0].Key != "a" || terms[1].Key != "b" {
		t.Fatalf("terms = %+v, want [a b]", terms)
	}
}
