package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything loglens reads from config.toml.
type Config struct {
	APIBind           string
	LogFile           string
	PageSize          int
	Tail              TailConfig
	HighlightCapacity int
	DebugLog          string
	LogLevel          string
	RequestTimeout    time.Duration
}

// TailConfig bounds the live tail buffer.
type TailConfig struct {
	MaxLength    int
	ShiftLength  int
	PollInterval time.Duration
}

const (
	defaultConfigPath        = "~/.config/loglens/config.toml"
	defaultAPIBind           = "127.0.0.1:7487"
	defaultPageSize          = 100
	defaultTailMaxLength     = 2000
	defaultTailShiftLength   = 500
	defaultPollInterval      = 5 * time.Second
	defaultHighlightCapacity = 5
	defaultLogLevel          = "info"
	defaultRequestTimeout    = 5 * time.Second
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:  defaultAPIBind,
		PageSize: defaultPageSize,
		Tail: TailConfig{
			MaxLength:    defaultTailMaxLength,
			ShiftLength:  defaultTailShiftLength,
			PollInterval: defaultPollInterval,
		},
		HighlightCapacity: defaultHighlightCapacity,
		LogLevel:          defaultLogLevel,
		RequestTimeout:    defaultRequestTimeout,
	}
}

// Load locates and parses the loglens config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind        string `toml:"api_bind"`
		LogFile        string `toml:"log_file"`
		PageSize       int    `toml:"page_size"`
		DebugLog       string `toml:"debug_log"`
		LogLevel       string `toml:"log_level"`
		RequestTimeout string `toml:"request_timeout"`
		Tail           struct {
			MaxLength    int    `toml:"max_length"`
			ShiftLength  int    `toml:"shift_length"`
			PollInterval string `toml:"poll_interval"`
		} `toml:"tail"`
		Highlight struct {
			Capacity int `toml:"capacity"`
		} `toml:"highlight"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.DebugLog); v != "" {
		cfg.DebugLog = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.Highlight.Capacity > 0 {
		cfg.HighlightCapacity = raw.Highlight.Capacity
	}
	if raw.Tail.MaxLength > 0 {
		cfg.Tail.MaxLength = raw.Tail.MaxLength
	}
	if raw.Tail.ShiftLength > 0 {
		cfg.Tail.ShiftLength = raw.Tail.ShiftLength
	}
	if cfg.Tail.ShiftLength > cfg.Tail.MaxLength {
		cfg.Tail.ShiftLength = min(defaultTailShiftLength, cfg.Tail.MaxLength)
	}
	if cfg.Tail.PollInterval, err = parseDuration(raw.Tail.PollInterval, defaultPollInterval); err != nil {
		return Config{}, fmt.Errorf("parse tail.poll_interval: %w", err)
	}
	if cfg.RequestTimeout, err = parseDuration(raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, fmt.Errorf("parse request_timeout: %w", err)
	}

	return cfg, nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
