package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/loglens/internal/config"
	"github.com/five82/loglens/internal/filter"
	"github.com/five82/loglens/internal/logging"
	"github.com/five82/loglens/internal/logpage"
	"github.com/five82/loglens/internal/logsource"
	"github.com/five82/loglens/internal/prefs"
	"github.com/five82/loglens/internal/state"
	"github.com/five82/loglens/internal/ui"
	"github.com/five82/loglens/internal/viewer"
)

// Options configure a loglens run. Zero values fall back to config.toml.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/loglens/prefs.toml
	Anchor     string
	Tail       bool
	File       string // read a local file instead of the API
	APIBind    string
	PollEvery  int // seconds; zero uses tail.poll_interval
	Print      bool
	Stdout     io.Writer // print mode output; nil uses os.Stdout
}

// Run boots loglens until the user exits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)

	logger, closer, err := logging.New(cfg.DebugLog, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", prefsPath).Msg("load prefs failed; using defaults")
	}

	src, label, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("init log source: %w", err)
	}

	v := newViewer(cfg, userPrefs, src, logger)
	defer v.Close()
	if client, ok := src.(*logsource.Client); ok {
		client.SetSession(v.ID())
	}
	logger.Info().Str("source", label).Str("anchor", opts.Anchor).Bool("print", opts.Print).Msg("loglens starting")

	if opts.Print {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		return printWindow(ctx, v, opts.Anchor, out)
	}

	g, gctx := errgroup.WithContext(ctx)
	uiDone := make(chan struct{})
	g.Go(func() error {
		defer close(uiDone)
		return ui.Run(ui.Options{
			Context:   gctx,
			Viewer:    v,
			Anchor:    opts.Anchor,
			Tail:      opts.Tail,
			Source:    label,
			Prefs:     userPrefs,
			PrefsPath: prefsPath,
			Logger:    logger,
		})
	})
	// Stop the tail timer as soon as either side finishes so no poll
	// outlives the program.
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-uiDone:
		}
		v.Close()
		return nil
	})
	return g.Wait()
}

// applyOverrides layers command-line options over the loaded config. An
// explicit -api wins over a log_file from config.
func applyOverrides(cfg *config.Config, opts Options) {
	if v := strings.TrimSpace(opts.APIBind); v != "" {
		cfg.APIBind = v
		cfg.LogFile = ""
	}
	if v := strings.TrimSpace(opts.File); v != "" {
		cfg.LogFile = v
	}
	if opts.PollEvery > 0 {
		cfg.Tail.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
}

// newSource returns the fetcher for cfg and a label for the header.
func newSource(cfg config.Config) (logpage.Fetcher, string, error) {
	if cfg.LogFile != "" {
		path, err := config.ExpandPath(cfg.LogFile)
		if err != nil {
			return nil, "", fmt.Errorf("expand log file path: %w", err)
		}
		return logsource.NewFile(path), path, nil
	}
	client, err := logsource.NewClient(cfg.APIBind, cfg.RequestTimeout)
	if err != nil {
		return nil, "", err
	}
	return client, cfg.APIBind, nil
}

func newViewer(cfg config.Config, p prefs.Prefs, src logpage.Fetcher, logger zerolog.Logger) *viewer.Viewer {
	v := viewer.New(viewer.Options{
		Fetcher:           src,
		PageSize:          cfg.PageSize,
		TailMaxLength:     cfg.Tail.MaxLength,
		TailShiftLength:   cfg.Tail.ShiftLength,
		TailPageSize:      cfg.PageSize,
		PollInterval:      cfg.Tail.PollInterval,
		HighlightCapacity: cfg.HighlightCapacity,
		Filter:            initialFilter(p),
		Health:            &state.Store{},
		Logger:            logger,
	})
	for _, term := range p.Highlights {
		if !v.AddTerm(term) {
			logger.Debug().Str("term", term).Msg("saved highlight term skipped")
		}
	}
	return v
}

// initialFilter restores the saved filter settings. The keyword is not
// persisted, so the filter starts inactive.
func initialFilter(p prefs.Prefs) filter.Spec {
	spec := filter.Spec{
		IgnoreCase:    p.IgnoreCase,
		ContextBefore: max(p.ContextBefore, 0),
		ContextNext:   max(p.ContextNext, 0),
	}
	if strings.EqualFold(strings.TrimSpace(p.FilterType), filter.Exclude.String()) {
		spec.Type = filter.Exclude
	}
	return spec
}
