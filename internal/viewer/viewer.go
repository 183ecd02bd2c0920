// Package viewer composes the window, tail, filter and highlight engines into
// the single object a host UI drives.
package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/five82/loglens/internal/filter"
	"github.com/five82/loglens/internal/highlight"
	"github.com/five82/loglens/internal/livetail"
	"github.com/five82/loglens/internal/logpage"
	"github.com/five82/loglens/internal/state"
	"github.com/five82/loglens/internal/window"
)

// Mode selects which buffer backs the materialized lines.
type Mode int

const (
	ModeContext Mode = iota
	ModeTail
)

func (m Mode) String() string {
	if m == ModeTail {
		return "tail"
	}
	return "context"
}

// ChangeKind says what changed in a Change notification.
type ChangeKind int

const (
	ChangeLines ChangeKind = iota
	ChangeFilter
	ChangeHighlight
	ChangeFailed
)

// Change is delivered to subscribers whenever the materialized line list or
// its decoration changes.
type Change struct {
	Kind       ChangeKind
	Mode       Mode
	Direction  logpage.Direction
	Added      int
	Evicted    int
	AutoScroll bool
	Err        error
}

// Options configure a Viewer.
type Options struct {
	Fetcher           logpage.Fetcher
	PageSize          int
	TailMaxLength     int
	TailShiftLength   int
	TailPageSize      int
	PollInterval      time.Duration
	HighlightCapacity int
	Filter            filter.Spec
	Health            *state.Store
	Logger            zerolog.Logger
}

// VisibleLine is a line that passed the filter together with its index in
// the unfiltered list.
type VisibleLine struct {
	Index int
	Line  logpage.LogLine
}

// Viewer is one viewing session over a log stream.
type Viewer struct {
	id       string
	pageSize int
	log      zerolog.Logger
	health   *state.Store

	store     *window.Store
	tail      *livetail.Buffer
	filter    *filter.Engine
	highlight *highlight.Engine

	mu      sync.Mutex
	mode    Mode
	anchor  string
	subs    map[int]func(Change)
	nextSub int
}

// New builds a viewer. It fetches nothing until Open or StartTail.
func New(opts Options) *Viewer {
	id := uuid.NewString()
	logger := opts.Logger.With().Str("session", id).Logger()
	health := opts.Health
	if health == nil {
		health = &state.Store{}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	v := &Viewer{
		id:        id,
		pageSize:  pageSize,
		log:       logger,
		health:    health,
		store:     window.New(window.Options{Fetcher: opts.Fetcher, Logger: logger}),
		filter:    filter.NewEngine(opts.Filter),
		highlight: highlight.NewEngine(opts.HighlightCapacity, logger),
		subs:      make(map[int]func(Change)),
	}
	v.tail = livetail.New(livetail.Options{
		Fetcher:      opts.Fetcher,
		MaxLength:    opts.TailMaxLength,
		ShiftLength:  opts.TailShiftLength,
		PageSize:     opts.TailPageSize,
		PollInterval: opts.PollInterval,
		Logger:       logger,
		OnUpdate:     v.onTailUpdate,
	})
	return v
}

// ID identifies the session in logs and request headers.
func (v *Viewer) ID() string { return v.id }

// Open switches to context mode and loads the first page around anchor.
// ErrAnchorNotFound is returned when the source cannot locate it.
func (v *Viewer) Open(ctx context.Context, anchor string) error {
	v.mu.Lock()
	v.mode = ModeContext
	v.anchor = anchor
	v.mu.Unlock()

	v.tail.Stop()
	v.health.Reset()
	res, err := v.store.Initialize(ctx, anchor, v.pageSize)
	return v.finish(res, err)
}

// LoadOlder grows the window upward by one page.
func (v *Viewer) LoadOlder(ctx context.Context) (window.Result, error) {
	res, err := v.store.LoadOlder(ctx, v.pageSize)
	return res, v.finish(res, err)
}

// LoadNewer grows the window downward by one page.
func (v *Viewer) LoadNewer(ctx context.Context) (window.Result, error) {
	res, err := v.store.LoadNewer(ctx, v.pageSize)
	return res, v.finish(res, err)
}

func (v *Viewer) finish(res window.Result, err error) error {
	if res.Outcome != window.OutcomeMerged && err == nil {
		return nil
	}
	v.health.Record(res.Direction, res.Added, err)
	if err != nil {
		v.emit(Change{Kind: ChangeFailed, Mode: ModeContext, Direction: res.Direction, Err: err})
		return err
	}
	v.emit(Change{Kind: ChangeLines, Mode: ModeContext, Direction: res.Direction, Added: res.Added})
	return nil
}

// StartTail switches to tail mode and starts polling. Calling it again while
// already tailing resumes polling without dropping lines.
func (v *Viewer) StartTail(ctx context.Context) {
	v.mu.Lock()
	switching := v.mode != ModeTail
	v.mode = ModeTail
	anchor := v.anchor
	v.mu.Unlock()

	if switching {
		v.store.Reset()
		v.tail.Reset(anchor)
		v.health.Reset()
	}
	v.tail.Start(ctx)
}

// StopTail pauses polling. Lines already buffered stay.
func (v *Viewer) StopTail() {
	v.tail.Stop()
}

// Tailing reports whether the tail poll loop is running.
func (v *Viewer) Tailing() bool { return v.tail.Running() }

// SetScrolledToBottom forwards the viewport position to the tail buffer.
func (v *Viewer) SetScrolledToBottom(atBottom bool) {
	v.tail.SetScrolledToBottom(atBottom)
}

func (v *Viewer) onTailUpdate(u livetail.Update) {
	if u.Stale || u.Skipped {
		return
	}
	v.health.Record(logpage.DirectionNewer, u.Added, u.Err)
	if u.Err != nil {
		v.emit(Change{Kind: ChangeFailed, Mode: ModeTail, Direction: logpage.DirectionNewer, Err: u.Err})
		return
	}
	if u.Added == 0 && u.Evicted == 0 {
		return
	}
	v.emit(Change{
		Kind:       ChangeLines,
		Mode:       ModeTail,
		Direction:  logpage.DirectionNewer,
		Added:      u.Added,
		Evicted:    u.Evicted,
		AutoScroll: u.AutoScroll,
	})
}

// Close stops polling and invalidates every fetch in flight.
func (v *Viewer) Close() {
	v.tail.Close()
	v.store.Close()
	v.mu.Lock()
	v.subs = make(map[int]func(Change))
	v.mu.Unlock()
	v.log.Debug().Msg("viewer closed")
}

// Mode returns the current mode.
func (v *Viewer) Mode() Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// Anchor returns the anchor the viewer was opened with.
func (v *Viewer) Anchor() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.anchor
}

// Lines returns the materialized, unfiltered lines in display order.
func (v *Viewer) Lines() []logpage.LogLine {
	if v.Mode() == ModeTail {
		return v.tail.Lines()
	}
	return v.store.Snapshot().Lines()
}

// AnchorIndex returns the anchor's index within Lines, or -1 in tail mode or
// before the window is ready.
func (v *Viewer) AnchorIndex() int {
	if v.Mode() == ModeTail {
		return -1
	}
	return v.store.Snapshot().AnchorIndex()
}

// Visible returns the lines that pass the current filter.
func (v *Viewer) Visible() []VisibleLine {
	lines := v.Lines()
	idx := v.filter.Indexes(lines)
	out := make([]VisibleLine, len(idx))
	for i, j := range idx {
		out[i] = VisibleLine{Index: j, Line: lines[j]}
	}
	return out
}

// VisibleLineCount returns the number of lines that pass the current filter.
func (v *Viewer) VisibleLineCount() int {
	return len(v.filter.Indexes(v.Lines()))
}

// Loading reports whether a context fetch in dir is pending.
func (v *Viewer) Loading(dir logpage.Direction) bool {
	return v.store.Loading(dir)
}

// Health returns the fetch health snapshot.
func (v *Viewer) Health() state.Snapshot { return v.health.Snapshot() }

// Filter returns the current filter spec.
func (v *Viewer) Filter() filter.Spec { return v.filter.Spec() }

// SetFilter replaces the filter spec and notifies subscribers.
func (v *Viewer) SetFilter(spec filter.Spec) {
	v.filter.Set(spec)
	v.emit(Change{Kind: ChangeFilter, Mode: v.Mode()})
}

// ToggleIgnoreCase flips filter case sensitivity.
func (v *Viewer) ToggleIgnoreCase() bool {
	on := v.filter.ToggleIgnoreCase()
	v.emit(Change{Kind: ChangeFilter, Mode: v.Mode()})
	return on
}

// ToggleFilterType flips between include and exclude.
func (v *Viewer) ToggleFilterType() filter.Type {
	t := v.filter.ToggleType()
	v.emit(Change{Kind: ChangeFilter, Mode: v.Mode()})
	return t
}

// Highlights exposes the highlight engine for navigation and rendering.
func (v *Viewer) Highlights() *highlight.Engine { return v.highlight }

// AddTerm registers a highlight term.
func (v *Viewer) AddTerm(key string) bool {
	if !v.highlight.Add(key) {
		return false
	}
	v.emit(Change{Kind: ChangeHighlight, Mode: v.Mode()})
	return true
}

// RemoveTerm unregisters a highlight term.
func (v *Viewer) RemoveTerm(key string) bool {
	if !v.highlight.Remove(key) {
		return false
	}
	v.emit(Change{Kind: ChangeHighlight, Mode: v.Mode()})
	return true
}

// ScrollToOccurrence activates the 1-based occurrence i on the attached
// surface. The index is clamped.
func (v *Viewer) ScrollToOccurrence(i int) (int, bool) {
	return v.highlight.JumpTo(i)
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs on the goroutine that caused the change.
func (v *Viewer) Subscribe(fn func(Change)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *Viewer) emit(c Change) {
	v.mu.Lock()
	fns := make([]func(Change), 0, len(v.subs))
	for i := 0; i < v.nextSub; i++ {
		if fn, ok := v.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	v.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// IsAnchorNotFound reports whether err means the anchor could not be located.
func IsAnchorNotFound(err error) bool {
	return errors.Is(err, logpage.ErrAnchorNotFound)
}
