package window

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/loglens/internal/deque"
	"github.com/five82/loglens/internal/logpage"
)

// Outcome describes what a load did to the window.
type Outcome int

const (
	// OutcomeMerged means the page was merged (possibly with zero lines).
	OutcomeMerged Outcome = iota
	// OutcomeDropped means a fetch in the same direction was already in flight.
	OutcomeDropped
	// OutcomeStale means the response arrived after Reset or Close and was discarded.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDropped:
		return "dropped"
	case OutcomeStale:
		return "stale"
	default:
		return "merged"
	}
}

// Result reports a completed load.
type Result struct {
	Outcome   Outcome
	Direction logpage.Direction
	Added     int
}

// Options configure a Store.
type Options struct {
	Fetcher logpage.Fetcher
	Logger  zerolog.Logger
}

// Store keeps one contiguous window of lines around an anchor and grows it in
// either direction. Lines are stored oldest first; the anchor index splits
// them into before (lines[:anchor]) and after (lines[anchor:]).
type Store struct {
	fetcher logpage.Fetcher
	log     zerolog.Logger

	mu         sync.Mutex
	lines      deque.Deque[logpage.LogLine]
	anchor     int
	anchorKey  string
	prevBegin  int
	nextBegin  int
	anchorMode bool
	ready      bool
	generation uint64
	closed     bool
	inFlight   [3]bool // indexed by logpage.Direction
}

// New returns a Store that pages through fetcher.
func New(opts Options) *Store {
	return &Store{
		fetcher: opts.Fetcher,
		log:     opts.Logger,
	}
}

// Initialize fetches the first page around anchorKey and splits it at the
// page's ZeroIndex. Any previous window is discarded first.
func (s *Store) Initialize(ctx context.Context, anchorKey string, pageSize int) (Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{Outcome: OutcomeStale, Direction: logpage.DirectionInitial}, nil
	}
	s.resetLocked()
	s.anchorKey = anchorKey
	s.anchorMode = true
	s.inFlight[logpage.DirectionInitial] = true
	gen := s.generation
	s.mu.Unlock()

	page, err := s.fetcher.Fetch(ctx, logpage.Request{
		Anchor:    anchorKey,
		Direction: logpage.DirectionInitial,
		Size:      pageSize,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug().Str("anchor", anchorKey).Msg("discarding stale initial page")
		return Result{Outcome: OutcomeStale, Direction: logpage.DirectionInitial}, nil
	}
	s.inFlight[logpage.DirectionInitial] = false
	if err != nil {
		s.anchorMode = false
		s.log.Warn().Err(err).Str("anchor", anchorKey).Msg("initial page fetch failed")
		return Result{Direction: logpage.DirectionInitial}, &logpage.FetchError{Direction: logpage.DirectionInitial, Err: err}
	}
	if !page.HasAnchor() {
		s.anchorMode = false
		s.log.Info().Str("anchor", anchorKey).Int("lines", len(page.Lines)).Msg("anchor not found in initial page")
		return Result{Direction: logpage.DirectionInitial}, fmt.Errorf("anchor %q: %w", anchorKey, logpage.ErrAnchorNotFound)
	}

	k := page.ZeroIndex
	s.lines.PushBack(page.Lines...)
	s.anchor = k
	base := k - page.CountStart
	s.nextBegin = base + (len(page.Lines) - k)
	s.prevBegin = base - k
	s.anchorMode = false
	s.ready = true
	return Result{Outcome: OutcomeMerged, Direction: logpage.DirectionInitial, Added: len(page.Lines)}, nil
}

// LoadOlder fetches the page ending just before prevBegin and prepends it.
// It returns OutcomeDropped without fetching when an older fetch is pending.
func (s *Store) LoadOlder(ctx context.Context, pageSize int) (Result, error) {
	return s.load(ctx, logpage.DirectionOlder, pageSize)
}

// LoadNewer fetches the page starting at nextBegin and appends it.
// It returns OutcomeDropped without fetching when a newer fetch is pending.
func (s *Store) LoadNewer(ctx context.Context, pageSize int) (Result, error) {
	return s.load(ctx, logpage.DirectionNewer, pageSize)
}

func (s *Store) load(ctx context.Context, dir logpage.Direction, pageSize int) (Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{Outcome: OutcomeStale, Direction: dir}, nil
	}
	if s.inFlight[dir] || !s.ready {
		s.mu.Unlock()
		return Result{Outcome: OutcomeDropped, Direction: dir}, nil
	}
	s.inFlight[dir] = true
	gen := s.generation
	begin := s.nextBegin
	if dir == logpage.DirectionOlder {
		begin = s.prevBegin
	}
	req := logpage.Request{Anchor: s.anchorKey, Direction: dir, Begin: begin, Size: pageSize}
	s.mu.Unlock()

	page, err := s.fetcher.Fetch(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug().Str("direction", dir.String()).Msg("discarding stale page")
		return Result{Outcome: OutcomeStale, Direction: dir}, nil
	}
	s.inFlight[dir] = false
	if err != nil {
		s.log.Warn().Err(err).Str("direction", dir.String()).Int("begin", begin).Msg("page fetch failed")
		return Result{Direction: dir}, &logpage.FetchError{Direction: dir, Err: err}
	}

	n := len(page.Lines)
	if dir == logpage.DirectionOlder {
		s.lines.PushFront(page.Lines...)
		s.anchor += n
		s.prevBegin -= n
	} else {
		s.lines.PushBack(page.Lines...)
		s.nextBegin += n
	}
	return Result{Outcome: OutcomeMerged, Direction: dir, Added: n}, nil
}

// Reset clears the window and invalidates every in-flight fetch. It is used
// when the anchor changes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Close invalidates the store permanently; fetches already in flight are
// ignored on arrival.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.closed = true
}

// ResequenceIndexes exists for stores that renumber after filter changes.
// Filtering never mutates the window, so there is nothing to do.
func (s *Store) ResequenceIndexes() {}

func (s *Store) resetLocked() {
	s.generation++
	s.lines.Reset()
	s.anchor = 0
	s.anchorKey = ""
	s.prevBegin = 0
	s.nextBegin = 0
	s.anchorMode = false
	s.ready = false
	s.inFlight = [3]bool{}
}

// Snapshot is a copy of the window taken under the store's lock.
type Snapshot struct {
	Before     []logpage.LogLine // nearest-to-anchor last
	After      []logpage.LogLine // anchor first
	PrevBegin  int
	NextBegin  int
	AnchorKey  string
	AnchorMode bool
	Ready      bool
	Generation uint64
}

// Lines returns Before followed by After, the display order.
func (s Snapshot) Lines() []logpage.LogLine {
	out := make([]logpage.LogLine, 0, len(s.Before)+len(s.After))
	out = append(out, s.Before...)
	return append(out, s.After...)
}

// AnchorIndex returns the anchor's index within Lines, or -1 when the window is empty.
func (s Snapshot) AnchorIndex() int {
	if len(s.After) == 0 {
		return -1
	}
	return len(s.Before)
}

// Snapshot returns a copy of the current window.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Before:     s.lines.Slice(0, s.anchor),
		After:      s.lines.Slice(s.anchor, s.lines.Len()),
		PrevBegin:  s.prevBegin,
		NextBegin:  s.nextBegin,
		AnchorKey:  s.anchorKey,
		AnchorMode: s.anchorMode,
		Ready:      s.ready,
		Generation: s.generation,
	}
}

// Len returns the number of materialized lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Len()
}

// Loading reports whether a fetch in dir is pending.
func (s *Store) Loading(dir logpage.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[dir]
}

// PreserveScroll returns the scroll offset that keeps the previously top-most
// visible line in place after content was inserted above it. Apply it in the
// same update that installs the new content.
func PreserveScroll(oldHeight, newHeight, scrollTop int) int {
	delta := newHeight - oldHeight
	if delta <= 0 {
		return scrollTop
	}
	return scrollTop + delta
}
