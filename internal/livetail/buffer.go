package livetail

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/loglens/internal/deque"
	"github.com/five82/loglens/internal/logpage"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxLength    = 2000
	DefaultShiftLength  = 500
	DefaultPageSize     = 200
)

// Options configure a Buffer. Zero values fall back to the defaults above.
type Options struct {
	Fetcher      logpage.Fetcher
	Anchor       string
	MaxLength    int
	ShiftLength  int
	PageSize     int
	PollInterval time.Duration
	Logger       zerolog.Logger
	// OnUpdate is called after every poll with the buffer lock released.
	OnUpdate func(Update)
}

// Update describes the outcome of one poll.
type Update struct {
	Added   int
	Evicted int
	// AutoScroll is the scrolled-to-bottom flag captured before the new lines
	// were appended.
	AutoScroll bool
	Stale      bool
	Skipped    bool
	Err        error
}

// Buffer is a bounded, polled tail of a log stream.
type Buffer struct {
	fetcher  logpage.Fetcher
	anchor   string
	max      int
	shift    int
	size     int
	interval time.Duration
	log      zerolog.Logger
	onUpdate func(Update)

	mu               sync.Mutex
	lines            deque.Deque[logpage.LogLine]
	seen             map[string]struct{}
	lastSeq          uint64
	scrolledToBottom bool
	generation       uint64
	polling          bool
	failures         int
	closed           bool

	running bool
	runID   uint64
	timer   *time.Timer
}

// New returns an empty, stopped buffer.
func New(opts Options) *Buffer {
	b := &Buffer{
		fetcher:          opts.Fetcher,
		anchor:           opts.Anchor,
		max:              opts.MaxLength,
		shift:            opts.ShiftLength,
		size:             opts.PageSize,
		interval:         opts.PollInterval,
		log:              opts.Logger,
		onUpdate:         opts.OnUpdate,
		seen:             make(map[string]struct{}),
		scrolledToBottom: true,
	}
	if b.max <= 0 {
		b.max = DefaultMaxLength
	}
	if b.shift <= 0 || b.shift > b.max {
		b.shift = min(DefaultShiftLength, b.max)
	}
	if b.size <= 0 {
		b.size = DefaultPageSize
	}
	if b.interval <= 0 {
		b.interval = DefaultPollInterval
	}
	return b
}

// Poll fetches lines newer than the last one held, appends those not already
// present and evicts in one batch when the buffer grows past its maximum.
// A poll issued while another is running is skipped.
func (b *Buffer) Poll(ctx context.Context) (Update, error) {
	b.mu.Lock()
	if b.closed || b.polling {
		b.mu.Unlock()
		return Update{Skipped: true}, nil
	}
	b.polling = true
	gen := b.generation
	req := logpage.Request{Anchor: b.anchor, Direction: logpage.DirectionNewer, Tail: true, Size: b.size}
	if n := b.lines.Len(); n > 0 {
		last := b.lines.At(n - 1)
		req.After = &last
	}
	b.mu.Unlock()

	page, err := b.fetcher.Fetch(ctx, req)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		b.log.Debug().Msg("discarding stale tail page")
		return Update{Stale: true}, nil
	}
	b.polling = false
	if err != nil {
		b.failures++
		failures := b.failures
		b.mu.Unlock()
		b.log.Warn().Err(err).Int("failures", failures).Msg("tail poll failed")
		ferr := &logpage.FetchError{Direction: logpage.DirectionNewer, Err: err}
		u := Update{Err: ferr}
		b.notify(u)
		return u, ferr
	}
	b.failures = 0
	u := b.mergeLocked(page.Lines)
	b.mu.Unlock()

	if u.Evicted > 0 {
		b.log.Debug().Int("evicted", u.Evicted).Int("max", b.max).Msg("tail buffer evicted")
	}
	b.notify(u)
	return u, nil
}

func (b *Buffer) mergeLocked(lines []logpage.LogLine) Update {
	u := Update{AutoScroll: b.scrolledToBottom}
	fresh := make([]logpage.LogLine, 0, len(lines))
	for _, line := range lines {
		if line.Seq > 0 {
			if line.Seq <= b.lastSeq {
				continue
			}
			b.lastSeq = line.Seq
		}
		id := line.Identity()
		if _, dup := b.seen[id]; dup {
			continue
		}
		b.seen[id] = struct{}{}
		fresh = append(fresh, line)
	}
	b.lines.PushBack(fresh...)
	u.Added = len(fresh)

	if over := b.lines.Len() - b.max; over > 0 {
		k := min(b.shift, b.lines.Len())
		for _, line := range b.lines.Slice(0, k) {
			delete(b.seen, line.Identity())
		}
		b.lines.DropFront(k)
		u.Evicted = k
	}
	return u
}

func (b *Buffer) notify(u Update) {
	if b.onUpdate != nil {
		b.onUpdate(u)
	}
}

// Start begins polling: one poll right away, then one interval after each
// completion. Calling Start while running does nothing.
func (b *Buffer) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running || b.closed {
		return
	}
	b.running = true
	b.runID++
	b.scheduleLocked(ctx, b.runID, 0)
	b.log.Debug().Dur("interval", b.interval).Msg("tail polling started")
}

// Stop cancels the pending poll. Calling Stop while stopped does nothing.
func (b *Buffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *Buffer) stopLocked() {
	if !b.running {
		return
	}
	b.running = false
	b.runID++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.log.Debug().Msg("tail polling stopped")
}

// scheduleLocked arms exactly one timer for run id. Any previous timer is
// cleared first.
func (b *Buffer) scheduleLocked(ctx context.Context, id uint64, delay time.Duration) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(delay, func() { b.tick(ctx, id) })
}

func (b *Buffer) tick(ctx context.Context, id uint64) {
	if !b.current(id) || ctx.Err() != nil {
		return
	}
	_, _ = b.Poll(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running || b.runID != id || b.closed || ctx.Err() != nil {
		return
	}
	b.scheduleLocked(ctx, id, b.interval)
}

func (b *Buffer) current(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running && b.runID == id && !b.closed
}

// Running reports whether polling is scheduled.
func (b *Buffer) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Reset drops every line and ignores polls already in flight. It is used when
// the query target changes; a running poll loop keeps going.
func (b *Buffer) Reset(anchor string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
	b.anchor = anchor
}

// Close stops polling for good and invalidates in-flight polls.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	b.resetLocked()
	b.closed = true
}

func (b *Buffer) resetLocked() {
	b.generation++
	b.lines.Reset()
	b.seen = make(map[string]struct{})
	b.lastSeq = 0
	b.failures = 0
	b.polling = false
}

// SetScrolledToBottom records whether the viewport sits at the bottom. The
// host calls it on every scroll event.
func (b *Buffer) SetScrolledToBottom(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scrolledToBottom = v
}

// ScrolledToBottom returns the last value passed to SetScrolledToBottom.
func (b *Buffer) ScrolledToBottom() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scrolledToBottom
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []logpage.LogLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines.Items()
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines.Len()
}

// Failures returns the number of consecutive failed polls.
func (b *Buffer) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Interval returns the poll interval in use.
func (b *Buffer) Interval() time.Duration { return b.interval }
