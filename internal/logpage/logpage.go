package logpage

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"time"
)

// Direction selects which side of the window a request grows.
type Direction int

const (
	DirectionInitial Direction = iota
	DirectionOlder
	DirectionNewer
)

func (d Direction) String() string {
	switch d {
	case DirectionOlder:
		return "older"
	case DirectionNewer:
		return "newer"
	default:
		return "initial"
	}
}

// LogLine is one fetched record. It is treated as immutable once fetched.
type LogLine struct {
	Seq       uint64 // monotonic cursor when the source provides one
	Timestamp time.Time
	Text      string
	Attrs     map[string]string
}

// Identity returns a key that is equal for the same record across polls.
// Sources without a sequence fall back to content identity, which cannot tell
// apart two textually identical lines with the same timestamp.
func (l LogLine) Identity() string {
	if l.Seq > 0 {
		return "seq:" + strconv.FormatUint(l.Seq, 10)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(l.Timestamp.UTC().Format(time.RFC3339Nano)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(l.Text))
	if len(l.Attrs) > 0 {
		keys := make([]string, 0, len(l.Attrs))
		for k := range l.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = h.Write([]byte{0})
			_, _ = h.Write([]byte(k))
			_, _ = h.Write([]byte{'='})
			_, _ = h.Write([]byte(l.Attrs[k]))
		}
	}
	return "sum:" + strconv.FormatUint(h.Sum64(), 16)
}

// Request asks a Fetcher for one page.
//
// Context mode uses Anchor plus Begin, an offset relative to the anchor line.
// Tail mode sets Tail and uses After, the newest line the caller already
// holds (nil for the first poll).
type Request struct {
	Anchor    string
	Direction Direction
	Begin     int
	Tail      bool
	After     *LogLine
	Size      int
}

// Page is the result of one fetch. ZeroIndex is only meaningful for
// DirectionInitial; a negative value means the anchor was not located.
type Page struct {
	Lines      []LogLine
	ZeroIndex  int
	CountStart int
}

// HasAnchor reports whether the page located the anchor line.
func (p Page) HasAnchor() bool {
	return p.ZeroIndex >= 0 && p.ZeroIndex < len(p.Lines)
}

// Fetcher is the paged log-fetch contract consumed by the viewer core.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (Page, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (Page, error) {
	return f(ctx, req)
}

var (
	// ErrFetchFailed marks a recoverable page fetch failure.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrAnchorNotFound means the initial page did not contain the anchor.
	ErrAnchorNotFound = errors.New("anchor not found")
	// ErrStaleResponse marks a response that arrived after its request was
	// invalidated. It is handled inside the core and never returned to hosts.
	ErrStaleResponse = errors.New("stale response")
)

// FetchError wraps a fetch failure with the direction that failed so the
// caller can retry the same direction.
type FetchError struct {
	Direction Direction
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s page: %v", e.Direction, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Is reports ErrFetchFailed for every FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }
