// Package pagetest provides an in-memory logpage.Fetcher for tests.
package pagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/five82/loglens/internal/logpage"
)

// Lines builds n lines with Text "line <i>" for i in [start, start+n).
func Lines(start, n int) []logpage.LogLine {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]logpage.LogLine, n)
	for i := range out {
		idx := start + i
		out[i] = logpage.LogLine{
			Timestamp: base.Add(time.Duration(idx) * time.Second),
			Text:      fmt.Sprintf("line %d", idx),
		}
	}
	return out
}

// Source serves context-mode pages over a fixed slice of lines. Offsets are
// relative to the anchor's index in All.
type Source struct {
	mu     sync.Mutex
	All    []logpage.LogLine
	Anchor int

	// Err, when set, is returned by every Fetch instead of a page.
	Err error
	// Gate, when set, blocks each Fetch until it receives a value.
	Gate chan struct{}

	Requests []logpage.Request
}

// Fetch implements logpage.Fetcher.
func (s *Source) Fetch(ctx context.Context, req logpage.Request) (logpage.Page, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	gate := s.Gate
	err := s.Err
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return logpage.Page{}, ctx.Err()
		}
	}
	if err != nil {
		return logpage.Page{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.Direction {
	case logpage.DirectionInitial:
		half := req.Size / 2
		start := max(s.Anchor-half, 0)
		end := min(start+req.Size, len(s.All))
		return logpage.Page{
			Lines:      clone(s.All[start:end]),
			ZeroIndex:  s.Anchor - start,
			CountStart: s.Anchor - start,
		}, nil
	case logpage.DirectionOlder:
		end := s.Anchor + req.Begin
		start := max(end-req.Size, 0)
		if end <= 0 {
			return logpage.Page{ZeroIndex: -1}, nil
		}
		return logpage.Page{Lines: clone(s.All[start:end]), ZeroIndex: -1}, nil
	default:
		start := s.Anchor + req.Begin
		if start >= len(s.All) {
			return logpage.Page{ZeroIndex: -1}, nil
		}
		end := min(start+req.Size, len(s.All))
		return logpage.Page{Lines: clone(s.All[start:end]), ZeroIndex: -1}, nil
	}
}

// RequestCount returns how many fetches were issued.
func (s *Source) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// Script replays queued pages in order, one per Fetch.
type Script struct {
	mu       sync.Mutex
	Pages    []logpage.Page
	Errs     []error
	Requests []logpage.Request
}

// Push queues a page (and optional error) for the next Fetch.
func (s *Script) Push(page logpage.Page, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pages = append(s.Pages, page)
	s.Errs = append(s.Errs, err)
}

// Fetch implements logpage.Fetcher.
func (s *Script) Fetch(_ context.Context, req logpage.Request) (logpage.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if len(s.Pages) == 0 {
		return logpage.Page{ZeroIndex: -1}, nil
	}
	page, err := s.Pages[0], s.Errs[0]
	s.Pages, s.Errs = s.Pages[1:], s.Errs[1:]
	return page, err
}

func clone(lines []logpage.LogLine) []logpage.LogLine {
	out := make([]logpage.LogLine, len(lines))
	copy(out, lines)
	return out
}
