package window

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/loglens/internal/logpage"
	"github.com/five82/loglens/internal/logpage/pagetest"
)

func texts(lines []logpage.LogLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestInitialize_SplitsAtZeroIndex(t *testing.T) {
	tests := []struct {
		name string
		n, k int
	}{
		{"anchor first", 10, 0},
		{"anchor middle", 10, 4},
		{"anchor last", 10, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := &pagetest.Script{}
			script.Push(logpage.Page{Lines: pagetest.Lines(0, tt.n), ZeroIndex: tt.k, CountStart: tt.k}, nil)
			s := New(Options{Fetcher: script})

			res, err := s.Initialize(context.Background(), "a", tt.n)
			require.NoError(t, err)
			assert.Equal(t, OutcomeMerged, res.Outcome)

			snap := s.Snapshot()
			assert.Len(t, snap.Before, tt.k)
			require.Len(t, snap.After, tt.n-tt.k)
			assert.Equal(t, "line "+itoa(tt.k), snap.After[0].Text, "after[0] must be the anchor")
		})
	}
}

// prevBegin is the offset of the oldest loaded line relative to the anchor,
// so it equals -len(before) once the window is initialized and moves down by
// each older page. A window that starts at the anchor would report 0 here.
func TestInitialize_Offsets(t *testing.T) {
	script := &pagetest.Script{}
	// Anchor at index 50 of a 100 line page that starts 50 lines before it.
	script.Push(logpage.Page{Lines: pagetest.Lines(0, 100), ZeroIndex: 50, CountStart: 50}, nil)
	script.Push(logpage.Page{Lines: pagetest.Lines(-20, 20), ZeroIndex: -1}, nil)
	s := New(Options{Fetcher: script})

	_, err := s.Initialize(context.Background(), "line 50", 100)
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, 50, snap.NextBegin)
	assert.Equal(t, -50, snap.PrevBegin)
	assert.False(t, snap.AnchorMode)
	assert.Equal(t, 50, snap.AnchorIndex())

	res, err := s.LoadOlder(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Added)

	snap = s.Snapshot()
	assert.Equal(t, -70, snap.PrevBegin)
	assert.Len(t, snap.Before, 70)
	assert.Equal(t, 50, snap.NextBegin)
	assert.Equal(t, "line 50", snap.After[0].Text)

	require.Len(t, script.Requests, 2)
	assert.Equal(t, logpage.DirectionOlder, script.Requests[1].Direction)
	assert.Equal(t, -50, script.Requests[1].Begin)
}

func TestInitialize_CountStartShiftsOffsets(t *testing.T) {
	script := &pagetest.Script{}
	// The page starts 3 lines before the anchor but the anchor sits at index 5:
	// two extra lines are reported before the page begins.
	script.Push(logpage.Page{Lines: pagetest.Lines(0, 8), ZeroIndex: 5, CountStart: 3}, nil)
	s := New(Options{Fetcher: script})

	_, err := s.Initialize(context.Background(), "x", 8)
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, 2+3, snap.NextBegin)
	assert.Equal(t, 2-5, snap.PrevBegin)
}

func TestInitialize_AnchorNotFound(t *testing.T) {
	// A ZeroIndex equal to the page length points past the last line.
	for _, zero := range []int{-1, 10, 11} {
		script := &pagetest.Script{}
		script.Push(logpage.Page{Lines: pagetest.Lines(0, 10), ZeroIndex: zero}, nil)
		s := New(Options{Fetcher: script})

		_, err := s.Initialize(context.Background(), "missing", 10)
		require.ErrorIs(t, err, logpage.ErrAnchorNotFound)
		assert.Equal(t, 0, s.Len())

		res, err := s.LoadNewer(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDropped, res.Outcome, "paging requires a located anchor")
	}
}

func TestLoad_NoDuplicatesAcrossDirections(t *testing.T) {
	src := &pagetest.Source{All: pagetest.Lines(0, 500), Anchor: 250}
	s := New(Options{Fetcher: src})
	ctx := context.Background()

	_, err := s.Initialize(ctx, "line 250", 40)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = s.LoadOlder(ctx, 17)
		require.NoError(t, err)
		_, err = s.LoadNewer(ctx, 23)
		require.NoError(t, err)
	}

	lines := s.Snapshot().Lines()
	seen := make(map[string]bool, len(lines))
	for i, l := range lines {
		require.False(t, seen[l.Text], "duplicate %q", l.Text)
		seen[l.Text] = true
		if i > 0 {
			require.True(t, l.Timestamp.After(lines[i-1].Timestamp), "out of order at %d", i)
		}
	}
	assert.Len(t, lines, 40+5*17+5*23)
	first := 230 - 5*17
	assert.Equal(t, "line "+itoa(first), lines[0].Text)
}

func TestLoad_FailureLeavesWindowUnchanged(t *testing.T) {
	src := &pagetest.Source{All: pagetest.Lines(0, 100), Anchor: 50}
	s := New(Options{Fetcher: src})
	ctx := context.Background()

	_, err := s.Initialize(ctx, "line 50", 10)
	require.NoError(t, err)
	before := s.Snapshot()

	src.Err = errors.New("boom")
	_, err = s.LoadOlder(ctx, 10)
	require.ErrorIs(t, err, logpage.ErrFetchFailed)

	var fe *logpage.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, logpage.DirectionOlder, fe.Direction)

	after := s.Snapshot()
	assert.Equal(t, before.PrevBegin, after.PrevBegin)
	assert.Equal(t, texts(before.Lines()), texts(after.Lines()))
	assert.False(t, s.Loading(logpage.DirectionOlder), "failed fetch must release the direction")

	src.Err = nil
	res, err := s.LoadOlder(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Added)
}

func TestLoad_InFlightSameDirectionIsDropped(t *testing.T) {
	src := &pagetest.Source{All: pagetest.Lines(0, 100), Anchor: 50}
	s := New(Options{Fetcher: src})
	ctx := context.Background()
	_, err := s.Initialize(ctx, "line 50", 10)
	require.NoError(t, err)

	src.Gate = make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	var first Result
	go func() {
		defer wg.Done()
		first, _ = s.LoadOlder(ctx, 10)
	}()
	waitFor(t, func() bool { return src.RequestCount() == 2 })
	require.True(t, s.Loading(logpage.DirectionOlder))

	res, err := s.LoadOlder(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, res.Outcome)
	requests := src.RequestCount()

	// The other direction is independent and may fetch while older is pending.
	newer := make(chan Result, 1)
	go func() {
		r, _ := s.LoadNewer(ctx, 10)
		newer <- r
	}()
	waitFor(t, func() bool { return src.RequestCount() == requests+1 })

	src.Gate <- struct{}{}
	src.Gate <- struct{}{}
	wg.Wait()
	assert.Equal(t, OutcomeMerged, first.Outcome)
	assert.Equal(t, OutcomeMerged, (<-newer).Outcome)
	assert.Equal(t, requests+1, src.RequestCount(), "dropped request must not reach the fetcher")
	assert.Len(t, s.Snapshot().Before, 15)
}

func TestReset_DiscardsStaleResponse(t *testing.T) {
	src := &pagetest.Source{All: pagetest.Lines(0, 100), Anchor: 50}
	s := New(Options{Fetcher: src})
	ctx := context.Background()
	_, err := s.Initialize(ctx, "line 50", 10)
	require.NoError(t, err)

	src.Gate = make(chan struct{})
	done := make(chan Result, 1)
	go func() {
		res, _ := s.LoadNewer(ctx, 10)
		done <- res
	}()
	waitFor(t, func() bool { return s.Loading(logpage.DirectionNewer) })

	s.Reset()
	src.Gate <- struct{}{}
	res := <-done
	assert.Equal(t, OutcomeStale, res.Outcome)
	assert.Equal(t, 0, s.Len())
}

func TestInitialize_SwitchingAnchorDiscardsPendingPage(t *testing.T) {
	src := &pagetest.Source{All: pagetest.Lines(0, 100), Anchor: 50, Gate: make(chan struct{})}
	s := New(Options{Fetcher: src})
	ctx := context.Background()

	first := make(chan Result, 1)
	go func() {
		res, _ := s.Initialize(ctx, "line 50", 10)
		first <- res
	}()
	waitFor(t, func() bool { return src.RequestCount() == 1 })

	second := make(chan Result, 1)
	go func() {
		res, _ := s.Initialize(ctx, "line 60", 10)
		second <- res
	}()
	waitFor(t, func() bool { return src.RequestCount() == 2 })

	src.Gate <- struct{}{}
	src.Gate <- struct{}{}
	assert.Equal(t, OutcomeStale, (<-first).Outcome)
	assert.Equal(t, OutcomeMerged, (<-second).Outcome)

	snap := s.Snapshot()
	assert.Equal(t, "line 60", snap.AnchorKey)
	assert.Len(t, snap.Lines(), 10)
	assert.Equal(t, "line 50", snap.After[0].Text)
}

func TestClose_IgnoresEverything(t *testing.T) {
	src := &pagetest.Source{All: pagetest.Lines(0, 100), Anchor: 50}
	s := New(Options{Fetcher: src})
	s.Close()

	res, err := s.Initialize(context.Background(), "line 50", 10)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, res.Outcome)
	assert.Equal(t, 0, src.RequestCount())
}

func TestPreserveScroll(t *testing.T) {
	assert.Equal(t, 35, PreserveScroll(100, 120, 15))
	assert.Equal(t, 15, PreserveScroll(100, 100, 15))
	assert.Equal(t, 15, PreserveScroll(100, 90, 15))
}
