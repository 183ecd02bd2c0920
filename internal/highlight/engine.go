package highlight

import (
	"sync"

	"github.com/rs/zerolog"
)

// DefaultCapacity is the number of concurrent terms, one per palette color.
const DefaultCapacity = 5

// Term is a registered highlight keyword and its palette slot.
type Term struct {
	Key        string
	ColorIndex int
}

// Occurrence is one rendered instance of a term. Row is the position on the
// render surface; LineKey identifies the underlying log line so the same
// occurrence can be recognised after rows shift.
type Occurrence struct {
	Term    string
	Row     int
	LineKey string
	Start   int
	End     int
}

func (o Occurrence) sameAs(other Occurrence) bool {
	return o.Term == other.Term && o.LineKey == other.LineKey && o.Start == other.Start
}

// Surface is the rendering capability the engine navigates over.
type Surface interface {
	// Occurrences returns every decorated occurrence in document order.
	Occurrences() []Occurrence
	// Activate scrolls occ into view and gives it the active shade. index is 1-based.
	Activate(index int, occ Occurrence)
}

// Engine registers terms, assigns colors and owns navigation arithmetic.
type Engine struct {
	mu       sync.Mutex
	capacity int
	terms    []Term
	surface  Surface
	occs     []Occurrence
	current  int // 1-based; 0 when there are no occurrences
	log      zerolog.Logger
}

// NewEngine returns an engine that accepts at most capacity terms.
// A non-positive capacity uses DefaultCapacity.
func NewEngine(capacity int, logger zerolog.Logger) *Engine {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Engine{capacity: capacity, log: logger}
}

// SetSurface attaches the render surface used by Locate and navigation.
func (e *Engine) SetSurface(s Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = s
}

// Capacity returns the maximum number of concurrent terms.
func (e *Engine) Capacity() int { return e.capacity }

// Add registers key with the lowest unused color index. It returns false for
// empty keys, duplicates, or when the engine is full.
func (e *Engine) Add(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if key == "" || e.indexOf(key) >= 0 || len(e.terms) >= e.capacity {
		return false
	}
	used := make([]bool, e.capacity)
	for _, t := range e.terms {
		used[t.ColorIndex] = true
	}
	color := 0
	for color < e.capacity && used[color] {
		color++
	}
	e.terms = append(e.terms, Term{Key: key, ColorIndex: color})
	e.log.Debug().Str("term", key).Int("color", color).Msg("highlight term added")
	return true
}

// Remove unregisters key, freeing its color index.
func (e *Engine) Remove(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(key)
	if i < 0 {
		return false
	}
	e.terms = append(e.terms[:i], e.terms[i+1:]...)
	return true
}

// Clear removes every term and forgets occurrences.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.terms = nil
	e.occs = nil
	e.current = 0
}

// Terms returns the registered terms in registration order.
func (e *Engine) Terms() []Term {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

// ColorIndex returns the palette slot for key.
func (e *Engine) ColorIndex(key string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(key); i >= 0 {
		return e.terms[i].ColorIndex, true
	}
	return 0, false
}

func (e *Engine) indexOf(key string) int {
	for i, t := range e.terms {
		if t.Key == key {
			return i
		}
	}
	return -1
}

// Locate re-scans the surface. It must run whenever the rendered line set
// changes. The current index follows the same logical occurrence when it is
// still rendered, otherwise the nearest occurrence of the same term, otherwise
// the nearest occurrence of any term.
func (e *Engine) Locate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.surface == nil {
		e.occs = nil
		e.current = 0
		return 0
	}

	var prev *Occurrence
	if e.current > 0 && e.current <= len(e.occs) {
		p := e.occs[e.current-1]
		prev = &p
	}
	old := e.occs
	e.occs = e.surface.Occurrences()
	switch {
	case len(e.occs) == 0:
		e.current = 0
	case prev == nil:
		e.current = 1
	default:
		moved := *prev
		moved.Row += rowShift(old, e.occs, prev.Row)
		e.current = nearest(e.occs, moved) + 1
	}
	return len(e.occs)
}

// rowShift estimates how far rows near prevRow moved between two scans,
// using the still-rendered line closest to prevRow. Prepending lines shifts
// every row down, so raw row numbers from the old scan are not comparable.
func rowShift(old, cur []Occurrence, prevRow int) int {
	rows := make(map[string]int, len(cur))
	for _, o := range cur {
		if _, ok := rows[o.LineKey]; !ok {
			rows[o.LineKey] = o.Row
		}
	}
	shift, bestDist := 0, -1
	for _, o := range old {
		row, ok := rows[o.LineKey]
		if !ok {
			continue
		}
		if d := abs(o.Row - prevRow); bestDist < 0 || d < bestDist {
			shift, bestDist = row-o.Row, d
		}
	}
	return shift
}

// nearest picks the index in occs that best continues prev.
func nearest(occs []Occurrence, prev Occurrence) int {
	for i, o := range occs {
		if o.sameAs(prev) {
			return i
		}
	}
	best, bestTerm := -1, -1
	bestDist, bestTermDist := 0, 0
	for i, o := range occs {
		d := abs(o.Row - prev.Row)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
		if o.Term == prev.Term && (bestTerm < 0 || d < bestTermDist) {
			bestTerm, bestTermDist = i, d
		}
	}
	if bestTerm >= 0 {
		return bestTerm
	}
	return best
}

// Count returns the number of located occurrences.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.occs)
}

// Current returns the 1-based current index and its occurrence.
func (e *Engine) Current() (int, Occurrence, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == 0 {
		return 0, Occurrence{}, false
	}
	return e.current, e.occs[e.current-1], true
}

// JumpTo moves to the 1-based index i, clamped to [1, Count]. An explicit
// jump never wraps.
func (e *Engine) JumpTo(i int) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.occs) == 0 {
		return 0, false
	}
	e.current = min(max(i, 1), len(e.occs))
	e.activate()
	return e.current, true
}

// Next moves forward one occurrence. Moving past the last wraps to 1; this
// differs from JumpTo on purpose.
func (e *Engine) Next() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.occs) == 0 {
		return 0, false
	}
	if e.current >= len(e.occs) {
		e.current = 1
	} else {
		e.current++
	}
	e.activate()
	return e.current, true
}

// Prev moves back one occurrence and stops at 1.
func (e *Engine) Prev() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.occs) == 0 {
		return 0, false
	}
	e.current = max(e.current-1, 1)
	e.activate()
	return e.current, true
}

// UpDisabled reports whether the current occurrence is the first one.
func (e *Engine) UpDisabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.occs) == 0 || e.current <= 1
}

// DownDisabled reports whether the current occurrence is the last one.
func (e *Engine) DownDisabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.occs) == 0 || e.current >= len(e.occs)
}

func (e *Engine) activate() {
	if e.surface != nil {
		e.surface.Activate(e.current, e.occs[e.current-1])
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
