// Package filter decides which materialized lines are visible for an
// include/exclude keyword, with context expansion around include matches.
package filter

import (
	"strings"
	"sync"

	"github.com/five82/loglens/internal/logpage"
)

// Type selects include or exclude filtering.
type Type int

const (
	Include Type = iota
	Exclude
)

func (t Type) String() string {
	if t == Exclude {
		return "exclude"
	}
	return "include"
}

// Spec describes one filter. ContextBefore and ContextNext only apply to Include.
type Spec struct {
	Type          Type
	Keyword       string
	IgnoreCase    bool
	ContextBefore int
	ContextNext   int
}

// Active reports whether the spec filters anything. An empty keyword disables
// filtering for both types.
func (s Spec) Active() bool {
	return s.Keyword != ""
}

// Matches reports whether text contains the spec's keyword.
func (s Spec) Matches(text string) bool {
	if !s.Active() {
		return false
	}
	if s.IgnoreCase {
		return strings.Contains(strings.ToLower(text), strings.ToLower(s.Keyword))
	}
	return strings.Contains(text, s.Keyword)
}

// Indexes returns the positions in lines that are visible under spec, in
// ascending order. Overlapping context windows are merged.
func Indexes(lines []logpage.LogLine, spec Spec) []int {
	out := make([]int, 0, len(lines))
	if !spec.Active() {
		for i := range lines {
			out = append(out, i)
		}
		return out
	}

	if spec.Type == Exclude {
		for i, line := range lines {
			if !spec.Matches(line.Text) {
				out = append(out, i)
			}
		}
		return out
	}

	before := max(spec.ContextBefore, 0)
	next := max(spec.ContextNext, 0)
	// next index not yet emitted; windows are emitted in order so a single
	// watermark is enough to merge overlaps.
	emitted := 0
	for i, line := range lines {
		if !spec.Matches(line.Text) {
			continue
		}
		start := max(i-before, emitted)
		end := min(i+next, len(lines)-1)
		for j := start; j <= end; j++ {
			out = append(out, j)
		}
		emitted = max(emitted, end+1)
	}
	return out
}

// Apply returns the visible lines under spec. With an empty keyword the input
// is returned unmodified.
func Apply(lines []logpage.LogLine, spec Spec) []logpage.LogLine {
	if !spec.Active() {
		return lines
	}
	idx := Indexes(lines, spec)
	out := make([]logpage.LogLine, len(idx))
	for i, j := range idx {
		out[i] = lines[j]
	}
	return out
}

// Engine owns the current spec. Every change re-applies against the full
// unfiltered source passed to Apply, never against a previous result.
type Engine struct {
	mu   sync.RWMutex
	spec Spec
}

// NewEngine returns an engine starting from spec.
func NewEngine(spec Spec) *Engine {
	return &Engine{spec: spec}
}

// Spec returns the current spec.
func (e *Engine) Spec() Spec {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.spec
}

// Set replaces the whole spec.
func (e *Engine) Set(spec Spec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spec = spec
}

// SetKeyword changes the keyword; an empty keyword disables filtering.
func (e *Engine) SetKeyword(keyword string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spec.Keyword = keyword
}

// ToggleType flips between include and exclude.
func (e *Engine) ToggleType() Type {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spec.Type == Include {
		e.spec.Type = Exclude
	} else {
		e.spec.Type = Include
	}
	return e.spec.Type
}

// ToggleIgnoreCase flips case sensitivity.
func (e *Engine) ToggleIgnoreCase() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spec.IgnoreCase = !e.spec.IgnoreCase
	return e.spec.IgnoreCase
}

// SetContext sets the include-mode context window.
func (e *Engine) SetContext(before, next int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spec.ContextBefore = max(before, 0)
	e.spec.ContextNext = max(next, 0)
}

// Apply filters source with the current spec.
func (e *Engine) Apply(source []logpage.LogLine) []logpage.LogLine {
	return Apply(source, e.Spec())
}

// Indexes returns the visible positions in source with the current spec.
func (e *Engine) Indexes(source []logpage.LogLine) []int {
	return Indexes(source, e.Spec())
}
