package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/loglens/internal/filter"
)

const (
	filterFieldKeyword = iota
	filterFieldBefore
	filterFieldNext
	filterFieldCount
)

// applyFilterMsg carries the spec confirmed in the filter modal.
type applyFilterMsg struct {
	spec filter.Spec
}

// filterModal edits the keyword and context sizes of the line filter.
type filterModal struct {
	spec   filter.Spec
	inputs [filterFieldCount]textinput.Model
	focus  int
}

func newFilterModal(spec filter.Spec) *filterModal {
	keyword := textinput.New()
	keyword.Placeholder = "e.g. error, request-id"
	keyword.CharLimit = 200
	keyword.Width = 30
	keyword.SetValue(spec.Keyword)

	before := textinput.New()
	before.Placeholder = "0"
	before.CharLimit = 4
	before.Width = 6
	before.SetValue(strconv.Itoa(spec.ContextBefore))

	next := textinput.New()
	next.Placeholder = "0"
	next.CharLimit = 4
	next.Width = 6
	next.SetValue(strconv.Itoa(spec.ContextNext))

	f := &filterModal{spec: spec}
	f.inputs[filterFieldKeyword] = keyword
	f.inputs[filterFieldBefore] = before
	f.inputs[filterFieldNext] = next
	f.inputs[filterFieldKeyword].Focus()
	return f
}

// Update implements Modal.
func (f *filterModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return f, cmd, false
	}

	switch {
	case key.Matches(km, keys.Escape):
		return f, nil, true

	case key.Matches(km, keys.Confirm):
		spec := f.result()
		return f, func() tea.Msg { return applyFilterMsg{spec: spec} }, true

	case key.Matches(km, keys.Tab), km.String() == "down":
		f.move(1)
		return f, nil, false

	case key.Matches(km, keys.ShiftTab), km.String() == "up":
		f.move(-1)
		return f, nil, false

	case km.String() == "ctrl+t":
		if f.spec.Type == filter.Include {
			f.spec.Type = filter.Exclude
		} else {
			f.spec.Type = filter.Include
		}
		return f, nil, false

	case km.String() == "ctrl+c":
		// Clears the fields; the modal swallows ctrl+c instead of quitting.
		f.inputs[filterFieldKeyword].SetValue("")
		f.inputs[filterFieldBefore].SetValue("0")
		f.inputs[filterFieldNext].SetValue("0")
		return f, nil, false
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f *filterModal) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + filterFieldCount) % filterFieldCount
	f.inputs[f.focus].Focus()
}

// result builds the spec from the fields. Unparseable context sizes keep
// their previous value and negative ones become zero.
func (f *filterModal) result() filter.Spec {
	spec := f.spec
	spec.Keyword = strings.TrimSpace(f.inputs[filterFieldKeyword].Value())
	spec.ContextBefore = parseCount(f.inputs[filterFieldBefore].Value(), spec.ContextBefore)
	spec.ContextNext = parseCount(f.inputs[filterFieldNext].Value(), spec.ContextNext)
	return spec
}

func parseCount(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return max(n, 0)
}

// View implements Modal.
func (f *filterModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Filter"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")

	mode := "Include lines containing the keyword."
	if f.spec.Type == filter.Exclude {
		mode = "Exclude lines containing the keyword."
	}
	b.WriteString(styles.MutedText.Render(mode))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Context lines apply to include only. Leave blank to disable."))
	b.WriteString("\n\n")

	labels := [filterFieldCount]string{
		"Keyword:   ",
		"Before:    ",
		"After:     ",
	}
	for i, label := range labels {
		if i == f.focus {
			b.WriteString(styles.AccentText.Render(label))
		} else {
			b.WriteString(styles.MutedText.Render(label))
		}
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n\n")
	}

	caseLabel := "case sensitive"
	if f.spec.IgnoreCase {
		caseLabel = "ignoring case"
	}
	b.WriteString(styles.InfoText.Render(f.spec.Type.String() + ", " + caseLabel))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Enter: Apply  •  Esc: Cancel  •  Ctrl+T: Include/Exclude  •  Ctrl+C: Clear"))

	return placeModal(theme, b.String(), 56, width, height)
}
