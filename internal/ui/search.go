package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// addTermMsg carries a highlight term entered in the term modal.
type addTermMsg struct {
	term string
}

// termModal reads one highlight term.
type termModal struct {
	input textinput.Model
	used  int
	limit int
}

func newTermModal(used, limit int) *termModal {
	ti := textinput.New()
	ti.Placeholder = "Highlight term..."
	ti.CharLimit = 100
	ti.Width = 36
	ti.Focus()
	return &termModal{input: ti, used: used, limit: limit}
}

// Update implements Modal.
func (t *termModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return t, nil, true
		case key.Matches(km, keys.Confirm):
			term := t.input.Value()
			if strings.TrimSpace(term) == "" {
				return t, nil, true
			}
			return t, func() tea.Msg { return addTermMsg{term: term} }, true
		}
	}

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd, false
}

// View implements Modal.
func (t *termModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Highlight"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("/"))
	b.WriteString(t.input.View())
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%d of %d terms in use", t.used, t.limit)))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Enter: Add  •  Esc: Cancel"))

	return placeModal(theme, b.String(), 48, width, height)
}
