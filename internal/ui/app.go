package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/loglens/internal/livetail"
	"github.com/five82/loglens/internal/logpage"
	"github.com/five82/loglens/internal/prefs"
	"github.com/five82/loglens/internal/viewer"
	"github.com/five82/loglens/internal/window"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Viewer    *viewer.Viewer
	Anchor    string
	Tail      bool
	Source    string // shown in the header
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    zerolog.Logger
}

// scrollAnim eases the pane toward the newest line in tail mode.
type scrollAnim struct {
	active bool
	from   int
	to     int
	start  time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	viewer    *viewer.Viewer
	anchor    string
	startTail bool
	source    string
	prefs     prefs.Prefs
	prefsPath string
	log       zerolog.Logger
	copy      func(string) error

	// UI state
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	theme   Theme
	width   int
	height  int
	ready   bool

	// Log pane
	surface *logSurface
	follow  bool
	anim    scrollAnim
	opening bool

	// Overlays
	showHelp bool
	modal    Modal

	// Transient status bar notice
	notice    string
	noticeErr bool
	noticeAt  time.Time
}

// New creates a new Bubble Tea model. The viewer's highlight engine is bound
// to the model's log pane.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	surface := newLogSurface()
	opts.Viewer.Highlights().SetSurface(surface)

	m := Model{
		ctx:       ctx,
		viewer:    opts.Viewer,
		anchor:    strings.TrimSpace(opts.Anchor),
		source:    opts.Source,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		log:       opts.Logger,
		copy:      clipboard.WriteAll,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		theme:     GetTheme(opts.Prefs.Theme),
		surface:   surface,
	}
	m.startTail = opts.Tail || m.anchor == ""
	m.opening = !m.startTail
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{clockCmd(), m.spinner.Tick}
	if m.startTail {
		cmds = append(cmds, startTailCmd())
	} else {
		cmds = append(cmds, m.openCmd(m.anchor))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case openedMsg:
		return m.handleOpened(msg)

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case tailStartedMsg:
		m.viewer.StartTail(m.ctx)
		m.beginTail()
		return m, nil

	case changeMsg:
		return m.handleChange(viewer.Change(msg))

	case applyFilterMsg:
		m.viewer.SetFilter(msg.spec)
		m.savePrefs()
		m.refresh()
		if msg.spec.Active() {
			m.setNotice(fmt.Sprintf("%d of %d lines shown", len(m.surface.rows), len(m.viewer.Lines())), false)
		}
		return m, nil

	case addTermMsg:
		m.addTerm(msg.term)
		return m, nil

	case frameMsg:
		return m.handleFrame(time.Time(msg))

	case clockMsg:
		if m.notice != "" && time.Time(msg).Sub(m.noticeAt) > noticeTTL {
			m.notice = ""
		}
		return m, clockCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and similar messages belong to the open modal.
	if m.modal != nil {
		modal, cmd, _ := m.modal.Update(msg, m.keys)
		m.modal = modal
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	hl := m.viewer.Highlights()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.savePrefs()
		m.render()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.ToggleFollow):
		m.toggleTail()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.anchor == "" {
			m.setNotice("no anchor to reopen; start loglens with -anchor", true)
			return m, nil
		}
		m.anim = scrollAnim{}
		m.follow = false
		m.opening = true
		return m, m.openCmd(m.anchor)

	case key.Matches(msg, m.keys.AddTerm):
		used := len(hl.Terms())
		if used >= hl.Capacity() {
			m.setNotice(fmt.Sprintf("highlight limit reached (%d terms); remove one with x", hl.Capacity()), true)
			return m, nil
		}
		m.modal = newTermModal(used, hl.Capacity())
		return m, textinput.Blink

	case key.Matches(msg, m.keys.RemoveTerm):
		m.removeTerm()
		return m, nil

	case key.Matches(msg, m.keys.NextMatch):
		if _, ok := hl.Next(); ok {
			m.afterNavigate()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		if _, ok := hl.Prev(); ok {
			m.afterNavigate()
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyLine):
		m.copyLine()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.modal = newFilterModal(m.viewer.Filter())
		return m, textinput.Blink

	case key.Matches(msg, m.keys.ToggleIgnoreCase):
		on := m.viewer.ToggleIgnoreCase()
		m.savePrefs()
		m.refresh()
		m.setNotice("ignore case "+onOff(on), false)
		return m, nil

	case key.Matches(msg, m.keys.ToggleFilterType):
		t := m.viewer.ToggleFilterType()
		m.savePrefs()
		m.refresh()
		m.setNotice("filter mode "+t.String(), false)
		return m, nil
	}

	return m.handleScrollKey(msg)
}

// handleScrollKey moves the pane. Pressing up at the top or down at the
// bottom of a context window loads the next page in that direction.
func (m Model) handleScrollKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.surface.vp
	var up bool
	switch {
	case key.Matches(msg, m.keys.Up):
		vp.LineUp(1)
		up = true
	case key.Matches(msg, m.keys.Down):
		vp.LineDown(1)
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
		up = true
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
	case key.Matches(msg, m.keys.PageUp):
		vp.ViewUp()
		up = true
	case key.Matches(msg, m.keys.PageDown):
		vp.ViewDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		vp.HalfViewUp()
		up = true
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfViewDown()
	default:
		return m, nil
	}
	cmd := m.afterScroll(up)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil || m.showHelp {
		return m, nil
	}
	var up bool
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		up = true
	case tea.MouseButtonWheelDown:
	default:
		return m, nil
	}
	var cmd tea.Cmd
	m.surface.vp, cmd = m.surface.vp.Update(msg)
	loadCmd := m.afterScroll(up)
	return m, tea.Batch(cmd, loadCmd)
}

// afterScroll runs after any user scroll. In tail mode it decides whether
// new lines keep following; in context mode it triggers edge loading.
func (m *Model) afterScroll(up bool) tea.Cmd {
	m.anim = scrollAnim{}
	vp := &m.surface.vp

	if m.viewer.Mode() == viewer.ModeTail {
		m.follow = vp.AtBottom()
		m.viewer.SetScrolledToBottom(m.follow)
		return nil
	}
	if m.opening || m.viewer.AnchorIndex() < 0 {
		return nil
	}
	switch {
	case up && vp.AtTop() && !m.viewer.Loading(logpage.DirectionOlder):
		return m.loadCmd(logpage.DirectionOlder)
	case !up && vp.AtBottom() && !m.viewer.Loading(logpage.DirectionNewer):
		return m.loadCmd(logpage.DirectionNewer)
	}
	return nil
}

func (m Model) handleOpened(msg openedMsg) (tea.Model, tea.Cmd) {
	m.opening = false
	if msg.err != nil {
		if viewer.IsAnchorNotFound(msg.err) {
			m.setNotice(fmt.Sprintf("anchor %q not found", m.anchor), true)
		} else {
			m.setNotice(msg.err.Error(), true)
		}
	}
	m.refresh()
	if m.surface.anchorRow >= 0 {
		m.surface.centerOn(m.surface.anchorRow)
	}
	return m, nil
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setNotice(msg.err.Error(), true)
		return m, nil
	}
	res := msg.res
	if res.Outcome != window.OutcomeMerged || m.viewer.Mode() != viewer.ModeContext {
		return m, nil
	}
	if res.Added == 0 {
		m.setNotice("no "+res.Direction.String()+" lines", false)
		return m, nil
	}

	vp := &m.surface.vp
	oldHeight, top := len(m.surface.rows), vp.YOffset
	m.refresh()
	if res.Direction == logpage.DirectionOlder {
		vp.SetYOffset(window.PreserveScroll(oldHeight, len(m.surface.rows), top))
	}
	return m, nil
}

// handleChange applies a tail notification forwarded from the viewer.
func (m Model) handleChange(c viewer.Change) (tea.Model, tea.Cmd) {
	if c.Mode != viewer.ModeTail || m.viewer.Mode() != viewer.ModeTail {
		return m, nil
	}
	switch c.Kind {
	case viewer.ChangeFailed:
		if c.Err != nil {
			m.setNotice(c.Err.Error(), true)
		}
		return m, nil
	case viewer.ChangeLines:
	default:
		return m, nil
	}

	vp := &m.surface.vp
	topKey := m.surface.keyAt(vp.YOffset)
	m.refresh()
	if c.AutoScroll {
		cmd := m.scrollToNewest(time.Now())
		return m, cmd
	}
	// Keep the line the user was reading at the top of the pane.
	if row := m.surface.rowOf(topKey); row >= 0 {
		vp.SetYOffset(row)
	} else if c.Evicted > 0 {
		vp.GotoTop()
	}
	return m, nil
}

// scrollToNewest starts (or retargets) the eased scroll to the last row.
func (m *Model) scrollToNewest(now time.Time) tea.Cmd {
	from, to := m.surface.vp.YOffset, m.surface.bottomOffset()
	m.viewer.SetScrolledToBottom(true)
	m.follow = true
	if to <= from {
		m.anim = scrollAnim{}
		m.surface.vp.SetYOffset(to)
		return nil
	}
	wasActive := m.anim.active
	m.anim = scrollAnim{active: true, from: from, to: to, start: now}
	if wasActive {
		// A frame tick is already scheduled.
		return nil
	}
	return frameCmd()
}

func (m Model) handleFrame(t time.Time) (tea.Model, tea.Cmd) {
	if !m.anim.active {
		return m, nil
	}
	elapsed := t.Sub(m.anim.start)
	m.surface.vp.SetYOffset(livetail.EaseOut(m.anim.from, m.anim.to, elapsed, livetail.ScrollDuration))
	if elapsed >= livetail.ScrollDuration {
		m.anim = scrollAnim{}
		return m, nil
	}
	return m, frameCmd()
}

// toggleTail enters tail mode from context mode, and pauses or resumes
// polling once in it.
func (m *Model) toggleTail() {
	switch {
	case m.viewer.Mode() != viewer.ModeTail:
		m.viewer.StartTail(m.ctx)
		m.beginTail()
		m.setNotice("live tail started", false)
	case m.viewer.Tailing():
		m.viewer.StopTail()
		m.anim = scrollAnim{}
		m.setNotice("live tail paused", false)
	default:
		m.viewer.StartTail(m.ctx)
		m.setNotice("live tail resumed", false)
	}
}

func (m *Model) beginTail() {
	m.opening = false
	m.follow = true
	m.viewer.SetScrolledToBottom(true)
	m.refresh()
	m.surface.vp.GotoBottom()
}

func (m *Model) addTerm(term string) {
	hl := m.viewer.Highlights()
	if !m.viewer.AddTerm(term) {
		if len(hl.Terms()) >= hl.Capacity() {
			m.setNotice(fmt.Sprintf("highlight limit reached (%d terms)", hl.Capacity()), true)
		} else {
			m.setNotice(fmt.Sprintf("%q is already highlighted", term), false)
		}
		return
	}
	m.savePrefs()
	m.refresh()

	for i, o := range m.surface.occs {
		if o.Term == term {
			hl.JumpTo(i + 1)
			m.afterNavigate()
			break
		}
	}
	m.setNotice(fmt.Sprintf("%d matches", hl.Count()), false)
}

// removeTerm drops the term of the current occurrence, or the most recently
// added term when nothing is current.
func (m *Model) removeTerm() {
	hl := m.viewer.Highlights()
	term := ""
	if _, occ, ok := hl.Current(); ok {
		term = occ.Term
	} else if terms := hl.Terms(); len(terms) > 0 {
		term = terms[len(terms)-1].Key
	}
	if term == "" || !m.viewer.RemoveTerm(term) {
		return
	}
	m.savePrefs()
	m.refresh()
	m.setNotice(fmt.Sprintf("removed %q", term), false)
}

// afterNavigate redraws after the highlight engine moved the current
// occurrence. Navigating in tail mode stops following.
func (m *Model) afterNavigate() {
	m.syncActive()
	m.render()
	if m.viewer.Mode() == viewer.ModeTail {
		m.anim = scrollAnim{}
		m.follow = m.surface.vp.AtBottom()
		m.viewer.SetScrolledToBottom(m.follow)
	}
}

func (m *Model) copyLine() {
	row := m.surface.vp.YOffset
	if m.surface.active != nil {
		row = m.surface.active.Row
	}
	if row < 0 || row >= len(m.surface.rows) {
		return
	}
	text := m.surface.rows[row].Line.Text
	if err := m.copy(text); err != nil {
		m.log.Warn().Err(err).Msg("clipboard write failed")
		m.setNotice("copy failed: "+err.Error(), true)
		return
	}
	m.setNotice("copied line "+rowLabel(m.surface.rows[row]), false)
}

// refresh rebuilds the pane from the viewer and re-locates highlights.
func (m *Model) refresh() {
	hl := m.viewer.Highlights()
	m.surface.setRows(m.viewer.Visible(), m.viewer.AnchorIndex(), hl.Terms(), m.viewer.Filter().IgnoreCase)
	hl.Locate()
	m.syncActive()
	m.render()
}

func (m *Model) syncActive() {
	if _, occ, ok := m.viewer.Highlights().Current(); ok {
		m.surface.active = &occ
	} else {
		m.surface.active = nil
	}
}

func (m *Model) render() {
	colorOf := make(map[string]int)
	for _, t := range m.viewer.Highlights().Terms() {
		colorOf[t.Key] = t.ColorIndex
	}
	m.surface.render(m.theme, colorOf, m.emptyText())
}

func (m *Model) emptyText() string {
	health := m.viewer.Health()
	switch {
	case m.opening:
		return "Loading…"
	case health.AnchorMissing:
		return fmt.Sprintf("Anchor %q not found", m.anchor)
	case health.LastError != nil:
		return "Could not load lines: " + health.LastError.Error()
	case m.viewer.Filter().Active():
		return "No lines match the filter"
	case m.viewer.Mode() == viewer.ModeTail:
		return "Waiting for log lines…"
	default:
		return "No log entries"
	}
}

func (m *Model) resize() {
	m.surface.vp.Width = max(m.width-chromeWidth, 1)
	m.surface.vp.Height = max(m.height-chromeHeight, 1)
	m.help.Width = max(m.width-2, 0)
	m.render()
	if m.follow {
		m.surface.vp.GotoBottom()
	}
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.help.Styles.Ellipsis = styles.FaintText
	m.spinner.Style = styles.AccentText
	m.surface.vp.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
}

func (m *Model) savePrefs() {
	spec := m.viewer.Filter()
	p := m.prefs
	p.Theme = m.theme.Name
	p.IgnoreCase = spec.IgnoreCase
	p.FilterType = spec.Type.String()
	p.ContextBefore = spec.ContextBefore
	p.ContextNext = spec.ContextNext
	p.Highlights = p.Highlights[:0:0]
	for _, t := range m.viewer.Highlights().Terms() {
		p.Highlights = append(p.Highlights, t.Key)
	}
	m.prefs = p
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn().Err(err).Str("path", m.prefsPath).Msg("save prefs failed")
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
	m.noticeAt = time.Now()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderPane())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) renderPane() string {
	border := m.theme.BorderFocus
	if m.viewer.Mode() == viewer.ModeTail && !m.viewer.Tailing() {
		border = m.theme.Border
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Padding(0, 1).
		Render(m.surface.vp.View())
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// Messages

type openedMsg struct {
	err error
}

type pageLoadedMsg struct {
	res window.Result
	err error
}

type tailStartedMsg struct{}

type changeMsg viewer.Change

type frameMsg time.Time

type clockMsg time.Time

// Commands

func (m Model) openCmd(anchor string) tea.Cmd {
	v, ctx := m.viewer, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		return openedMsg{err: v.Open(ctx, anchor)}
	}
}

func (m Model) loadCmd(dir logpage.Direction) tea.Cmd {
	v, ctx := m.viewer, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		var (
			res window.Result
			err error
		)
		if dir == logpage.DirectionOlder {
			res, err = v.LoadOlder(ctx)
		} else {
			res, err = v.LoadNewer(ctx)
		}
		return pageLoadedMsg{res: res, err: err}
	}
}

func startTailCmd() tea.Cmd {
	return func() tea.Msg { return tailStartedMsg{} }
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// Run starts the Bubble Tea program. Tail notifications from the viewer are
// forwarded into the program's event loop.
func Run(opts Options) error {
	m := New(opts)
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	unsubscribe := opts.Viewer.Subscribe(func(c viewer.Change) {
		if c.Mode == viewer.ModeTail {
			p.Send(changeMsg(c))
		}
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
