// Package ui provides the terminal interface for loglens.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds the view state and delegates all
// log data to a viewer.Viewer: the context window, the live tail buffer, the
// filter and the highlight engine. The log pane (logSurface) wraps a bubbles
// viewport and implements highlight.Surface, so highlight navigation scrolls
// the pane directly.
//
// # Package Structure
//
//   - app.go: Model, Update loop, commands and Run
//   - surface.go: the log pane and its highlight decoration
//   - header.go: logo, mode badge, source and command bar
//   - status.go: line counts, match position, filter and notices
//   - filters.go: the filter modal
//   - search.go: the add-highlight modal
//   - help.go: the key binding overlay
//   - keys.go: key bindings
//   - theme.go: color themes and lipgloss styles
//
// # Event Flow
//
//  1. Init opens the anchor (context mode) or starts the tail.
//  2. Context fetches run as tea.Cmds and come back as openedMsg or pageLoadedMsg.
//  3. Tail polls run on the viewer's timer; Run forwards each tail Change into
//     the program with Program.Send.
//  4. Every data change calls refresh, which rebuilds the pane rows, rescans
//     highlight terms and re-locates the current occurrence.
//
// # Key Bindings
//
//   - j/k, PgUp/PgDn, ctrl+u/ctrl+d, g/G: scroll; scrolling past either edge
//     in context mode loads the next page
//   - Space: start, pause or resume the live tail
//   - r: reopen the anchor
//   - /: add a highlight term, x: remove one
//   - n/N: next/previous occurrence
//   - F: filter, c: ignore case, v: include/exclude
//   - y: copy the current line
//   - T: cycle theme
//   - h or ?: help
//   - e or ctrl+c: exit
package ui
