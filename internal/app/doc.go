// Package app is the composition root for loglens.
//
// # Overview
//
// Run wires configuration, preferences, logging, the log source, the viewer
// and the terminal UI, then blocks until the user exits or the context is
// cancelled.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        config.toml plus flag overrides
//	       ├─────> logging.New()        zerolog file logger (stdout belongs to the TUI)
//	       ├─────> prefs.Load()         theme, filter defaults, saved highlight terms
//	       ├─────> newSource()          logsource.File or logsource.Client
//	       ├─────> newViewer()          window, tail, filter and highlight engines
//	       └─────> ui.Run()             Bubble Tea program (blocks)
//
// # Print Mode
//
// With Print set, Run opens the anchor once, applies the saved filter and
// highlight terms, and writes the lines to stdout with fatih/color instead of
// starting the UI.
//
// # Error Handling
//
// Fatal errors returned from Run:
//   - invalid config file or flag values
//   - log file that cannot be opened for the debug logger
//   - print mode failing to open the anchor
//
// Fetch failures while the UI runs are not fatal. The viewer records them
// in its health store and the UI shows them in the header and status bar.
package app
