package ui

import "time"

// Screen chrome around the log pane.
const (
	// chromeHeight is header + command bar + status bar + the pane's borders.
	chromeHeight = 5

	// chromeWidth is the pane's borders and horizontal padding.
	chromeWidth = 4

	// LayoutCompactWidth is the threshold below which the status bar drops
	// its secondary fields.
	LayoutCompactWidth = 100
)

// Timing constants.
const (
	// frameInterval paces the tail auto-scroll animation.
	frameInterval = 16 * time.Millisecond

	// clockInterval refreshes relative times in the status bar.
	clockInterval = time.Second

	// fetchTimeout bounds one context page fetch started from the UI.
	fetchTimeout = 10 * time.Second

	// noticeTTL is how long a transient notice stays in the status bar.
	noticeTTL = 4 * time.Second
)
