// Package window implements the anchored, bidirectionally paged log window.
//
// # Overview
//
// A Store holds one contiguous, gap-free range of lines around an anchor
// line. Initialize fetches the first page in anchor mode and splits it at the
// page's ZeroIndex; LoadOlder and LoadNewer grow the range one page at a time.
//
// # Storage order
//
// Lines live in a single deque in display order, oldest first. The anchor
// index is the seam: lines[:anchor] are "before" (the line nearest the anchor
// is last) and lines[anchor:] are "after" (the anchor line is first).
// Prepending older pages shifts the anchor index by the page length.
//
// # Offsets
//
// Offsets are relative to the anchor line's true position in the source:
//
//	base      = zeroIndex - countStart
//	nextBegin = base + len(after)    first offset not yet loaded below
//	prevBegin = base - len(before)   first offset already loaded above
//
// An older page is requested with Begin = prevBegin and ends just before it;
// prevBegin then moves down by the number of lines returned. A newer page
// starts at nextBegin, which moves up likewise. Non-overlapping pages
// therefore never duplicate or skip lines.
//
// # Concurrency
//
// Fetches run without the lock held. At most one fetch per direction is in
// flight; a second request in the same direction returns OutcomeDropped
// without touching the network. Reset and Close bump a generation counter and
// any response carrying an older generation is discarded as OutcomeStale.
// A failed fetch merges nothing and returns a *logpage.FetchError.
//
// # Scroll preservation
//
// Hosts inserting older lines above the viewport call PreserveScroll with the
// rendered heights before and after the merge, and apply the result in the
// same update that installs the new content.
package window
