// Package logpage defines the contract between the viewer core and whatever
// produces log pages.
//
// A Fetcher answers Requests with Pages. Two cursor schemes share the same
// contract:
//
//   - Context mode: Request.Anchor names the line a session is centered on and
//     Request.Begin is an offset relative to it. The first request
//     (DirectionInitial) returns ZeroIndex, the anchor's position inside the
//     page, and CountStart, how many lines before the anchor the page begins.
//   - Tail mode: Request.Tail is set and Request.After carries the newest
//     line the caller holds (nil on the first poll). The source returns lines
//     at or after it. Overlap is allowed; callers de-duplicate by
//     LogLine.Identity.
//
// # Errors
//
//   - ErrFetchFailed: network or server failure, retryable per direction
//   - ErrAnchorNotFound: terminal for a session until the anchor changes
//   - ErrStaleResponse: internal to the core, never surfaced to a host
package logpage
