// Package state provides thread-safe fetch health for the loglens viewer.
//
// # Overview
//
// The viewer records the outcome of every page fetch and tail poll into a
// Store. The UI reads Snapshot on each render to show a transient error
// indicator and "updated N seconds ago". Errors never clear lines: the store
// only holds status, the lines live in the window and tail buffers.
//
// # Concurrency Model
//
// The Store uses a readers-writer lock:
//
//   - Record(): Acquires write lock (exclusive access)
//   - Snapshot(): Acquires read lock (concurrent reads allowed)
//
// Writers are the fetch goroutines and the tail timer; the reader is the
// bubbletea update loop.
//
// # Record Semantics
//
//	// Success: counters advance, error cleared
//	store.Record(logpage.DirectionOlder, 20, nil)
//	→ LastAdded = 20, TotalFetched += 20, LastError = nil, ConsecutiveFailures = 0
//
//	// Fetch failure: previous counters kept
//	store.Record(logpage.DirectionNewer, 0, err)
//	→ LastError = err, ConsecutiveFailures++
//
//	// Anchor not found: terminal until the anchor changes, not counted as a failure
//	store.Record(logpage.DirectionInitial, 0, err)
//	→ AnchorMissing = true
//
// Snapshot wraps LastError in a fresh error so callers never share the
// stored instance; errors.Is still sees the original chain.
//
// The zero Store is ready to use.
package state
