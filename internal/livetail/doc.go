// Package livetail keeps a bounded tail of a live log stream.
//
// A Buffer polls its Fetcher for lines newer than the last one it holds,
// skips lines it already has and, whenever a poll leaves it past its maximum,
// evicts one shift-sized batch of the oldest lines. Observers only ever see
// the post-eviction state.
//
// Polling uses a single timer owned by the buffer. Each completed poll arms
// the next one, so polls never overlap; Start and Stop are idempotent.
//
// Duplicate detection prefers LogLine.Seq. Without it the buffer falls back
// to content identity, which treats two identical lines with the same
// timestamp as one.
package livetail
