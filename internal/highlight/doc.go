// Package highlight registers search terms, gives each a palette slot and
// navigates among their rendered occurrences.
//
// The engine never inspects rendered output directly. A Surface reports the
// ordered occurrences and receives Activate calls; Scan and Segments are the
// helpers a surface uses to find and draw them.
//
// Navigation is 1-based. Next wraps from the last occurrence to the first,
// while JumpTo and Prev clamp.
package highlight
