// Package logsource provides logpage.Fetcher implementations.
//
// Client queries a log API over HTTP:
//
//	GET /api/logs/context?anchor=&direction=&begin=&size=
//	GET /api/logs/tail?size=&query=&after_seq=  (or after_ts and after_id)
//
// Both return {"lines": [...], "zeroIndex": n, "countStart": n}; tail pages
// omit the indexes. Records are either strings or objects with optional
// seq, ts/timestamp/time and msg/message/text/line keys. Other keys become
// attributes. Gzip responses are decoded.
//
// File serves the same contract from a local file, using line numbers as
// sequence cursors.
package logsource
