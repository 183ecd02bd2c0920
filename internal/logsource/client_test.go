package logsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/five82/loglens/internal/logpage"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

const contextBody = `{
	"zeroIndex": 1,
	"countStart": 1,
	"lines": [
		{"seq": 41, "ts": "2025-03-01T10:00:00Z", "msg": "starting", "level": "info"},
		{"seq": 42, "ts": 1740823201000, "message": "anchor here", "attempt": 3},
		"plain text line"
	]
}`

func TestClient_FetchContextEncodesQuery(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotUserAgent, gotRequestID, gotSession string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotSession = r.Header.Get("X-Session-ID")
		if r.URL.Path != "/api/logs/context" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(contextBody))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetSession("s-1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	page, err := c.Fetch(ctx, logpage.Request{Anchor: "req-7", Direction: logpage.DirectionOlder, Begin: -50, Size: 25})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotQuery.Get("anchor") != "req-7" ||
		gotQuery.Get("direction") != "older" ||
		gotQuery.Get("begin") != "-50" ||
		gotQuery.Get("size") != "25" {
		t.Fatalf("context query = %v, want params encoded", gotQuery)
	}
	if !strings.HasPrefix(gotUserAgent, "loglens/") {
		t.Fatalf("User-Agent = %q, want loglens/*", gotUserAgent)
	}
	if gotRequestID == "" || gotSession != "s-1" {
		t.Fatalf("request id %q session %q, want both set", gotRequestID, gotSession)
	}

	if page.ZeroIndex != 1 || page.CountStart != 1 || len(page.Lines) != 3 {
		t.Fatalf("page = %+v, want zeroIndex=1 countStart=1 and 3 lines", page)
	}
	first := page.Lines[0]
	if first.Seq != 41 || first.Text != "starting" || first.Attrs["level"] != "info" {
		t.Fatalf("first line = %+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("first timestamp = %v", first.Timestamp)
	}
	second := page.Lines[1]
	if second.Text != "anchor here" || second.Attrs["attempt"] != "3" || second.Timestamp.UnixMilli() != 1740823201000 {
		t.Fatalf("second line = %+v", second)
	}
	if page.Lines[2].Text != "plain text line" || page.Lines[2].Seq != 0 {
		t.Fatalf("third line = %+v", page.Lines[2])
	}
}

func TestClient_FetchTailGzip(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/logs/tail" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			t.Errorf("Accept-Encoding = %q, want gzip", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"lines":[{"seq":8,"text":"tick"}]}`))
		_ = gz.Close()
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	after := &logpage.LogLine{Seq: 7}
	page, err := c.Fetch(context.Background(), logpage.Request{Tail: true, Direction: logpage.DirectionNewer, After: after, Size: 10})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotQuery.Get("after_seq") != "7" || gotQuery.Get("size") != "10" {
		t.Fatalf("tail query = %v", gotQuery)
	}
	if page.ZeroIndex != -1 {
		t.Fatalf("tail page ZeroIndex = %d, want -1", page.ZeroIndex)
	}
	if len(page.Lines) != 1 || page.Lines[0].Seq != 8 || page.Lines[0].Text != "tick" {
		t.Fatalf("tail lines = %+v", page.Lines)
	}

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	_, err = c.Fetch(context.Background(), logpage.Request{Tail: true, After: &logpage.LogLine{Timestamp: ts, Text: "x"}})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotQuery.Get("after_ts") != "2025-01-02T03:04:05Z" || !strings.HasPrefix(gotQuery.Get("after_id"), "sum:") {
		t.Fatalf("content cursor query = %v", gotQuery)
	}
}

func TestClient_StatusAndDecodeErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("anchor") == "bad-json" {
			_, _ = w.Write([]byte(`{"lines": [`))
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Fetch(context.Background(), logpage.Request{Anchor: "a"})
	if err == nil || !strings.Contains(err.Error(), "returned status 502") {
		t.Fatalf("Fetch error = %v, want status 502", err)
	}

	_, err = c.Fetch(context.Background(), logpage.Request{Anchor: "bad-json"})
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Fetch error = %v, want decode error", err)
	}

	_, err = c.Fetch(context.Background(), logpage.Request{})
	if err == nil || !strings.Contains(err.Error(), "anchor required") {
		t.Fatalf("Fetch error = %v, want anchor required", err)
	}

	var nilClient *Client
	if _, err := nilClient.Fetch(context.Background(), logpage.Request{}); err == nil {
		t.Fatal("nil client should error")
	}
}

func TestClient_MissingZeroIndex(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lines": ["a", "b"]}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	page, err := c.Fetch(context.Background(), logpage.Request{Anchor: "x"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if page.HasAnchor() {
		t.Fatalf("page without zeroIndex should not locate the anchor: %+v", page)
	}
}
