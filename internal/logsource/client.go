package logsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fastjson"

	"github.com/five82/loglens/internal/logpage"
)

// Ensure Client implements logpage.Fetcher at compile time.
var _ logpage.Fetcher = (*Client)(nil)

// Client talks to a log query API over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	session   string
	parsers   fastjson.ParserPool
}

const (
	defaultAPIBind        = "127.0.0.1:7487"
	defaultUserAgent      = "loglens/0.1"
	defaultRequestTimeout = 5 * time.Second
	maxBodyBytes          = 64 << 20
)

// NewClient builds a Client using the provided apiBind host:port value.
// A non-positive timeout uses the default.
func NewClient(apiBind string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// SetSession tags every request with the viewer session id.
func (c *Client) SetSession(id string) {
	c.session = id
}

// Fetch implements logpage.Fetcher. Tail requests go to /api/logs/tail and
// everything else to /api/logs/context.
func (c *Client) Fetch(ctx context.Context, req logpage.Request) (logpage.Page, error) {
	if c == nil {
		return logpage.Page{}, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if req.Size > 0 {
		values.Set("size", strconv.Itoa(req.Size))
	}
	path := "/api/logs/context"
	if req.Tail {
		path = "/api/logs/tail"
		if anchor := strings.TrimSpace(req.Anchor); anchor != "" {
			values.Set("query", anchor)
		}
		if after := req.After; after != nil {
			if after.Seq > 0 {
				values.Set("after_seq", strconv.FormatUint(after.Seq, 10))
			} else {
				values.Set("after_ts", after.Timestamp.UTC().Format(time.RFC3339Nano))
				values.Set("after_id", after.Identity())
			}
		}
	} else {
		if strings.TrimSpace(req.Anchor) == "" {
			return logpage.Page{}, fmt.Errorf("anchor required")
		}
		values.Set("anchor", req.Anchor)
		values.Set("direction", req.Direction.String())
		values.Set("begin", strconv.Itoa(req.Begin))
	}

	rel := &url.URL{Path: path, RawQuery: values.Encode()}
	body, err := c.get(ctx, rel)
	if err != nil {
		return logpage.Page{}, err
	}
	page, err := c.decodePage(body)
	if err != nil {
		return logpage.Page{}, fmt.Errorf("decode response: %w", err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, rel *url.URL) ([]byte, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.session != "" {
		req.Header.Set("X-Session-ID", c.session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}
	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// decodePage parses {"lines": [...], "zeroIndex": n, "countStart": n}.
// A missing zeroIndex means the anchor was not located.
func (c *Client) decodePage(body []byte) (logpage.Page, error) {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return logpage.Page{}, err
	}
	page := logpage.Page{ZeroIndex: -1}
	if zv := v.Get("zeroIndex"); zv != nil && zv.Type() == fastjson.TypeNumber {
		page.ZeroIndex = zv.GetInt()
	}
	page.CountStart = v.GetInt("countStart")
	if page.CountStart == 0 && v.Get("countStart") == nil && page.ZeroIndex >= 0 {
		page.CountStart = page.ZeroIndex
	}

	records := v.GetArray("lines")
	if records == nil && v.Type() == fastjson.TypeArray {
		records, _ = v.Array()
	}
	page.Lines = make([]logpage.LogLine, 0, len(records))
	for _, rec := range records {
		page.Lines = append(page.Lines, decodeLine(rec))
	}
	return page, nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
