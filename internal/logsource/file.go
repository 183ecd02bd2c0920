package logsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/five82/loglens/internal/logpage"
)

// Ensure File implements logpage.Fetcher at compile time.
var _ logpage.Fetcher = (*File)(nil)

// File serves pages from a local log file. Every line gets Seq equal to its
// 1-based line number. Lines that hold a JSON object are decoded the same way
// as API records.
type File struct {
	path    string
	parsers fastjson.ParserPool
}

// NewFile returns a source reading path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file being read.
func (f *File) Path() string { return f.path }

// Fetch implements logpage.Fetcher. Context anchors are a 1-based line number
// or a substring; the first matching line wins.
func (f *File) Fetch(ctx context.Context, req logpage.Request) (logpage.Page, error) {
	if err := ctx.Err(); err != nil {
		return logpage.Page{}, err
	}
	if req.Tail {
		return f.tail(req)
	}

	raw, err := readAll(f.path)
	if err != nil {
		return logpage.Page{}, err
	}
	anchor := locate(raw, req.Anchor)
	if anchor < 0 {
		return logpage.Page{ZeroIndex: -1}, nil
	}
	size := max(req.Size, 1)

	switch req.Direction {
	case logpage.DirectionInitial:
		start := max(anchor-size/2, 0)
		end := min(start+size, len(raw))
		return logpage.Page{
			Lines:      f.lines(raw[start:end], start),
			ZeroIndex:  anchor - start,
			CountStart: anchor - start,
		}, nil
	case logpage.DirectionOlder:
		end := min(anchor+req.Begin, len(raw))
		if end <= 0 {
			return logpage.Page{ZeroIndex: -1}, nil
		}
		start := max(end-size, 0)
		return logpage.Page{Lines: f.lines(raw[start:end], start), ZeroIndex: -1}, nil
	default:
		start := max(anchor+req.Begin, 0)
		if start >= len(raw) {
			return logpage.Page{ZeroIndex: -1}, nil
		}
		end := min(start+size, len(raw))
		return logpage.Page{Lines: f.lines(raw[start:end], start), ZeroIndex: -1}, nil
	}
}

// tail returns the last Size lines on the first poll and the lines after the
// caller's cursor afterwards. A missing file yields no lines.
func (f *File) tail(req logpage.Request) (logpage.Page, error) {
	size := max(req.Size, 1)
	if req.After == nil || req.After.Seq == 0 {
		raw, first, err := readTail(f.path, size)
		if err != nil {
			return logpage.Page{}, err
		}
		return logpage.Page{Lines: f.lines(raw, first), ZeroIndex: -1}, nil
	}

	raw, err := readAll(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return logpage.Page{ZeroIndex: -1}, nil
		}
		return logpage.Page{}, err
	}
	start := int(req.After.Seq)
	if start > len(raw) {
		// Truncated or rotated: start over from the top.
		start = 0
	}
	end := min(start+size, len(raw))
	return logpage.Page{Lines: f.lines(raw[start:end], start), ZeroIndex: -1}, nil
}

func (f *File) lines(raw []string, first int) []logpage.LogLine {
	out := make([]logpage.LogLine, len(raw))
	for i, text := range raw {
		out[i] = f.decode(text)
		out[i].Seq = uint64(first + i + 1)
	}
	return out
}

func (f *File) decode(text string) logpage.LogLine {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return logpage.LogLine{Text: text}
	}
	p := f.parsers.Get()
	defer f.parsers.Put(p)
	v, err := p.Parse(trimmed)
	if err != nil || v.Type() != fastjson.TypeObject {
		return logpage.LogLine{Text: text}
	}
	line := decodeLine(v)
	if line.Text == "" {
		line.Text = text
	}
	return line
}

// locate returns the 0-based index of anchor in raw, or -1.
func locate(raw []string, anchor string) int {
	anchor = strings.TrimSpace(anchor)
	if anchor == "" {
		return -1
	}
	if n, err := strconv.Atoi(anchor); err == nil {
		if n >= 1 && n <= len(raw) {
			return n - 1
		}
		return -1
	}
	for i, line := range raw {
		if strings.Contains(line, anchor) {
			return i
		}
	}
	return -1
}

func readAll(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := newScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return lines, nil
}

// readTail returns at most maxLines from the end of the file at path and the
// 0-based index of the first one.
func readTail(path string, maxLines int) ([]string, int, error) {
	if maxLines <= 0 {
		return nil, 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := newScanner(file)
	total := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log: %w", err)
	}

	count := min(total, maxLines)
	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, total - count, nil
}

func newScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
