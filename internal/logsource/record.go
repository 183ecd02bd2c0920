package logsource

import (
	"time"

	"github.com/valyala/fastjson"

	"github.com/five82/loglens/internal/logpage"
)

var (
	textKeys = []string{"msg", "message", "text", "line"}
	timeKeys = []string{"ts", "timestamp", "time"}
)

// decodeLine turns one JSON record into a LogLine. A bare string is the whole
// text; objects map seq, a timestamp key and a text key, and keep every other
// field as an attribute.
func decodeLine(v *fastjson.Value) logpage.LogLine {
	if v.Type() == fastjson.TypeString {
		return logpage.LogLine{Text: string(v.GetStringBytes())}
	}
	obj, err := v.Object()
	if err != nil {
		return logpage.LogLine{Text: v.String()}
	}

	var line logpage.LogLine
	claimed := map[string]bool{"seq": true}
	if sv := obj.Get("seq"); sv != nil {
		line.Seq = sv.GetUint64()
	}
	for _, k := range textKeys {
		if tv := obj.Get(k); tv != nil && tv.Type() == fastjson.TypeString {
			line.Text = string(tv.GetStringBytes())
			claimed[k] = true
			break
		}
	}
	for _, k := range timeKeys {
		if tv := obj.Get(k); tv != nil {
			if ts, ok := parseTime(tv); ok {
				line.Timestamp = ts
				claimed[k] = true
				break
			}
		}
	}

	obj.Visit(func(key []byte, val *fastjson.Value) {
		k := string(key)
		if claimed[k] {
			return
		}
		if line.Attrs == nil {
			line.Attrs = make(map[string]string)
		}
		if val.Type() == fastjson.TypeString {
			line.Attrs[k] = string(val.GetStringBytes())
		} else {
			line.Attrs[k] = val.String()
		}
	})
	return line
}

// parseTime accepts RFC 3339 strings and numeric epochs in seconds,
// milliseconds or nanoseconds.
func parseTime(v *fastjson.Value) (time.Time, bool) {
	switch v.Type() {
	case fastjson.TypeString:
		raw := string(v.GetStringBytes())
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts, true
			}
		}
	case fastjson.TypeNumber:
		n := v.GetInt64()
		switch {
		case n > 1e17:
			return time.Unix(0, n).UTC(), true
		case n > 1e11:
			return time.UnixMilli(n).UTC(), true
		case n > 0:
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
