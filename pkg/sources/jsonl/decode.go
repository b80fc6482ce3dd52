// Package jsonl reads captured log records from JSON Lines files or JSON arrays.
package jsonl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/modoterra/colacup/pkg/core"
)

var parserPool fastjson.ParserPool

// Accepted key aliases, in priority order.
var (
	contentKeys  = []string{"content", "message", "msg"}
	fileKeys     = []string{"file", "filename"}
	functionKeys = []string{"function", "func"}
	flagKeys     = []string{"flag", "level", "level_name", "severity"}
	moduleKeys   = []string{"module", "service", "channel"}
	timeKeys     = []string{"time", "timestamp", "datetime", "ts"}
)

// LineError describes an input line that could not be decoded.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// Load decodes all records in the file at path.
func Load(path string) ([]core.LogRecord, []LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads either one JSON object per line or a single JSON array of
// objects. Lines that fail to decode are returned as LineErrors and skipped.
func Decode(r io.Reader) ([]core.LogRecord, []LineError, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read records: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decodeArray(trimmed)
	}

	var (
		records []core.LogRecord
		bad     []LineError
		lineNo  int
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			bad = append(bad, LineError{Line: lineNo, Raw: line, Err: err})
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, bad, fmt.Errorf("scan records: %w", err)
	}
	return records, bad, nil
}

func decodeArray(data []byte) ([]core.LogRecord, []LineError, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse array: %w", err)
	}
	arr, err := v.Array()
	if err != nil {
		return nil, nil, fmt.Errorf("parse array: %w", err)
	}

	var (
		records []core.LogRecord
		bad     []LineError
	)
	for i, item := range arr {
		rec, err := Record(item)
		if err != nil {
			bad = append(bad, LineError{Line: i + 1, Raw: item.String(), Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}

// ParseLine decodes a single JSON object.
func ParseLine(line string) (core.LogRecord, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.Parse(line)
	if err != nil {
		return core.LogRecord{}, err
	}
	return Record(v)
}

// Record maps a decoded JSON object onto a LogRecord.
func Record(v *fastjson.Value) (core.LogRecord, error) {
	if v.Type() != fastjson.TypeObject {
		return core.LogRecord{}, fmt.Errorf("expected object, got %s", v.Type())
	}

	rec := core.LogRecord{
		Content:  firstString(v, contentKeys),
		File:     firstString(v, fileKeys),
		Function: firstString(v, functionKeys),
		Line:     intValue(v.Get("line")),
		Flag:     string(core.ParseFlag(firstString(v, flagKeys))),
		Module:   firstString(v, moduleKeys),
	}

	if tv := first(v, timeKeys); tv != nil {
		rec.Time = timeValue(tv)
	}
	switch ft := firstString(v, []string{"formatTime", "formattedTime"}); {
	case ft != "":
		rec.FormattedTime = ft
	case !rec.Time.IsZero():
		rec.FormattedTime = core.FormatTime(rec.Time)
	default:
		// keep an unparseable timestamp visible rather than dropping it
		rec.FormattedTime = firstString(v, timeKeys)
	}
	return rec, nil
}

func first(v *fastjson.Value, keys []string) *fastjson.Value {
	for _, k := range keys {
		if x := v.Get(k); x != nil && x.Type() != fastjson.TypeNull {
			return x
		}
	}
	return nil
}

// firstString returns the first present key as text. Non-string values keep
// their JSON form so structured payloads stay visible.
func firstString(v *fastjson.Value, keys []string) string {
	x := first(v, keys)
	if x == nil {
		return ""
	}
	if x.Type() == fastjson.TypeString {
		return string(x.GetStringBytes())
	}
	return x.String()
}

func intValue(x *fastjson.Value) int {
	if x == nil {
		return 0
	}
	switch x.Type() {
	case fastjson.TypeNumber:
		return x.GetInt()
	case fastjson.TypeString:
		n, _ := strconv.Atoi(strings.TrimSpace(string(x.GetStringBytes())))
		return n
	}
	return 0
}

// timeValue accepts RFC 3339 strings and Unix timestamps in seconds,
// milliseconds, microseconds or nanoseconds.
func timeValue(x *fastjson.Value) time.Time {
	switch x.Type() {
	case fastjson.TypeString:
		s := string(x.GetStringBytes())
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.000", "2006-01-02 15:04:05", "2006-01-02T15:04:05.000000"} {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return unixTime(n)
		}
	case fastjson.TypeNumber:
		return unixTime(x.GetFloat64())
	}
	return time.Time{}
}

func unixTime(n float64) time.Time {
	switch abs := math.Abs(n); {
	case abs >= 1e17:
		return time.Unix(0, int64(n))
	case abs >= 1e14:
		return time.UnixMicro(int64(n))
	case abs >= 1e11:
		return time.UnixMilli(int64(n))
	default:
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9))
	}
}
