package command

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Result is the uniform value every handler returns. Success and
// failure are both ordinary results; the dispatcher is the only place
// that turns anything else (panic, unknown name) into a failure.
type Result map[string]any

func OK(fields map[string]any) Result {
	r := Result{"success": true}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func Fail(format string, args ...any) Result {
	return Result{"success": false, "error": fmt.Sprintf(format, args...)}
}

func (r Result) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

func (r Result) Error() string {
	s, _ := r["error"].(string)
	return s
}

// JSON serializes the result for the completion write.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"unserializable result"}`
	}
	return string(b)
}

// NormalizeArgs turns whatever arrived in the args column into a map.
// The sender may write a JSON object or a JSON-encoded string holding
// one; malformed payloads degrade to an empty map so the handler still
// runs.
func NormalizeArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil && m != nil {
		return m
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &m); err == nil && m != nil {
			return m
		}
	}
	return map[string]any{}
}

// intArg reads a numeric argument, tolerating JSON numbers, ints and
// numeric strings.
func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
