package app

import (
	"encoding/json"
	"math"
	"strings"
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path and whether it was a string.
func lookupStr(m map[string]any, path string) (string, bool) {
	s, ok := lookupAny(m, path).(string)
	return s, ok
}

// lookupFloat accepts the numeric shapes a JSON decoder can produce.
func lookupFloat(m map[string]any, path string) (float64, bool) {
	switch v := lookupAny(m, path).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// lookupIndex returns an integral number at path; fractional values are rejected.
func lookupIndex(m map[string]any, path string) (int, bool) {
	f, ok := lookupFloat(m, path)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// objects returns the maps in a decoded JSON array or a []map[string]any built in Go.
// Non-object elements are dropped.
func objects(v any) []map[string]any {
	switch arr := v.(type) {
	case []map[string]any:
		return arr
	case []any:
		out := make([]map[string]any, 0, len(arr))
		for _, it := range arr {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// stringSet turns a JSON array of strings into a lookup set; non-strings are dropped.
func stringSet(v any) map[string]struct{} {
	raw, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			set := make(map[string]struct{}, len(ss))
			for _, s := range ss {
				set[s] = struct{}{}
			}
			return set
		}
		return nil
	}
	set := make(map[string]struct{}, len(raw))
	for _, it := range raw {
		if s, ok := it.(string); ok {
			set[s] = struct{}{}
		}
	}
	return set
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
