// Package coerce converts loosely typed config values. TOML decodes
// integers as int64, YAML as int, and environment overrides arrive as
// strings; every config store reads through these so a key means the same
// thing whichever source set it.
//
// Each function takes the (value, found) pair returned by a store's Get
// so it can be called as coerce.Int(s.Get(key)).
package coerce

import (
	"strconv"
	"strings"
)

// String returns v if it is a string.
func String(v any, ok bool) string {
	s, _ := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Int accepts any integer or float kind and decimal strings.
func Int(v any, ok bool) int {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

// Float accepts any numeric kind and numeric strings.
func Float(v any, ok bool) float64 {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Bool accepts bools and the strings strconv.ParseBool understands.
func Bool(v any, ok bool) bool {
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(b))
		return parsed
	}
	return false
}

// Strings accepts string slices, mixed slices (non-strings dropped) and
// comma-separated strings.
func Strings(v any, ok bool) []string {
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, isStr := item.(string); isStr {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(list, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}
