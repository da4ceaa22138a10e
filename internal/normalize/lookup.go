// Package normalize maps platform-native records onto models.ContentItem.
//
// Every canonical field is resolved from an ordered list of candidate field
// names. The first candidate present with a non-null value wins. A candidate
// containing "." is a path into nested objects ("authorMeta.fans"); if any
// intermediate value is not an object the candidate does not resolve.
// Unresolved fields fall back to defaults (0, "" or "unknown") and never
// produce errors.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
)

// PathSeparator separates nested object segments in a candidate name.
const PathSeparator = "."

// Unknown is the default for unresolved identifiers.
const Unknown = "unknown"

// Lookup returns the value of the first candidate that resolves to a non-null value.
func Lookup(record map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		v, ok := lookupPath(record, strings.Split(candidate, PathSeparator))
		if ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupPath(record map[string]interface{}, segments []string) (interface{}, bool) {
	var cur interface{} = record
	for _, seg := range segments {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String resolves candidates to a string, or def when nothing resolves or the
// value is not scalar.
func String(record map[string]interface{}, candidates []string, def string) string {
	v, ok := Lookup(record, candidates...)
	if !ok {
		return def
	}
	if n, isNum := v.(json.Number); isNum {
		return n.String()
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

// Count resolves candidates to a non-negative integer count, or 0.
func Count(record map[string]interface{}, candidates []string) int64 {
	v, ok := Lookup(record, candidates...)
	if !ok {
		return 0
	}
	n, ok := toInt64(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// Bool resolves candidates to a boolean, or false.
func Bool(record map[string]interface{}, candidates []string) bool {
	v, ok := Lookup(record, candidates...)
	if !ok {
		return false
	}
	if n, isNum := v.(json.Number); isNum {
		v = n.String()
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

// StringList resolves candidates to a list of strings. The value may be a
// single string, an array of strings, or an array of objects, in which case the
// first of objectKeys holding a string is taken from each element.
func StringList(record map[string]interface{}, candidates []string, objectKeys ...string) []string {
	v, ok := Lookup(record, candidates...)
	if !ok {
		return nil
	}

	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []interface{}:
		var out []string
		for _, elem := range val {
			switch e := elem.(type) {
			case string:
				if e != "" {
					out = append(out, e)
				}
			case map[string]interface{}:
				if s := String(e, objectKeys, ""); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return nil
	}
}

func toInt64(v interface{}) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
