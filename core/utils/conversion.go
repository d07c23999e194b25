package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts various types to int using explicit type switching.
// It handles integer and float types, json.Number, byte slices and strings.
// Strings may carry thousands separators and a trailing "+" as in "500+".
// Anything unparseable yields 0.
func ToInt(val any) int {
	switch v := val.(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int16:
		return int(v)
	case int8:
		return int(v)
	case uint:
		return int(v)
	case uint64:
		return int(v)
	case uint32:
		return int(v)
	case uint16:
		return int(v)
	case uint8:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case json.Number:
		return parseCount(v.String())
	case string:
		return parseCount(v)
	case []byte:
		return parseCount(string(v))
	default:
		return parseCount(fmt.Sprintf("%v", v))
	}
}

func parseCount(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// ToString converts various types to string. Nil becomes the empty string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToSlice returns val as a slice of values, or nil when it is not a list.
func ToSlice(val any) []any {
	switch v := val.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

// ToMap returns val as a string keyed map, or nil when it is not an object.
// YAML decoders may produce map[any]any, which is converted.
func ToMap(val any) map[string]any {
	switch v := val.(type) {
	case map[string]any:
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[ToString(k)] = item
		}
		return out
	default:
		return nil
	}
}
