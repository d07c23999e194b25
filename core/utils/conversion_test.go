package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"nil", nil, 0},
		{"int", 42, 42},
		{"int64", int64(7), 7},
		{"uint8", uint8(3), 3},
		{"float", 500.9, 500},
		{"json number", json.Number("1200"), 1200},
		{"string", "15", 15},
		{"padded", "  15 ", 15},
		{"plus suffix", "500+", 500},
		{"thousands", "1,234", 1234},
		{"float string", "12.7", 12},
		{"bytes", []byte("9"), 9},
		{"garbage", "many", 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(tt.in))
		})
	}
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString("abc"))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "12", ToString(12))
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "500", ToString(float64(500)))
}

func TestToSlice(t *testing.T) {
	assert.Equal(t, []any{"a", "b"}, ToSlice([]string{"a", "b"}))
	assert.Equal(t, []any{1, "x"}, ToSlice([]any{1, "x"}))
	assert.Len(t, ToSlice([]map[string]any{{"a": 1}}), 1)
	assert.Nil(t, ToSlice("a"))
	assert.Nil(t, ToSlice(nil))
}

func TestToMap(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1}, ToMap(map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"a": 1, "2": "b"}, ToMap(map[any]any{"a": 1, 2: "b"}))
	assert.Nil(t, ToMap([]any{}))
}
