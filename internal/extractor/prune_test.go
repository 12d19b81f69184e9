package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrune(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{"nil", nil, nil},
		{"blank string", "  ", nil},
		{"string kept", "x", "x"},
		{"zero kept", float64(0), float64(0)},
		{"false kept", false, false},
		{
			"nested empties removed",
			map[string]any{"a": "", "b": nil, "c": map[string]any{"d": ""}, "e": "keep"},
			map[string]any{"e": "keep"},
		},
		{
			"array filtered",
			map[string]any{"list": []any{"", nil, "x", map[string]any{}}},
			map[string]any{"list": []any{"x"}},
		},
		{
			"array emptied removed",
			map[string]any{"list": []any{"", nil}, "n": float64(1)},
			map[string]any{"n": float64(1)},
		},
		{"all empty", map[string]any{"a": []any{}, "b": map[string]any{"c": nil}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Prune(tt.input))
		})
	}
}

// No value reachable from a pruned tree is null, blank, or an empty container.
func TestPrune_LeavesNoEmptyValues(t *testing.T) {
	input := map[string]any{
		"@type": "Product",
		"offers": []any{
			map[string]any{"price": "", "currency": nil},
			map[string]any{"price": "10", "seller": map[string]any{"name": " "}},
		},
		"image": []any{nil, "", []any{""}},
	}

	var walk func(v any)
	walk = func(v any) {
		switch x := v.(type) {
		case nil:
			t.Fatal("found nil value")
		case string:
			assert.NotEmpty(t, x)
		case map[string]any:
			assert.NotEmpty(t, x)
			for _, child := range x {
				walk(child)
			}
		case []any:
			assert.NotEmpty(t, x)
			for _, child := range x {
				walk(child)
			}
		}
	}

	pruned := Prune(input)
	walk(pruned)
	assert.Equal(t, map[string]any{
		"@type":  "Product",
		"offers": []any{map[string]any{"price": "10"}},
	}, pruned)
}
