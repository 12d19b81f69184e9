package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataDiffer_Compare(t *testing.T) {
	d := NewMetadataDiffer(DefaultDiffConfig())

	tests := []struct {
		name       string
		previous   string
		current    string
		identical  bool
		fields     []string
		minAdded   int
		minDeleted int
	}{
		{
			name:      "identical",
			previous:  `{"basic":{"title":"A"}}`,
			current:   `{"basic": {"title": "A"}}`,
			identical: true,
		},
		{
			name:       "changed title",
			previous:   `{"basic":{"title":"A"},"openGraph":{"title":"X"}}`,
			current:    `{"basic":{"title":"B"},"openGraph":{"title":"X"}}`,
			fields:     []string{"basic"},
			minAdded:   1,
			minDeleted: 1,
		},
		{
			name:       "group added and removed",
			previous:   `{"basic":{"title":"A"},"twitter":{"card":"summary"}}`,
			current:    `{"basic":{"title":"A"},"openGraph":{"title":"X"}}`,
			fields:     []string{"openGraph", "twitter"},
			minAdded:   1,
			minDeleted: 1,
		},
		{
			name:     "first version",
			previous: ``,
			current:  `{"basic":{"title":"A"}}`,
			fields:   []string{"basic"},
			minAdded: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := d.Compare([]byte(tt.previous), []byte(tt.current))
			require.NoError(t, err)
			assert.Equal(t, tt.identical, summary.IsIdentical)
			assert.Equal(t, tt.fields, summary.ChangedFields)
			assert.GreaterOrEqual(t, summary.LinesAdded, tt.minAdded)
			assert.GreaterOrEqual(t, summary.LinesDeleted, tt.minDeleted)
		})
	}
}

func TestMetadataDiffer_InvalidJSON(t *testing.T) {
	d := NewMetadataDiffer(DefaultDiffConfig())

	_, err := d.Compare([]byte(`{`), []byte(`{}`))
	assert.Error(t, err)

	_, err = d.Compare([]byte(`{}`), []byte(`nope`))
	assert.Error(t, err)
}

func TestMetadataDiffer_Truncated(t *testing.T) {
	d := NewMetadataDiffer(DiffConfig{MaxInputBytes: 10})

	summary, err := d.Compare([]byte(`{"basic":{"title":"A long title"}}`), []byte(`{"basic":{"title":"Another long title"}}`))
	require.NoError(t, err)
	assert.True(t, summary.Truncated)
	assert.Equal(t, "changed: basic (too large for line diff)", summary.String())
}

func TestSummary_String(t *testing.T) {
	assert.Equal(t, "no changes", Summary{IsIdentical: true}.String())
	assert.Equal(t, "changed: basic, images (+2 -1 lines)", Summary{ChangedFields: []string{"basic", "images"}, LinesAdded: 2, LinesDeleted: 1}.String())
	assert.Equal(t, "changed: content (+0 -0 lines)", Summary{}.String())
}
