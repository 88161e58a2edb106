package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExperimentalMatches_Valid(t *testing.T) {
	metadata := []byte(`{
		"_jupyter_types_experimental": [
			{"start": 2, "end": 4, "text": "abcd", "type": "instance"},
			{"start": 2, "end": 4, "text": "abce", "type": "instance"}
		]
	}`)

	matches, ok := parseExperimentalMatches(metadata, 2)
	require.True(t, ok)
	require.Len(t, matches, 2)
	assert.Equal(t, experimentalMatch{Start: 2, End: 4, Text: "abcd", Type: "instance"}, matches[0])
	assert.Equal(t, experimentalMatch{Start: 2, End: 4, Text: "abce", Type: "instance"}, matches[1])
}

func TestParseExperimentalMatches_TypeOptional(t *testing.T) {
	metadata := []byte(`{"_jupyter_types_experimental": [{"start": 0, "end": 3, "text": "foo"}]}`)

	matches, ok := parseExperimentalMatches(metadata, 1)
	require.True(t, ok)
	require.Len(t, matches, 1)
	assert.Empty(t, matches[0].Type)
}

func TestParseExperimentalMatches_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		metadata  string
		legacyLen int
	}{
		{"absent field", `{}`, 1},
		{"not an array", `{"_jupyter_types_experimental": {"start": 0}}`, 0},
		{"shorter than legacy matches", `{"_jupyter_types_experimental": [{"start": 0, "end": 1, "text": "a"}]}`, 2},
		{"missing text", `{"_jupyter_types_experimental": [{"start": 0, "end": 1}]}`, 1},
		{"non-numeric start", `{"_jupyter_types_experimental": [{"start": "0", "end": 1, "text": "a"}]}`, 1},
		{"non-numeric end", `{"_jupyter_types_experimental": [{"start": 0, "end": null, "text": "a"}]}`, 1},
		{"non-string text", `{"_jupyter_types_experimental": [{"start": 0, "end": 1, "text": 7}]}`, 1},
		{"one bad element poisons the set", `{"_jupyter_types_experimental": [{"start": 0, "end": 1, "text": "a"}, {"start": 0, "end": 1}]}`, 1},
		{"malformed json", `{"_jupyter_types_experimental": [`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, ok := parseExperimentalMatches([]byte(tt.metadata), tt.legacyLen)
			assert.False(t, ok)
			assert.Nil(t, matches)
		})
	}
}

func TestParseExperimentalMatches_NilMetadata(t *testing.T) {
	matches, ok := parseExperimentalMatches(nil, 0)
	assert.False(t, ok)
	assert.Nil(t, matches)
}
