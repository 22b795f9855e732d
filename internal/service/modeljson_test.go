package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// TestStripCodeFences tests fence removal from model responses
func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text unchanged",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "missing closing fence",
			input:    "```json\n{\"a\": 1}",
			expected: `{"a": 1}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{\"a\": 1}\n```\n  ",
			expected: `{"a": 1}`,
		},
		{
			name:     "multiline body preserved",
			input:    "```json\n{\n  \"a\": 1\n}\n```",
			expected: "{\n  \"a\": 1\n}",
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFences(tt.input))
		})
	}
}

// TestRepairJSON tests defect repair on model JSON
func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "valid JSON untouched",
			input:    `{"a": 1, "b": [2, 3]}`,
			expected: `{"a": 1, "b": [2, 3]}`,
		},
		{
			name:     "trailing comma in object",
			input:    `{"a": 1,}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "trailing comma in array",
			input:    `{"a": [1, 2,]}`,
			expected: `{"a": [1, 2]}`,
		},
		{
			name:     "trailing comma with whitespace",
			input:    "{\"a\": 1, \n}",
			expected: "{\"a\": 1 \n}",
		},
		{
			name:     "unquoted keys",
			input:    `{title: "x", riskLevel: "high"}`,
			expected: `{"title": "x", "riskLevel": "high"}`,
		},
		{
			name:     "bare literals in values untouched",
			input:    `{"a": true, "b": null}`,
			expected: `{"a": true, "b": null}`,
		},
		{
			name:     "string content untouched",
			input:    `{"a": "looks like {b: 1,}"}`,
			expected: `{"a": "looks like {b: 1,}"}`,
		},
		{
			name:     "escaped quotes inside strings",
			input:    `{"a": "say \"hi\",}"}`,
			expected: `{"a": "say \"hi\",}"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repairJSON(tt.input))
		})
	}
}

// TestDecodeModelJSON tests the full decode path
func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		Analysis string `json:"analysis"`
	}

	t.Run("decodes valid JSON", func(t *testing.T) {
		var p payload
		err := decodeModelJSON(`{"analysis": "ok"}`, &p)

		require.NoError(t, err)
		assert.Equal(t, "ok", p.Analysis)
	})

	t.Run("decodes fenced JSON", func(t *testing.T) {
		var p payload
		err := decodeModelJSON("```json\n{\"analysis\": \"ok\"}\n```", &p)

		require.NoError(t, err)
		assert.Equal(t, "ok", p.Analysis)
	})

	t.Run("repairs and decodes sloppy JSON", func(t *testing.T) {
		var p payload
		err := decodeModelJSON(`{analysis: "ok",}`, &p)

		require.NoError(t, err)
		assert.Equal(t, "ok", p.Analysis)
	})

	t.Run("rejects empty output", func(t *testing.T) {
		var p payload
		err := decodeModelJSON("```json\n```", &p)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformedModelOutput)
	})

	t.Run("rejects prose", func(t *testing.T) {
		var p payload
		err := decodeModelJSON("Here is my analysis: things look bad.", &p)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformedModelOutput)
	})
}
