package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Example(t *testing.T) {
	raw := "Host 1: Hi\nrandom\nGuest: Hello\nHost 2:   Yo  "

	segments := Parse(raw)

	require.Len(t, segments, 3)
	assert.Equal(t, Segment{Index: 0, Role: Host1, Text: "Hi"}, segments[0])
	assert.Equal(t, Segment{Index: 1, Role: Guest, Text: "Hello"}, segments[1])
	assert.Equal(t, Segment{Index: 2, Role: Host2, Text: "Yo"}, segments[2])
}

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []Segment
	}{
		{
			name:     "nil",
			input:    nil,
			expected: []Segment{},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []Segment{},
		},
		{
			name:     "no recognized lines",
			input:    "Narrator: hello\nHOST 1: shouting\n  \n",
			expected: []Segment{},
		},
		{
			name:  "list of lines",
			input: []string{"Host 2: first", "noise", "Host 1: second"},
			expected: []Segment{
				{Index: 0, Role: Host2, Text: "first"},
				{Index: 1, Role: Host1, Text: "second"},
			},
		},
		{
			name: "list of records",
			input: []any{
				map[string]any{"text": "Host 1: from text"},
				map[string]any{"line": "Guest: from line"},
				"Host 2: plain string",
				map[string]any{"other": "Host 1: ignored"},
			},
			expected: []Segment{
				{Index: 0, Role: Host1, Text: "from text"},
				{Index: 1, Role: Guest, Text: "from line"},
				{Index: 2, Role: Host2, Text: "plain string"},
			},
		},
		{
			name: "records with speaker field",
			input: []map[string]any{
				{"speaker": "Host 1", "text": "Welcome back"},
				{"speaker": "Guest", "text": "Guest: already prefixed"},
			},
			expected: []Segment{
				{Index: 0, Role: Host1, Text: "Welcome back"},
				{Index: 1, Role: Guest, Text: "already prefixed"},
			},
		},
		{
			name: "mapping with numeric keys",
			input: map[string]string{
				"10": "Host 2: third",
				"2":  "Host 1: second",
				"1":  "Guest: first",
			},
			expected: []Segment{
				{Index: 0, Role: Guest, Text: "first"},
				{Index: 1, Role: Host1, Text: "second"},
				{Index: 2, Role: Host2, Text: "third"},
			},
		},
		{
			name:  "recognized prefix with empty text keeps its index",
			input: "Host 1:\nHost 2: after",
			expected: []Segment{
				{Index: 0, Role: Host1, Text: ""},
				{Index: 1, Role: Host2, Text: "after"},
			},
		},
		{
			name:  "multi-line list item",
			input: []string{"Host 1: a\nHost 2: b"},
			expected: []Segment{
				{Index: 0, Role: Host1, Text: "a"},
				{Index: 1, Role: Host2, Text: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}

func TestParse_CountsAndIndices(t *testing.T) {
	raw := "Host 1: one\n# comment\nHost 2: two\nGuest: three\n\nHost 1: four"

	segments := Parse(raw)

	recognized := 4
	require.Len(t, segments, recognized)
	for i, s := range segments {
		assert.Equal(t, i, s.Index)
	}
}

func TestParse_Idempotent(t *testing.T) {
	raw := "Host 1: Hi there\nfiller\nGuest: Thanks for having me\nHost 2: Let's begin"

	first := Parse(raw)
	second := Parse(Format(first))

	assert.Equal(t, first, second)
}

func TestParseJSON(t *testing.T) {
	t.Run("object keeps document order", func(t *testing.T) {
		data := []byte(`{"b": "Host 1: first", "a": "Host 2: second", "c": {"text": "Guest: third"}}`)

		segments, err := ParseJSON(data)

		require.NoError(t, err)
		require.Len(t, segments, 3)
		assert.Equal(t, "first", segments[0].Text)
		assert.Equal(t, "second", segments[1].Text)
		assert.Equal(t, Guest, segments[2].Role)
	})

	t.Run("array of records", func(t *testing.T) {
		data := []byte(`[{"line": "Host 1: hello"}, "Host 2: hi", 42]`)

		segments, err := ParseJSON(data)

		require.NoError(t, err)
		require.Len(t, segments, 2)
		assert.Equal(t, Host1, segments[0].Role)
		assert.Equal(t, Host2, segments[1].Role)
	})

	t.Run("plain string", func(t *testing.T) {
		segments, err := ParseJSON([]byte(`"Host 1: a\nHost 2: b"`))

		require.NoError(t, err)
		assert.Len(t, segments, 2)
	})

	t.Run("empty", func(t *testing.T) {
		segments, err := ParseJSON([]byte("  "))

		require.NoError(t, err)
		assert.Empty(t, segments)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseJSON([]byte(`[1, 2`))
		assert.Error(t, err)
	})
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected Role
		wantErr  bool
	}{
		{"host1", Host1, false},
		{"Host 2", Host2, false},
		{" guest ", Guest, false},
		{"narrator", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, role)
		})
	}
}
