package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMood(t *testing.T) {
	tests := []struct {
		input string
		want  Mood
		ok    bool
	}{
		{"LOFI", Lofi, true},
		{"tense", Tense, true},
		{" Excited ", Excited, true},
		{"corporate", Corporate, true},
		{"happy", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseMood(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHintsFrom(t *testing.T) {
	hints := HintsFrom([]Hint{
		{StartIndex: 0, Mood: "lofi"},
		{StartIndex: 4, Mood: "TENSE"},
		{StartIndex: 6, Mood: "unknown"},
		{StartIndex: -1, Mood: "EXCITED"},
	})

	assert.Equal(t, Hints{0: Lofi, 4: Tense}, hints)
}

func TestHints_Shift(t *testing.T) {
	h := Hints{0: Lofi, 3: Tense, 6: Excited}

	shifted := h.Shift(3, 1)

	assert.Equal(t, Hints{0: Lofi, 4: Tense, 7: Excited}, shifted)
	assert.Equal(t, Hints{0: Lofi, 3: Tense, 6: Excited}, h, "original must not change")
	assert.Equal(t, []int{0, 4, 7}, shifted.Indices())
}
