package script

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mood selects the background music loop for a stretch of the show
type Mood string

const (
	Lofi      Mood = "LOFI"
	Tense     Mood = "TENSE"
	Excited   Mood = "EXCITED"
	Corporate Mood = "CORPORATE"
)

// DefaultMood applies until the first hint
const DefaultMood = Lofi

// Moods lists every known mood
var Moods = []Mood{Lofi, Tense, Excited, Corporate}

// ParseMood matches a mood name case-insensitively
func ParseMood(s string) (Mood, bool) {
	m := Mood(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Moods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// Hint marks the mood starting at a segment index
type Hint struct {
	StartIndex int    `json:"start_line_index"`
	Mood       string `json:"sentiment"`
}

// Hints is a sparse mapping from segment index to the mood starting there
type Hints map[int]Mood

// HintsFrom converts decoded hints, dropping unknown moods and negative indices
func HintsFrom(hints []Hint) Hints {
	out := make(Hints, len(hints))
	for _, h := range hints {
		mood, ok := ParseMood(h.Mood)
		if !ok || h.StartIndex < 0 {
			log.Warn().
				Int("start_index", h.StartIndex).
				Str("mood", h.Mood).
				Msg("Ignoring invalid mood hint")
			continue
		}
		out[h.StartIndex] = mood
	}
	return out
}

// Clone returns an independent copy
func (h Hints) Clone() Hints {
	out := make(Hints, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// At returns the hint at index i, if any
func (h Hints) At(i int) (Mood, bool) {
	m, ok := h[i]
	return m, ok
}

// Indices returns the hinted indices in ascending order
func (h Hints) Indices() []int {
	idx := make([]int, 0, len(h))
	for k := range h {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	return idx
}

// Shift returns a copy with every index >= from moved by delta
func (h Hints) Shift(from, delta int) Hints {
	out := make(Hints, len(h))
	for k, v := range h {
		if k >= from {
			out[k+delta] = v
		} else {
			out[k] = v
		}
	}
	return out
}
