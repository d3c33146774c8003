package podcast

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog/log"

	"github.com/daikw/ccpodcast/internal/audio"
	"github.com/daikw/ccpodcast/internal/script"
)

// DefaultCrossfade joins consecutive mood groups
const DefaultCrossfade = 500 * time.Millisecond

// Group is a run of consecutive buffers sharing a mood
type Group struct {
	Mood   script.Mood
	Length int
}

// GroupByMood walks lengths in order, starting a new group at every hinted
// index. The first group is LOFI unless index 0 is hinted. Empty groups
// are dropped.
func GroupByMood(lengths []int, hints script.Hints) []Group {
	var groups []Group
	current := Group{Mood: script.DefaultMood}

	for i, n := range lengths {
		if mood, ok := hints.At(i); ok {
			if current.Length > 0 {
				groups = append(groups, current)
			}
			current = Group{Mood: mood}
		}
		current.Length += n
	}
	if current.Length > 0 {
		groups = append(groups, current)
	}
	return groups
}

// Library holds one pre-rendered loop per mood
type Library struct {
	loops map[script.Mood]*audio.Clip
}

// NewLibrary wraps already decoded loops
func NewLibrary(loops map[script.Mood]*audio.Clip) *Library {
	if loops == nil {
		loops = map[script.Mood]*audio.Clip{}
	}
	return &Library{loops: loops}
}

// LoadLibrary decodes <mood>.mp3 or <mood>.wav from dir for every mood.
// Missing or broken files are skipped.
func LoadLibrary(dir string, format beep.Format) *Library {
	loops := map[script.Mood]*audio.Clip{}
	for _, mood := range script.Moods {
		base := filepath.Join(dir, strings.ToLower(string(mood)))
		clip, err := loadAsset(base+".mp3", format)
		if err != nil {
			log.Debug().Str("mood", string(mood)).Str("dir", dir).Msg("No loop for mood")
			continue
		}
		loops[mood] = clip
	}
	log.Debug().Int("loops", len(loops)).Str("dir", dir).Msg("Loaded mood loops")
	return &Library{loops: loops}
}

// Loop returns the loop for mood, falling back to LOFI. nil means silence.
func (l *Library) Loop(mood script.Mood) *audio.Clip {
	if clip, ok := l.loops[mood]; ok && clip.Len() > 0 {
		return clip
	}
	if clip, ok := l.loops[script.Lofi]; ok && clip.Len() > 0 {
		return clip
	}
	return nil
}

// MoodTrackBuilder renders the background track for an assembly
type MoodTrackBuilder struct {
	library   *Library
	format    beep.Format
	crossfade int
}

// NewMoodTrackBuilder creates a builder. A negative crossfade disables it.
func NewMoodTrackBuilder(library *Library, format beep.Format, crossfade time.Duration) *MoodTrackBuilder {
	n := 0
	if crossfade > 0 {
		n = format.SampleRate.N(crossfade)
	}
	return &MoodTrackBuilder{library: library, format: format, crossfade: n}
}

// Build returns a background track exactly as long as the buffers combined.
// Every group after the first is rendered crossfade samples longer so the
// overlap does not shorten the track.
func (b *MoodTrackBuilder) Build(buffers []*audio.Clip, hints script.Hints) (*audio.Clip, error) {
	lengths := make([]int, len(buffers))
	total := 0
	for i, buf := range buffers {
		lengths[i] = buf.Len()
		total += lengths[i]
	}

	var track *audio.Clip
	for i, g := range GroupByMood(lengths, hints) {
		length := g.Length
		if i > 0 {
			length += b.crossfade
		}
		chunk, err := b.render(g.Mood, length)
		if err != nil {
			return nil, err
		}

		if track == nil {
			track = chunk
			continue
		}
		track = audio.Crossfade(track, chunk, b.crossfade)
	}

	if track == nil {
		return audio.Silence(b.format, 0), nil
	}
	return track.Slice(0, total), nil
}

func (b *MoodTrackBuilder) render(mood script.Mood, length int) (*audio.Clip, error) {
	loop := b.library.Loop(mood)
	if loop == nil {
		log.Debug().Str("mood", string(mood)).Msg("No loop available, using silence")
		return audio.Silence(b.format, length), nil
	}
	return audio.Repeat(loop, length)
}
