// Package podcast turns synthesized speech into a finished episode: ordered
// assembly with intro and ad insertion, a mood-driven background track,
// ducking, mix-down and export.
package podcast

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog/log"

	"github.com/daikw/ccpodcast/internal/audio"
	"github.com/daikw/ccpodcast/internal/script"
)

// AdFillerText is spoken when an ad is requested but no ad audio exists
const AdFillerText = "This episode is brought to you by our sponsors. Thanks for supporting the show. Now, back to the conversation."

// SpeechClip is the synthesized audio for one segment
type SpeechClip struct {
	SegmentIndex int
	Audio        *audio.Clip
	Path         string
}

func (c SpeechClip) DurationMs() int {
	if c.Audio == nil {
		return 0
	}
	return c.Audio.DurationMs()
}

// AdRequest asks for an ad at a fraction of the episode
type AdRequest struct {
	PositionFraction float64
	// AudioPath overrides the default ad clip
	AudioPath string
}

// AssembleOptions are the optional parts of an episode
type AssembleOptions struct {
	IntroPath string
	Ad        *AdRequest
}

// Assembly is the ordered buffer sequence ready for mixing, with hints
// keyed by buffer position.
type Assembly struct {
	Buffers []*audio.Clip
	Hints   script.Hints

	// AdIndex is the ad position, or -1
	AdIndex int
}

// Lengths returns the sample length of every buffer
func (a *Assembly) Lengths() []int {
	lengths := make([]int, len(a.Buffers))
	for i, b := range a.Buffers {
		lengths[i] = b.Len()
	}
	return lengths
}

// Speech concatenates all buffers into one track
func (a *Assembly) Speech(format beep.Format) *audio.Clip {
	return audio.Concat(format, a.Buffers...)
}

// AdVoice synthesizes the filler ad when no ad audio is available
type AdVoice interface {
	Synthesize(ctx context.Context, text string, role script.Role, basePath string) (string, error)
}

// Assembler orders speech clips and inserts the intro and ad
type Assembler struct {
	format    beep.Format
	defaultAd string
	adVoice   AdVoice
	workDir   string
}

// NewAssembler creates an assembler. defaultAd and adVoice may be empty/nil.
func NewAssembler(format beep.Format, defaultAd string, adVoice AdVoice, workDir string) *Assembler {
	return &Assembler{
		format:    format,
		defaultAd: defaultAd,
		adVoice:   adVoice,
		workDir:   workDir,
	}
}

// Assemble builds the buffer sequence. Hints are keyed by segment index on
// input and by buffer position on output.
func (a *Assembler) Assemble(ctx context.Context, clips []SpeechClip, hints script.Hints, opts AssembleOptions) (*Assembly, error) {
	if len(clips) == 0 {
		return nil, ErrEmptyInput
	}

	ordered := make([]SpeechClip, len(clips))
	copy(ordered, clips)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SegmentIndex < ordered[j].SegmentIndex
	})

	result := &Assembly{
		Hints:   MapHints(hints, ordered),
		AdIndex: -1,
	}
	for _, c := range ordered {
		result.Buffers = append(result.Buffers, c.Audio)
	}

	if opts.IntroPath != "" {
		intro, err := audio.DecodeFile(opts.IntroPath, a.format)
		if err != nil {
			log.Warn().Err(err).Msg("Intro could not be loaded, continuing without it")
		} else {
			result.Buffers = append([]*audio.Clip{intro}, result.Buffers...)
			result.Hints = result.Hints.Shift(0, 1)
		}
	}

	if opts.Ad != nil {
		ad := a.resolveAd(ctx, opts.Ad.AudioPath)
		if ad == nil {
			log.Warn().Msg("No ad audio available, skipping ad")
			return result, nil
		}
		idx := AdIndex(opts.Ad.PositionFraction, len(result.Buffers))
		result.Buffers = append(result.Buffers[:idx], append([]*audio.Clip{ad}, result.Buffers[idx:]...)...)
		result.Hints = RemapForInsertion(result.Hints, idx)
		result.AdIndex = idx
		log.Debug().Int("index", idx).Msg("Inserted ad")
	}

	return result, nil
}

// resolveAd loads the explicit ad, else the default ad, else synthesizes
// the filler line. nil means no ad could be produced.
func (a *Assembler) resolveAd(ctx context.Context, explicit string) *audio.Clip {
	for _, path := range []string{explicit, a.defaultAd} {
		if path == "" {
			continue
		}
		clip, err := loadAsset(path, a.format)
		if err == nil {
			return clip
		}
		log.Debug().Err(err).Str("path", path).Msg("Ad audio unavailable")
	}

	if a.adVoice == nil {
		return nil
	}
	dir := a.workDir
	if dir == "" {
		dir = os.TempDir()
	}
	path, err := a.adVoice.Synthesize(ctx, AdFillerText, script.Host1, filepath.Join(dir, "ad_filler"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to synthesize ad filler")
		return nil
	}
	defer func() {
		_ = os.Remove(path)
	}()

	clip, err := audio.DecodeFile(path, a.format)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to decode ad filler")
		return nil
	}
	return clip
}

// loadAsset decodes path, trying the .wav sibling of a missing .mp3 and
// the other way around.
func loadAsset(path string, format beep.Format) (*audio.Clip, error) {
	clip, err := audio.DecodeFile(path, format)
	if err == nil {
		return clip, nil
	}
	ext := filepath.Ext(path)
	var alt string
	switch ext {
	case ".mp3":
		alt = path[:len(path)-len(ext)] + ".wav"
	case ".wav":
		alt = path[:len(path)-len(ext)] + ".mp3"
	default:
		return nil, err
	}
	if altClip, altErr := audio.DecodeFile(alt, format); altErr == nil {
		return altClip, nil
	}
	return nil, err
}

// AdIndex returns clamp(round(fraction * n), 0, n)
func AdIndex(fraction float64, n int) int {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	idx := int(math.Round(fraction * float64(n)))
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}

// RemapForInsertion moves every hint at or after idx one position later
// and marks idx itself CORPORATE.
func RemapForInsertion(hints script.Hints, idx int) script.Hints {
	out := hints.Shift(idx, 1)
	out[idx] = script.Corporate
	return out
}

// MapHints converts hints keyed by segment index into hints keyed by
// position in clips. A hint on a skipped segment moves to the next clip
// that exists; hints past the last clip are dropped.
func MapHints(hints script.Hints, clips []SpeechClip) script.Hints {
	out := make(script.Hints, len(hints))
	for _, idx := range hints.Indices() {
		pos := sort.Search(len(clips), func(i int) bool {
			return clips[i].SegmentIndex >= idx
		})
		if pos == len(clips) {
			log.Debug().Int("index", idx).Msg("Mood hint past the last segment, dropping")
			continue
		}
		out[pos] = hints[idx]
	}
	return out
}
