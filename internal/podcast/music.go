package podcast

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/rs/zerolog/log"

	"github.com/daikw/ccpodcast/internal/audio"
	"github.com/daikw/ccpodcast/internal/script"
)

const (
	// LoopDuration is the length of a rendered mood loop
	LoopDuration = 10 * time.Second

	loopFade = 50 * time.Millisecond
)

type waveFunc func(sr beep.SampleRate, freq float64) (beep.Streamer, error)

type layer struct {
	wave   waveFunc
	freq   float64
	gainDB float64
}

var loopLayers = map[script.Mood][]layer{
	script.Lofi: {
		{generators.SineTone, 110, -20},
		{whiteNoise, 0, -40},
	},
	script.Tense:     {{generators.SquareTone, 60, -15}},
	script.Excited:   {{generators.SawtoothTone, 220, -25}},
	script.Corporate: {{generators.SineTone, 440, -25}},
}

func whiteNoise(beep.SampleRate, float64) (beep.Streamer, error) {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := rand.Float64()*2 - 1
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	}), nil
}

// RenderLoop synthesizes a placeholder loop for mood with 50ms fades at
// both ends.
func RenderLoop(mood script.Mood, format beep.Format, d time.Duration) (*audio.Clip, error) {
	layers, ok := loopLayers[mood]
	if !ok {
		return nil, fmt.Errorf("no loop recipe for mood %q", mood)
	}
	n := format.SampleRate.N(d)

	var mixed *audio.Clip
	for _, l := range layers {
		s, err := l.wave(format.SampleRate, l.freq)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s generator: %w", mood, err)
		}
		clip, err := audio.Collect(format, beep.Take(n, s))
		if err != nil {
			return nil, err
		}
		if clip, err = audio.Gain(clip, l.gainDB); err != nil {
			return nil, err
		}
		if mixed == nil {
			mixed = clip
			continue
		}
		if mixed, err = audio.Overlay(mixed, clip); err != nil {
			return nil, err
		}
	}

	fade := min(format.SampleRate.N(loopFade), n/2)
	src := mixed.Streamer()
	return audio.Collect(format, beep.Seq(
		effects.Transition(beep.Take(fade, src), fade, 0, 1, effects.TransitionLinear),
		beep.Take(n-2*fade, src),
		effects.Transition(beep.Take(fade, src), fade, 1, 0, effects.TransitionLinear),
	))
}

// WriteLoops renders a WAV loop for every mood into dir. Moods that already
// have an mp3 or wav loop are left alone unless overwrite is set.
func WriteLoops(dir string, format beep.Format, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create music directory: %w", err)
	}

	var written []string
	for _, mood := range script.Moods {
		base := filepath.Join(dir, strings.ToLower(string(mood)))
		if !overwrite && (fileExists(base+".mp3") || fileExists(base+".wav")) {
			log.Debug().Str("mood", string(mood)).Msg("Loop exists, skipping")
			continue
		}

		clip, err := RenderLoop(mood, format, LoopDuration)
		if err != nil {
			return written, err
		}
		path := base + ".wav"
		if err := audio.WriteWAV(path, clip); err != nil {
			return written, fmt.Errorf("failed to write %s loop: %w", mood, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
