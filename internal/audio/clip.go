// Package audio holds decoded PCM clips and the editing operations the
// podcast pipeline needs: concatenation, looping, crossfades, gain and
// overlay. Streaming work is delegated to beep; a Clip is the materialized
// result.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// DefaultFormat is the format every clip in a run is resampled to
var DefaultFormat = beep.Format{
	SampleRate:  44100,
	NumChannels: 2,
	Precision:   2,
}

// Clip is an in-memory stereo audio buffer
type Clip struct {
	format  beep.Format
	samples [][2]float64
}

// New wraps samples in a clip. The slice is not copied.
func New(format beep.Format, samples [][2]float64) *Clip {
	if samples == nil {
		samples = [][2]float64{}
	}
	return &Clip{format: format, samples: samples}
}

// Silence returns n samples of silence
func Silence(format beep.Format, n int) *Clip {
	if n < 0 {
		n = 0
	}
	return New(format, make([][2]float64, n))
}

// SilenceFor returns silence of the given duration
func SilenceFor(format beep.Format, d time.Duration) *Clip {
	return Silence(format, format.SampleRate.N(d))
}

// Collect drains a streamer into a clip
func Collect(format beep.Format, s beep.Streamer) (*Clip, error) {
	var samples [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		samples = append(samples, buf[:n]...)
		if !ok || n == 0 {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to stream audio: %w", err)
	}
	return New(format, samples), nil
}

func (c *Clip) Format() beep.Format {
	return c.format
}

// Len returns the number of samples per channel
func (c *Clip) Len() int {
	return len(c.samples)
}

func (c *Clip) Duration() time.Duration {
	return c.format.SampleRate.D(len(c.samples))
}

// DurationMs returns the duration in whole milliseconds
func (c *Clip) DurationMs() int {
	return int(c.Duration() / time.Millisecond)
}

// Samples exposes the underlying buffer
func (c *Clip) Samples() [][2]float64 {
	return c.samples
}

// Streamer returns a fresh seekable reader over the clip
func (c *Clip) Streamer() beep.StreamSeeker {
	return &clipStreamer{samples: c.samples}
}

// Slice returns the samples in [from, to), clamped to the clip bounds
func (c *Clip) Slice(from, to int) *Clip {
	from = clamp(from, 0, len(c.samples))
	to = clamp(to, from, len(c.samples))
	return New(c.format, c.samples[from:to])
}

// Concat joins clips end to end
func Concat(format beep.Format, clips ...*Clip) *Clip {
	total := 0
	for _, c := range clips {
		total += c.Len()
	}
	samples := make([][2]float64, 0, total)
	for _, c := range clips {
		samples = append(samples, c.samples...)
	}
	return New(format, samples)
}

// Repeat loops c until exactly n samples have been produced
func Repeat(c *Clip, n int) (*Clip, error) {
	if n <= 0 {
		return Silence(c.format, 0), nil
	}
	if c.Len() == 0 {
		return Silence(c.format, n), nil
	}

	looped, err := Collect(c.format, beep.Take(n, beep.Loop(-1, c.Streamer())))
	if err != nil {
		return nil, err
	}
	return fit(looped, n), nil
}

// Crossfade joins a and b, overlapping the last n samples of a with the
// first n of b. n is clamped to the shorter clip.
func Crossfade(a, b *Clip, n int) *Clip {
	n = clamp(n, 0, min(a.Len(), b.Len()))
	if n == 0 {
		return Concat(a.format, a, b)
	}

	out := make([][2]float64, 0, a.Len()+b.Len()-n)
	out = append(out, a.samples[:a.Len()-n]...)
	tail := a.samples[a.Len()-n:]
	for i := 0; i < n; i++ {
		in := float64(i+1) / float64(n+1)
		fadeOut := 1 - in
		out = append(out, [2]float64{
			tail[i][0]*fadeOut + b.samples[i][0]*in,
			tail[i][1]*fadeOut + b.samples[i][1]*in,
		})
	}
	out = append(out, b.samples[n:]...)
	return New(a.format, out)
}

// Gain scales c by the given decibel amount
func Gain(c *Clip, db float64) (*Clip, error) {
	gained := &effects.Gain{
		Streamer: c.Streamer(),
		Gain:     DecibelsToRatio(db) - 1,
	}
	out, err := Collect(c.format, gained)
	if err != nil {
		return nil, err
	}
	return fit(out, c.Len()), nil
}

// Overlay sums a and b sample by sample over the length of the shorter one
func Overlay(a, b *Clip) (*Clip, error) {
	n := min(a.Len(), b.Len())
	mixed, err := Collect(a.format, beep.Mix(
		beep.Take(n, a.Streamer()),
		beep.Take(n, b.Streamer()),
	))
	if err != nil {
		return nil, err
	}
	return fit(mixed, n), nil
}

// DecibelsToRatio converts a gain in dB to an amplitude ratio
func DecibelsToRatio(db float64) float64 {
	return math.Pow(10, db/20)
}

// fit trims or zero-pads c to exactly n samples
func fit(c *Clip, n int) *Clip {
	if c.Len() == n {
		return c
	}
	if c.Len() > n {
		return c.Slice(0, n)
	}
	return Concat(c.format, c, Silence(c.format, n-c.Len()))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type clipStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *clipStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n = copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *clipStreamer) Err() error {
	return nil
}

func (s *clipStreamer) Len() int {
	return len(s.samples)
}

func (s *clipStreamer) Position() int {
	return s.pos
}

func (s *clipStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(s.samples))
	}
	s.pos = p
	return nil
}
