package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	"github.com/rs/zerolog/log"
)

// ErrEmptyAudio is returned when decoding zero bytes
var ErrEmptyAudio = errors.New("empty audio data")

// resampleQuality is passed to beep.Resample
const resampleQuality = 4

// Decode reads an MP3 or WAV payload and converts it to target.
// The container is detected from the data, not from a file name.
func Decode(data []byte, target beep.Format) (*Clip, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	if IsWAV(data) {
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	} else {
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if IsWAV(data) {
		s = wavLevel(s, format.Precision)
	}
	if format.SampleRate != target.SampleRate {
		log.Debug().
			Int("from", int(format.SampleRate)).
			Int("to", int(target.SampleRate)).
			Msg("Resampling audio")
		s = beep.Resample(resampleQuality, format.SampleRate, target.SampleRate, streamer)
	}

	return Collect(target, s)
}

// wavLevel undoes the wav decoder's signed sample scaling, which divides
// by 2^bits-1 instead of 2^(bits-1)-1 and leaves 16 and 24 bit input at
// half level. 8 bit input is unsigned and already full scale.
func wavLevel(s beep.Streamer, precision int) beep.Streamer {
	if precision < 2 {
		return s
	}
	bits := uint(precision * 8)
	full := float64(uint64(1)<<bits - 1)
	half := float64(uint64(1)<<(bits-1) - 1)
	return &effects.Gain{Streamer: s, Gain: full/half - 1}
}

// DecodeFile reads and decodes an audio file
func DecodeFile(path string, target beep.Format) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	clip, err := Decode(data, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// IsWAV reports whether data starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// EncodeWAV writes c as 16-bit PCM WAV
func EncodeWAV(w io.WriteSeeker, c *Clip) error {
	format := c.format
	if format.Precision == 0 {
		format.Precision = 2
	}
	if format.NumChannels == 0 {
		format.NumChannels = 2
	}
	if err := wav.Encode(w, c.Streamer(), format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return nil
}

// WriteWAV encodes c into a new file at path
func WriteWAV(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	if err := EncodeWAV(f, c); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// WAVBytes encodes c as an in-memory WAV payload
func WAVBytes(c *Clip) ([]byte, error) {
	var buf seekBuffer
	if err := EncodeWAV(&buf, c); err != nil {
		return nil, err
	}
	return buf.data, nil
}

type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position: %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}
