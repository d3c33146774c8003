package podcast

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/daikw/ccpodcast/internal/audio"
)

// DefaultDuckDB is the background gain reduction under speech
const DefaultDuckDB = -18.0

// Mixer lays the ducked background under the speech track
type Mixer struct {
	duckDB float64
}

// NewMixer creates a mixer. A positive duckDB is treated as its negative.
func NewMixer(duckDB float64) *Mixer {
	if duckDB > 0 {
		duckDB = -duckDB
	}
	return &Mixer{duckDB: duckDB}
}

// Mix attenuates background and sums it with speech. The result is as long
// as the shorter input; nothing is padded.
func (m *Mixer) Mix(speech, background *audio.Clip) (*audio.Clip, error) {
	n := min(speech.Len(), background.Len())
	ducked, err := audio.Gain(background.Slice(0, n), m.duckDB)
	if err != nil {
		return nil, fmt.Errorf("failed to duck background: %w", err)
	}
	return audio.Overlay(speech.Slice(0, n), ducked)
}

// Transcoder converts between containers by file extension
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// Exporter writes the final mix
type Exporter struct {
	transcoder Transcoder
}

// NewExporter creates an exporter. Without a transcoder only WAV output works.
func NewExporter(transcoder Transcoder) *Exporter {
	return &Exporter{transcoder: transcoder}
}

// Export writes clip to path in the container implied by its extension
func (e *Exporter) Export(ctx context.Context, clip *audio.Clip, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &ExportError{Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		if err := audio.WriteWAV(path, clip); err != nil {
			return &ExportError{Path: path, Err: err}
		}
	case ".mp3":
		if err := e.exportMP3(ctx, clip, path); err != nil {
			_ = os.Remove(path)
			return &ExportError{Path: path, Err: err}
		}
	default:
		return &ExportError{Path: path, Err: fmt.Errorf("unsupported output format %q", filepath.Ext(path))}
	}

	log.Debug().Str("path", path).Int("duration_ms", clip.DurationMs()).Msg("Exported episode")
	return nil
}

func (e *Exporter) exportMP3(ctx context.Context, clip *audio.Clip, path string) error {
	if e.transcoder == nil {
		return errors.New("mp3 output needs ffmpeg; install it or use --format wav")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".mix-*.wav")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := audio.EncodeWAV(tmp, clip); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return e.transcoder.Transcode(ctx, tmpPath, path)
}

// Cleanup removes temporary files. Errors are logged and ignored.
func Cleanup(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Debug().Err(err).Str("path", p).Msg("Failed to remove temporary file")
		}
	}
}
