// Package ffmpeg wraps the ffmpeg and ffprobe binaries for container
// conversion the in-process decoders cannot do.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// MediaInfo holds duration and codec information from ffprobe
type MediaInfo struct {
	Duration   float64
	Codec      string
	SampleRate int
}

// Runner invokes ffmpeg binaries. The zero value uses the binaries on PATH.
type Runner struct {
	FFmpeg  string
	FFprobe string
}

// New returns a runner using the given ffmpeg binary (empty for PATH lookup)
func New(ffmpegPath string) *Runner {
	r := &Runner{FFmpeg: ffmpegPath}
	if ffmpegPath != "" && strings.HasSuffix(ffmpegPath, "ffmpeg") {
		r.FFprobe = strings.TrimSuffix(ffmpegPath, "ffmpeg") + "ffprobe"
	}
	return r
}

func (r *Runner) ffmpeg() string {
	if r == nil || r.FFmpeg == "" {
		return "ffmpeg"
	}
	return r.FFmpeg
}

func (r *Runner) ffprobe() string {
	if r == nil || r.FFprobe == "" {
		return "ffprobe"
	}
	return r.FFprobe
}

// Available returns true if ffmpeg can be found
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.ffmpeg())
	return err == nil
}

// Transcode converts input to the container implied by output's extension.
// MP3 output is encoded with libmp3lame at 192k, 44.1 kHz stereo.
func (r *Runner) Transcode(ctx context.Context, input, output string) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", input, "-ar", "44100", "-ac", "2"}
	if strings.HasSuffix(strings.ToLower(output), ".mp3") {
		args = append(args, "-c:a", "libmp3lame", "-b:a", "192k")
	}
	args = append(args, "-y", output)

	log.Debug().
		Str("input", input).
		Str("output", output).
		Msg("Running ffmpeg transcode")

	cmd := exec.CommandContext(ctx, r.ffmpeg(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg transcode failed: %w\n%s", err, string(out))
	}
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

// Probe uses ffprobe to read duration and audio codec
func (r *Runner) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if _, err := exec.LookPath(r.ffprobe()); err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.CommandContext(ctx,
		r.ffprobe(),
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name,sample_rate:format=duration",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*MediaInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}

	info := &MediaInfo{Codec: "N/A"}
	info.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	if len(probe.Streams) > 0 {
		if probe.Streams[0].CodecName != "" {
			info.Codec = probe.Streams[0].CodecName
		}
		info.SampleRate, _ = strconv.Atoi(probe.Streams[0].SampleRate)
	}
	return info, nil
}
