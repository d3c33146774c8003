package ffmpeg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [{"codec_name": "mp3", "sample_rate": "44100"}],
		"format": {"duration": "12.345000"}
	}`)

	info, err := parseProbe(out)

	require.NoError(t, err)
	assert.Equal(t, "mp3", info.Codec)
	assert.Equal(t, 44100, info.SampleRate)
	assert.InDelta(t, 12.345, info.Duration, 1e-6)
}

func TestParseProbe_NoStreams(t *testing.T) {
	info, err := parseProbe([]byte(`{"format": {}}`))

	require.NoError(t, err)
	assert.Equal(t, "N/A", info.Codec)
	assert.Zero(t, info.Duration)
}

func TestParseProbe_Invalid(t *testing.T) {
	_, err := parseProbe([]byte(`not json`))
	assert.Error(t, err)
}

func TestRunner_MissingBinary(t *testing.T) {
	r := &Runner{FFmpeg: "/nonexistent/ffmpeg", FFprobe: "/nonexistent/ffprobe"}

	assert.False(t, r.Available())

	err := r.Transcode(context.Background(), "in.wav", "out.mp3")
	assert.Error(t, err)

	_, err = r.Probe(context.Background(), "in.wav")
	assert.Error(t, err)
}

func TestNew_DerivesProbePath(t *testing.T) {
	r := New("/opt/bin/ffmpeg")
	assert.Equal(t, "/opt/bin/ffprobe", r.FFprobe)

	var nilRunner *Runner
	assert.Equal(t, "ffmpeg", nilRunner.ffmpeg())
}
