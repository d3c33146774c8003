package podcast

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daikw/ccpodcast/internal/audio"
)

func TestMixer_LengthIsMinimum(t *testing.T) {
	tests := []struct {
		name       string
		speech     int
		background int
	}{
		{"background longer", 1000, 5000},
		{"speech longer", 5000, 1000},
		{"equal", 2048, 2048},
		{"empty background", 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mixed, err := NewMixer(DefaultDuckDB).Mix(tone(tt.speech, 0.1), tone(tt.background, 0.1))

			require.NoError(t, err)
			assert.Equal(t, min(tt.speech, tt.background), mixed.Len())
		})
	}
}

func TestMixer_DucksBackground(t *testing.T) {
	mixed, err := NewMixer(-20).Mix(tone(100, 0.25), tone(100, 0.5))

	require.NoError(t, err)
	// 0.25 + 0.5 * 10^(-20/20)
	assert.InDelta(t, 0.30, mixed.Samples()[50][0], 1e-9)
	assert.InDelta(t, 0.30, mixed.Samples()[50][1], 1e-9)
}

func TestNewMixer_PositiveDuckIsNegated(t *testing.T) {
	assert.Equal(t, -18.0, NewMixer(18).duckDB)
}

// MockTranscoder is a mock implementation of Transcoder
type MockTranscoder struct {
	mock.Mock
}

func (m *MockTranscoder) Transcode(ctx context.Context, in, out string) error {
	args := m.Called(in, out)
	return args.Error(0)
}

func TestExporter_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "episode.wav")

	require.NoError(t, NewExporter(nil).Export(context.Background(), tone(4410, 0.2), path))

	clip, err := audio.DecodeFile(path, testFormat)
	require.NoError(t, err)
	assert.Equal(t, 4410, clip.Len())
}

func TestExporter_MP3(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mp3")

	tc := new(MockTranscoder)
	tc.On("Transcode", mock.MatchedBy(func(in string) bool {
		_, err := os.Stat(in)
		return filepath.Ext(in) == ".wav" && err == nil
	}), path).Run(func(args mock.Arguments) {
		_ = os.WriteFile(args.String(1), []byte("ID3"), 0o644)
	}).Return(nil)

	require.NoError(t, NewExporter(tc).Export(context.Background(), tone(100, 0.2), path))

	tc.AssertExpectations(t)
	assert.FileExists(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary wav is removed")
}

func TestExporter_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("mp3 without ffmpeg", func(t *testing.T) {
		err := NewExporter(nil).Export(context.Background(), tone(10, 0), filepath.Join(dir, "a.mp3"))

		var exportErr *ExportError
		require.ErrorAs(t, err, &exportErr)
		assert.Contains(t, err.Error(), "ffmpeg")
	})

	t.Run("transcode failure", func(t *testing.T) {
		tc := new(MockTranscoder)
		tc.On("Transcode", mock.Anything, mock.Anything).Return(errors.New("encoder crashed"))

		err := NewExporter(tc).Export(context.Background(), tone(10, 0), filepath.Join(dir, "b.mp3"))

		var exportErr *ExportError
		require.ErrorAs(t, err, &exportErr)
		assert.Equal(t, filepath.Join(dir, "b.mp3"), exportErr.Path)
		assert.NoFileExists(t, filepath.Join(dir, "b.mp3"))
	})

	t.Run("unknown format", func(t *testing.T) {
		err := NewExporter(nil).Export(context.Background(), tone(10, 0), filepath.Join(dir, "c.ogg"))

		var exportErr *ExportError
		assert.ErrorAs(t, err, &exportErr)
	})
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))

	Cleanup(a, filepath.Join(dir, "missing.mp3"), "")

	assert.NoFileExists(t, a)
}
