package voice

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/voice/provider"
)

// MockProvider is a mock implementation of provider.Provider
type MockProvider struct {
	mock.Mock
	name   string
	format string
}

func newMockProvider(name string) *MockProvider {
	return &MockProvider{name: name, format: "mp3"}
}

func (m *MockProvider) Name() string         { return m.name }
func (m *MockProvider) OutputFormat() string { return m.format }

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return true
}

func (m *MockProvider) Synthesize(ctx context.Context, text string, options provider.SynthesizeOptions) (io.ReadCloser, error) {
	args := m.Called(text, options.Voice)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func audioStream(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func tierFor(p provider.Provider) Tier {
	return Tier{
		Provider: p,
		Voices: VoiceMap{
			script.Host1: p.Name() + "-h1",
			script.Host2: p.Name() + "-h2",
		},
	}
}

func TestSynthesize_FallbackStopsAtFirstSuccess(t *testing.T) {
	p1 := newMockProvider("first")
	p2 := newMockProvider("second")
	p3 := newMockProvider("third")
	p4 := newMockProvider("fourth")
	p5 := newMockProvider("fifth")

	p1.On("Synthesize", "Hello there.", "first-h2").Return(nil, errors.New("quota exceeded"))
	p2.On("Synthesize", "Hello there.", "second-h2").Return(audioStream(""), nil)
	p3.On("Synthesize", "Hello there.", "third-h2").Return(audioStream("ID3audio"), nil)

	synth := NewSynthesizer([]Tier{tierFor(p1), tierFor(p2), tierFor(p3), tierFor(p4), tierFor(p5)})
	base := filepath.Join(t.TempDir(), "segment_0")

	out, err := synth.SynthesizeOutput(context.Background(), "Hello [laughs] there.", script.Host2, base)

	require.NoError(t, err)
	assert.Equal(t, base+".mp3", out.Path)
	assert.Equal(t, "third", out.Provider)

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, "ID3audio", string(data))

	p1.AssertExpectations(t)
	p2.AssertExpectations(t)
	p3.AssertExpectations(t)
	p4.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
	p5.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

func TestSynthesize_Exhausted(t *testing.T) {
	p1 := newMockProvider("first")
	p2 := newMockProvider("second")
	p2.format = "wav"
	p1.On("Synthesize", mock.Anything, mock.Anything).Return(nil, errors.New("unauthorized"))
	p2.On("Synthesize", mock.Anything, mock.Anything).Return(audioStream(""), nil)

	dir := t.TempDir()
	synth := NewSynthesizer([]Tier{tierFor(p1), tierFor(p2)})

	path, err := synth.Synthesize(context.Background(), "Hi", script.Guest, filepath.Join(dir, "segment_3"))

	require.Error(t, err)
	assert.Empty(t, path)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, script.Guest, exhausted.Role)
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, "first", exhausted.Attempts[0].Provider)
	assert.ErrorIs(t, err, errEmptyOutput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial files should remain")
}

func TestSynthesize_GuestFallsBackToHost1Voice(t *testing.T) {
	p := newMockProvider("only")
	p.On("Synthesize", "Hi", "only-h1").Return(audioStream("x"), nil)

	synth := NewSynthesizer([]Tier{tierFor(p)})
	_, err := synth.Synthesize(context.Background(), "Hi", script.Guest, filepath.Join(t.TempDir(), "s"))

	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestSynthesize_EmptyText(t *testing.T) {
	p := newMockProvider("only")
	synth := NewSynthesizer([]Tier{tierFor(p)})

	_, err := synth.Synthesize(context.Background(), " [music] *pause* ", script.Host1, filepath.Join(t.TempDir(), "s"))

	assert.ErrorIs(t, err, ErrEmptyText)
	p.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

func TestSynthesize_NoTiers(t *testing.T) {
	_, err := NewSynthesizer(nil).Synthesize(context.Background(), "Hi", script.Host1, filepath.Join(t.TempDir(), "s"))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Empty(t, exhausted.Attempts)
	assert.Contains(t, err.Error(), "no speech providers")
}

type slowProvider struct{}

func (slowProvider) Name() string                         { return "slow" }
func (slowProvider) OutputFormat() string                 { return "mp3" }
func (slowProvider) IsAvailable(ctx context.Context) bool { return true }

func (slowProvider) Synthesize(ctx context.Context, text string, options provider.SynthesizeOptions) (io.ReadCloser, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSynthesize_TimeoutMovesOn(t *testing.T) {
	fast := newMockProvider("fast")
	fast.On("Synthesize", "Hi", mock.Anything).Return(audioStream("ok"), nil)

	synth := NewSynthesizer(
		[]Tier{{Provider: slowProvider{}}, tierFor(fast)},
		WithTimeout(20*time.Millisecond),
	)

	out, err := synth.SynthesizeOutput(context.Background(), "Hi", script.Host1, filepath.Join(t.TempDir(), "s"))

	require.NoError(t, err)
	assert.Equal(t, "fast", out.Provider)
}

type memoryCache struct {
	entries map[string]CachedClip
	err     error
}

func (c *memoryCache) Get(ctx context.Context, key string) (*CachedClip, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	clip, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &clip, true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, clip CachedClip) error {
	if c.err != nil {
		return c.err
	}
	c.entries[key] = clip
	return nil
}

func TestSynthesize_Cache(t *testing.T) {
	p := newMockProvider("only")
	p.On("Synthesize", "Hello", mock.Anything).Return(audioStream("voice"), nil).Once()

	cache := &memoryCache{entries: map[string]CachedClip{}}
	synth := NewSynthesizer([]Tier{tierFor(p)}, WithCache(cache))
	dir := t.TempDir()

	first, err := synth.SynthesizeOutput(context.Background(), "Hello", script.Host1, filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, cache.entries, 1)

	second, err := synth.SynthesizeOutput(context.Background(), "  Hello ", script.Host1, filepath.Join(dir, "b"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, filepath.Join(dir, "b.mp3"), second.Path)

	data, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, "voice", string(data))
	p.AssertExpectations(t)
}

func TestSynthesize_CacheErrorsIgnored(t *testing.T) {
	p := newMockProvider("only")
	p.On("Synthesize", "Hello", mock.Anything).Return(audioStream("voice"), nil)

	cache := &memoryCache{err: errors.New("connection refused")}
	synth := NewSynthesizer([]Tier{tierFor(p)}, WithCache(cache))

	_, err := synth.Synthesize(context.Background(), "Hello", script.Host1, filepath.Join(t.TempDir(), "a"))
	assert.NoError(t, err)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello world", "Hello world"},
		{"Well [laughs] that's   true", "Well that's true"},
		{"*sighs* Fine.", "Fine."},
		{"[intro music]", ""},
		{"  spaced\n\tout  ", "spaced out"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey(script.Host1, "hi"), CacheKey(script.Host1, "hi"))
	assert.NotEqual(t, CacheKey(script.Host1, "hi"), CacheKey(script.Host2, "hi"))
	assert.Len(t, CacheKey(script.Guest, "hi"), 64)
}
