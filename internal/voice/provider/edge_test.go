package provider

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEdgeTTS writes a script that mimics edge-tts by writing its arguments
// to the --write-media path.
func fakeEdgeTTS(t *testing.T, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}

	script := `#!/bin/sh
out=""
voice=""
while [ $# -gt 0 ]; do
  case "$1" in
    --write-media) out="$2"; shift 2 ;;
    --voice) voice="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf "mp3:%s" "$voice" > "$out"
`
	if exitCode != 0 {
		script = "#!/bin/sh\necho boom >&2\nexit " + strconv.Itoa(exitCode) + "\n"
	}
	path := filepath.Join(t.TempDir(), "edge-tts")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestEdgeProvider_Synthesize(t *testing.T) {
	p := NewEdgeProvider(fakeEdgeTTS(t, 0))

	assert.True(t, p.IsAvailable(context.Background()))

	rc, err := p.Synthesize(context.Background(), "Hello from the guest", SynthesizeOptions{Voice: "en-US-ChristopherNeural"})
	require.NoError(t, err)
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	assert.Equal(t, "mp3:en-US-ChristopherNeural", string(data))
}

func TestEdgeProvider_Failure(t *testing.T) {
	p := NewEdgeProvider(fakeEdgeTTS(t, 1))

	_, err := p.Synthesize(context.Background(), "Hello", SynthesizeOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEdgeProvider_Unavailable(t *testing.T) {
	p := NewEdgeProvider(filepath.Join(t.TempDir(), "no-such-edge-tts"))
	assert.False(t, p.IsAvailable(context.Background()))
	assert.Equal(t, "edge", p.Name())
}

func TestEdgeRate(t *testing.T) {
	tests := []struct {
		speed    float64
		expected string
	}{
		{0, ""},
		{1, ""},
		{1.25, "+25%"},
		{0.8, "-20%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, edgeRate(tt.speed))
	}
}
