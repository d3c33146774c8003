package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// EdgeProvider shells out to the edge-tts command. It needs no credentials.
type EdgeProvider struct {
	binary string
}

// NewEdgeProvider creates an edge-tts provider. An empty binary means
// "edge-tts" on PATH.
func NewEdgeProvider(binary string) *EdgeProvider {
	if binary == "" {
		binary = "edge-tts"
	}
	return &EdgeProvider{binary: binary}
}

func (p *EdgeProvider) Name() string {
	return "edge"
}

func (p *EdgeProvider) OutputFormat() string {
	return "mp3"
}

// Synthesize runs edge-tts into a temp file and returns its contents
func (p *EdgeProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := options.Voice
	if voice == "" {
		voice = "en-US-GuyNeural"
	}

	dir, err := os.MkdirTemp("", "ccpodcast-edge-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "speech.mp3")

	args := []string{"--voice", voice, "--text", text, "--write-media", out}
	if rate := edgeRate(options.Speed); rate != "" {
		args = append(args, "--rate="+rate)
	}

	log.Debug().
		Str("binary", p.binary).
		Str("voice", voice).
		Msg("Running edge-tts")

	cmd := exec.CommandContext(ctx, p.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("edge-tts failed: %w\n%s", err, string(output))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("edge-tts produced no output: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// edgeRate converts a speed multiplier into edge-tts's signed percentage
func edgeRate(speed float64) string {
	if speed <= 0 || speed == 1 {
		return ""
	}
	pct := int(math.Round((speed - 1) * 100))
	if pct == 0 {
		return ""
	}
	return fmt.Sprintf("%+d%%", pct)
}

// IsAvailable reports whether the edge-tts binary can be found
func (p *EdgeProvider) IsAvailable(ctx context.Context) bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// EdgeProviderFromConfig creates an edge-tts provider from configuration
func EdgeProviderFromConfig(config map[string]interface{}) (*EdgeProvider, error) {
	binary, _ := config["binary"].(string)
	return NewEdgeProvider(binary), nil
}
