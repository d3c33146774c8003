package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Provider defines the interface for TTS providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Synthesize generates audio from text and returns an audio stream
	Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error)

	// IsAvailable checks if the provider is available (can be used)
	IsAvailable(ctx context.Context) bool

	// OutputFormat returns the container of the audio Synthesize produces
	OutputFormat() string
}

// VoiceLister is implemented by providers that can enumerate their voices
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]Voice, error)
}

// Voice represents a voice option
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
}

// SynthesizeOptions contains options for text synthesis
type SynthesizeOptions struct {
	Voice    string  `json:"voice"`
	Speed    float64 `json:"speed,omitempty"`    // Speed multiplier (0.25-4.0)
	Format   string  `json:"format,omitempty"`   // Output format (mp3, wav)
	Language string  `json:"language,omitempty"` // Language code
	Model    string  `json:"model,omitempty"`

	// ElevenLabs
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`

	// Polly and GCP
	Engine     string `json:"engine,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`

	// Reference is a path or URL to a speaker sample for voice-cloning providers
	Reference string `json:"reference,omitempty"`
}

// APIError is a non-success HTTP response from a provider API
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

func newAPIError(provider string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// normalizeFormat maps format aliases to mp3 or wav
func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "wav", "wave", "pcm", "linear16":
		return "wav"
	default:
		return "mp3"
	}
}
