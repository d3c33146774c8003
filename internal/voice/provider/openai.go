package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for the OpenAI speech API
type OpenAIProvider struct {
	apiKey string
	model  string
	format string
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI TTS provider. An empty baseURL
// uses the public endpoint.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &OpenAIProvider{
		apiKey: apiKey,
		model:  string(openai.TTSModel1),
		format: "mp3",
		client: openai.NewClientWithConfig(cfg),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) OutputFormat() string {
	return p.format
}

// ListVoices returns the built-in OpenAI voices
func (p *OpenAIProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	return []Voice{
		{ID: "alloy", Name: "Alloy", Language: "en", Gender: "neutral", Description: "Balanced, clear voice"},
		{ID: "echo", Name: "Echo", Language: "en", Gender: "male", Description: "Deep, resonant voice"},
		{ID: "fable", Name: "Fable", Language: "en", Gender: "neutral", Description: "Expressive, storytelling voice"},
		{ID: "onyx", Name: "Onyx", Language: "en", Gender: "male", Description: "Strong, authoritative voice"},
		{ID: "nova", Name: "Nova", Language: "en", Gender: "female", Description: "Bright, energetic voice"},
		{ID: "shimmer", Name: "Shimmer", Language: "en", Gender: "female", Description: "Warm, friendly voice"},
	}, nil
}

// Synthesize generates audio from text using OpenAI
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := options.Voice
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	model := options.Model
	if model == "" {
		model = p.model
	}

	speed := options.Speed
	if speed == 0 {
		speed = 1.0
	}
	if speed < 0.25 || speed > 4.0 {
		return nil, fmt.Errorf("speed must be between 0.25 and 4.0, got %f", speed)
	}

	log.Debug().
		Str("voice", voice).
		Str("model", model).
		Str("format", p.format).
		Float64("speed", speed).
		Msg("Making OpenAI TTS request")

	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(p.format),
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI speech request failed: %w", err)
	}

	return resp, nil
}

// IsAvailable reports whether an API key is configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

// OpenAIProviderFromConfig creates an OpenAI provider from configuration
func OpenAIProviderFromConfig(config map[string]interface{}) (*OpenAIProvider, error) {
	apiKey, ok := config["api_key"].(string)
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("api_key is required for OpenAI provider")
	}

	baseURL, _ := config["base_url"].(string)
	provider := NewOpenAIProvider(apiKey, baseURL)

	if model, ok := config["model"].(string); ok && model != "" {
		provider.model = model
	}
	if format, ok := config["format"].(string); ok && format != "" {
		provider.format = normalizeFormat(format)
	}

	return provider, nil
}
