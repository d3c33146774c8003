package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	FishAudioBaseURL        = "https://api.fish.audio"
	FishAudioTTSEndpoint    = "/v1/tts"
	FishAudioModelsEndpoint = "/model"
)

// FishAudioProvider implements the Provider interface for Fish Audio.
// Voices are cloned models addressed by reference id.
type FishAudioProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewFishAudioProvider creates a new Fish Audio TTS provider
func NewFishAudioProvider(apiKey string) *FishAudioProvider {
	return &FishAudioProvider{
		apiKey:  apiKey,
		baseURL: FishAudioBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *FishAudioProvider) Name() string {
	return "fishaudio"
}

func (p *FishAudioProvider) OutputFormat() string {
	return "mp3"
}

// FishAudioTTSRequest represents the request body for /v1/tts
type FishAudioTTSRequest struct {
	Text        string `json:"text"`
	ReferenceID string `json:"reference_id,omitempty"`
	Format      string `json:"format"`
	MP3Bitrate  int    `json:"mp3_bitrate,omitempty"`
	Normalize   bool   `json:"normalize"`
	Latency     string `json:"latency,omitempty"`
}

// Synthesize generates audio from text using Fish Audio
func (p *FishAudioProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	jsonData, err := json.Marshal(FishAudioTTSRequest{
		Text:        text,
		ReferenceID: options.Voice,
		Format:      "mp3",
		MP3Bitrate:  128,
		Normalize:   true,
		Latency:     "normal",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+FishAudioTTSEndpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	model := options.Model
	if model == "" {
		model = p.model
	}
	if model != "" {
		req.Header.Set("model", model)
	}

	log.Debug().
		Str("reference_id", options.Voice).
		Str("model", model).
		Msg("Making Fish Audio TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, newAPIError("Fish Audio", resp)
	}

	return resp.Body, nil
}

type fishModel struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Languages   []string `json:"languages"`
}

// ListVoices returns the models owned by the API key
func (p *FishAudioProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+FishAudioModelsEndpoint+"?self=true", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create models request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make models request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError("Fish Audio", resp)
	}

	var page struct {
		Items []fishModel `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}

	voices := make([]Voice, 0, len(page.Items))
	for _, m := range page.Items {
		voices = append(voices, Voice{
			ID:          m.ID,
			Name:        m.Title,
			Language:    strings.Join(m.Languages, ","),
			Description: m.Description,
		})
	}
	return voices, nil
}

// IsAvailable reports whether an API key is configured
func (p *FishAudioProvider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

// FishAudioProviderFromConfig creates a Fish Audio provider from configuration
func FishAudioProviderFromConfig(config map[string]interface{}) (*FishAudioProvider, error) {
	apiKey, ok := config["api_key"].(string)
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("api_key is required for Fish Audio provider")
	}

	provider := NewFishAudioProvider(apiKey)
	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		provider.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model, ok := config["model"].(string); ok && model != "" {
		provider.model = model
	}
	return provider, nil
}
