package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ElevenLabsBaseURL        = "https://api.elevenlabs.io/v1"
	ElevenLabsTTSEndpoint    = "/text-to-speech"
	ElevenLabsVoicesEndpoint = "/voices"
	ElevenLabsOutputFormat   = "mp3_44100_128"
)

// ElevenLabsProvider implements the Provider interface for ElevenLabs TTS API v1
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	model      string
	settings   VoiceSettings
	httpClient *http.Client
}

// NewElevenLabsProvider creates a new ElevenLabs TTS provider
func NewElevenLabsProvider(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:  apiKey,
		baseURL: ElevenLabsBaseURL,
		model:   "eleven_multilingual_v2",
		settings: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			UseSpeakerBoost: true,
		},
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // ElevenLabs can be slower than OpenAI
		},
	}
}

// Name returns the provider name
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// OutputFormat always returns mp3; the PCM variants come without a container
func (p *ElevenLabsProvider) OutputFormat() string {
	return "mp3"
}

// ElevenLabsVoice represents a voice from ElevenLabs API
type ElevenLabsVoice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Labels      map[string]string `json:"labels"`
	Description string            `json:"description"`
	PreviewURL  string            `json:"preview_url"`
	FineTuning  struct {
		Language string `json:"language"`
	} `json:"fine_tuning"`
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// ElevenLabsVoicesResponse represents the response from voices API
type ElevenLabsVoicesResponse struct {
	Voices []ElevenLabsVoice `json:"voices"`
}

// ListVoices returns available ElevenLabs voices
func (p *ElevenLabsProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+ElevenLabsVoicesEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make voices request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError("ElevenLabs", resp)
	}

	var voicesResp ElevenLabsVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&voicesResp); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	voices := make([]Voice, 0, len(voicesResp.Voices))
	for _, v := range voicesResp.Voices {
		language := "multilingual"
		if v.FineTuning.Language != "" {
			language = v.FineTuning.Language
		}
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Language:    language,
			Gender:      v.Labels["gender"],
			Description: v.Description,
		})
	}

	log.Debug().
		Int("voice_count", len(voices)).
		Msg("ElevenLabs voices retrieved successfully")

	return voices, nil
}

// ElevenLabsTTSRequest represents the request body for TTS synthesis
type ElevenLabsTTSRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize generates audio from text using ElevenLabs TTS API
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := options.Voice
	if voice == "" {
		voice = "21m00Tcm4TlvDq8ikWAM" // Rachel
	}

	model := options.Model
	if model == "" {
		model = p.model
	}

	settings := p.settings
	if options.Stability > 0 {
		settings.Stability = options.Stability
	}
	if options.SimilarityBoost > 0 {
		settings.SimilarityBoost = options.SimilarityBoost
	}
	if options.Style > 0 {
		settings.Style = options.Style
	}

	jsonData, err := json.Marshal(ElevenLabsTTSRequest{
		Text:          text,
		ModelID:       model,
		VoiceSettings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s/%s?output_format=%s",
		p.baseURL, ElevenLabsTTSEndpoint, url.PathEscape(voice), ElevenLabsOutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", p.apiKey)

	log.Debug().
		Str("voice", voice).
		Str("model", model).
		Msg("Making ElevenLabs TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		var errorResp ElevenLabsError
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Detail != nil {
			return nil, &APIError{Provider: "ElevenLabs", StatusCode: resp.StatusCode, Body: errorResp.String()}
		}
		return nil, &APIError{Provider: "ElevenLabs", StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp.Body, nil
}

// IsAvailable reports whether an API key is configured
func (p *ElevenLabsProvider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

// ElevenLabsProviderFromConfig creates an ElevenLabs provider from configuration
func ElevenLabsProviderFromConfig(config map[string]interface{}) (*ElevenLabsProvider, error) {
	apiKey, ok := config["api_key"].(string)
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("api_key is required for ElevenLabs provider")
	}

	provider := NewElevenLabsProvider(apiKey)

	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		provider.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model, ok := config["model"].(string); ok && model != "" {
		provider.model = model
	}
	if v, ok := config["stability"].(float64); ok && v > 0 {
		provider.settings.Stability = v
	}
	if v, ok := config["similarity_boost"].(float64); ok && v > 0 {
		provider.settings.SimilarityBoost = v
	}

	return provider, nil
}

// ElevenLabsError represents an error from ElevenLabs API
type ElevenLabsError struct {
	Detail interface{} `json:"detail"`
}

func (e ElevenLabsError) String() string {
	switch detail := e.Detail.(type) {
	case string:
		return detail
	case map[string]interface{}:
		if msg, ok := detail["message"].(string); ok {
			return msg
		}
	case []interface{}:
		if len(detail) > 0 {
			if first, ok := detail[0].(map[string]interface{}); ok {
				if msg, ok := first["msg"].(string); ok {
					return msg
				}
			}
		}
	}
	return fmt.Sprintf("%v", e.Detail)
}
