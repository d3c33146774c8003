package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	CartesiaBaseURL        = "https://api.cartesia.ai"
	CartesiaAPIVersion     = "2024-06-10"
	CartesiaTTSEndpoint    = "/tts/bytes"
	CartesiaVoicesEndpoint = "/voices"
	CartesiaCloneEndpoint  = "/voices/clone"
	CartesiaDefaultModel   = "sonic-english"
)

// CartesiaProvider implements the Provider interface for the Cartesia TTS API
type CartesiaProvider struct {
	apiKey     string
	baseURL    string
	model      string
	format     string
	httpClient *http.Client
}

// NewCartesiaProvider creates a new Cartesia TTS provider
func NewCartesiaProvider(apiKey string) *CartesiaProvider {
	return &CartesiaProvider{
		apiKey:  apiKey,
		baseURL: CartesiaBaseURL,
		model:   CartesiaDefaultModel,
		format:  "wav",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name returns the provider name
func (p *CartesiaProvider) Name() string {
	return "cartesia"
}

// OutputFormat returns wav unless mp3 was configured
func (p *CartesiaProvider) OutputFormat() string {
	return p.format
}

type cartesiaVoiceSpec struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate"`
	BitRate    int    `json:"bit_rate,omitempty"`
}

// CartesiaTTSRequest represents the request body for /tts/bytes
type CartesiaTTSRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoiceSpec    `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
	Language     string               `json:"language,omitempty"`
}

// CartesiaVoice is a voice entry returned by the voices API
type CartesiaVoice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Synthesize generates audio from text using Cartesia
func (p *CartesiaProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if options.Voice == "" {
		return nil, fmt.Errorf("voice is required for Cartesia")
	}

	model := options.Model
	if model == "" {
		model = p.model
	}

	language := options.Language
	if language == "" {
		language = "en"
	}

	output := cartesiaOutputFormat{Container: "wav", Encoding: "pcm_s16le", SampleRate: 44100}
	if p.format == "mp3" {
		output = cartesiaOutputFormat{Container: "mp3", SampleRate: 44100, BitRate: 128000}
	}

	jsonData, err := json.Marshal(CartesiaTTSRequest{
		ModelID:      model,
		Transcript:   text,
		Voice:        cartesiaVoiceSpec{Mode: "id", ID: options.Voice},
		OutputFormat: output,
		Language:     language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+CartesiaTTSEndpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("voice", options.Voice).
		Str("model", model).
		Str("container", output.Container).
		Msg("Making Cartesia TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, newAPIError("Cartesia", resp)
	}

	return resp.Body, nil
}

// ListVoices returns the voices visible to the API key
func (p *CartesiaProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+CartesiaVoicesEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make voices request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError("Cartesia", resp)
	}

	// The API has returned both a bare array and a paginated envelope.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read voices response: %w", err)
	}
	var list []CartesiaVoice
	if err := json.Unmarshal(body, &list); err != nil {
		var page struct {
			Data []CartesiaVoice `json:"data"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode voices response: %w", err)
		}
		list = page.Data
	}

	voices := make([]Voice, 0, len(list))
	for _, v := range list {
		voices = append(voices, Voice{
			ID:          v.ID,
			Name:        v.Name,
			Language:    v.Language,
			Description: v.Description,
		})
	}
	return voices, nil
}

// CloneVoice returns the id of a voice cloned from samplePath. An existing
// voice with the same name is reused instead of cloning again.
func (p *CartesiaProvider) CloneVoice(ctx context.Context, name, samplePath string) (string, error) {
	if voices, err := p.ListVoices(ctx); err == nil {
		for _, v := range voices {
			if v.Name == name {
				log.Debug().Str("name", name).Str("id", v.ID).Msg("Reusing cloned Cartesia voice")
				return v.ID, nil
			}
		}
	}

	sample, err := os.Open(samplePath)
	if err != nil {
		return "", fmt.Errorf("failed to open voice sample: %w", err)
	}
	defer sample.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("clip", filepath.Base(samplePath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, sample); err != nil {
		return "", fmt.Errorf("failed to read voice sample: %w", err)
	}
	fields := map[string]string{
		"name":        name,
		"description": "Cloned from " + filepath.Base(samplePath),
		"language":    "en",
		"mode":        "similarity",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+CartesiaCloneEndpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create clone request: %w", err)
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make clone request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", newAPIError("Cartesia", resp)
	}

	var cloned CartesiaVoice
	if err := json.NewDecoder(resp.Body).Decode(&cloned); err != nil {
		return "", fmt.Errorf("failed to decode clone response: %w", err)
	}
	if cloned.ID == "" {
		return "", fmt.Errorf("clone response did not include a voice id")
	}

	log.Info().Str("name", name).Str("id", cloned.ID).Msg("Cloned Cartesia voice")
	return cloned.ID, nil
}

// IsAvailable reports whether an API key is configured
func (p *CartesiaProvider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

func (p *CartesiaProvider) setHeaders(req *http.Request) {
	req.Header.Set("X-API-Key", p.apiKey)
	req.Header.Set("Cartesia-Version", CartesiaAPIVersion)
}

// CartesiaProviderFromConfig creates a Cartesia provider from configuration
func CartesiaProviderFromConfig(config map[string]interface{}) (*CartesiaProvider, error) {
	apiKey, ok := config["api_key"].(string)
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("api_key is required for Cartesia provider")
	}

	provider := NewCartesiaProvider(apiKey)

	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		provider.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model, ok := config["model"].(string); ok && model != "" {
		provider.model = model
	}
	if format, ok := config["format"].(string); ok && format != "" {
		provider.format = normalizeFormat(format)
	}

	return provider, nil
}
