package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ReplicateBaseURL = "https://api.replicate.com/v1"

	// XTTS-v2 on Replicate (lucataco/xtts-v2)
	ReplicateXTTSVersion = "684bc3855b37866c0c65add2ff39c78f3dea3f4ff103a436465326e0f438d55e"
)

// Transcoder converts an audio file into the container implied by out
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// ReplicateProvider runs XTTS voice-clone inference on Replicate. Each call
// is conditioned on a reference sample of the target speaker.
type ReplicateProvider struct {
	apiToken     string
	baseURL      string
	version      string
	language     string
	pollInterval time.Duration
	transcoder   Transcoder
	httpClient   *http.Client
}

// NewReplicateProvider creates a Replicate XTTS provider. With a transcoder
// the WAV output is converted to mp3.
func NewReplicateProvider(apiToken string, transcoder Transcoder) *ReplicateProvider {
	return &ReplicateProvider{
		apiToken:     apiToken,
		baseURL:      ReplicateBaseURL,
		version:      ReplicateXTTSVersion,
		language:     "en",
		pollInterval: time.Second,
		transcoder:   transcoder,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (p *ReplicateProvider) Name() string {
	return "replicate"
}

func (p *ReplicateProvider) OutputFormat() string {
	if p.transcoder != nil {
		return "mp3"
	}
	return "wav"
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Synthesize creates a prediction, waits for it, and downloads the output
func (p *ReplicateProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if options.Reference == "" {
		return nil, fmt.Errorf("reference audio is required for Replicate XTTS")
	}

	speaker, err := referenceURI(options.Reference)
	if err != nil {
		return nil, err
	}

	language := options.Language
	if language == "" {
		language = p.language
	}

	pred, err := p.createPrediction(ctx, map[string]interface{}{
		"text":          text,
		"speaker":       speaker,
		"language":      language,
		"cleanup_voice": false,
	})
	if err != nil {
		return nil, err
	}

	pred, err = p.wait(ctx, pred)
	if err != nil {
		return nil, err
	}

	outputURL, err := predictionOutput(pred)
	if err != nil {
		return nil, err
	}

	data, err := p.download(ctx, outputURL)
	if err != nil {
		return nil, err
	}

	if p.transcoder == nil {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return p.transcode(ctx, data)
}

func (p *ReplicateProvider) createPrediction(ctx context.Context, input map[string]interface{}) (*replicatePrediction, error) {
	jsonData, err := json.Marshal(map[string]interface{}{
		"version": p.version,
		"input":   input,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predictions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	log.Debug().
		Str("version", p.version).
		Msg("Creating Replicate prediction")

	return p.doPrediction(req)
}

func (p *ReplicateProvider) wait(ctx context.Context, pred *replicatePrediction) (*replicatePrediction, error) {
	for {
		switch pred.Status {
		case "succeeded":
			return pred, nil
		case "failed", "canceled":
			return nil, fmt.Errorf("replicate prediction %s %s: %v", pred.ID, pred.Status, pred.Error)
		}
		if pred.URLs.Get == "" {
			return nil, fmt.Errorf("replicate prediction %s has no status url", pred.ID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pred.URLs.Get, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create poll request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+p.apiToken)

		next, err := p.doPrediction(req)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("id", next.ID).Str("status", next.Status).Msg("Polled Replicate prediction")
		pred = next
	}
}

func (p *ReplicateProvider) doPrediction(req *http.Request) (*replicatePrediction, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, newAPIError("Replicate", resp)
	}

	var pred replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}
	return &pred, nil
}

func (p *ReplicateProvider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError("Replicate", resp)
	}
	return io.ReadAll(resp.Body)
}

func (p *ReplicateProvider) transcode(ctx context.Context, wav []byte) (io.ReadCloser, error) {
	dir, err := os.MkdirTemp("", "ccpodcast-xtts-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "output.wav")
	out := filepath.Join(dir, "output.mp3")
	if err := os.WriteFile(in, wav, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write xtts output: %w", err)
	}
	if err := p.transcoder.Transcode(ctx, in, out); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcoded output: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// IsAvailable reports whether an API token is configured
func (p *ReplicateProvider) IsAvailable(ctx context.Context) bool {
	return p.apiToken != ""
}

func predictionOutput(pred *replicatePrediction) (string, error) {
	var single string
	if err := json.Unmarshal(pred.Output, &single); err == nil && single != "" {
		return single, nil
	}
	var many []string
	if err := json.Unmarshal(pred.Output, &many); err == nil && len(many) > 0 {
		return many[len(many)-1], nil
	}
	return "", fmt.Errorf("replicate prediction %s returned no output", pred.ID)
}

// referenceURI returns URLs unchanged and inlines local files as data URIs
func referenceURI(ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("failed to read reference audio: %w", err)
	}

	mime := "audio/mpeg"
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".wav":
		mime = "audio/wav"
	case ".ogg":
		mime = "audio/ogg"
	case ".flac":
		mime = "audio/flac"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ReplicateProviderFromConfig creates a Replicate provider from configuration
func ReplicateProviderFromConfig(config map[string]interface{}, transcoder Transcoder) (*ReplicateProvider, error) {
	token, ok := config["api_key"].(string)
	if !ok || token == "" {
		return nil, fmt.Errorf("api_key is required for Replicate provider")
	}

	provider := NewReplicateProvider(token, transcoder)
	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		provider.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	if version, ok := config["model"].(string); ok && version != "" {
		provider.version = version
	}
	if language, ok := config["language"].(string); ok && language != "" {
		provider.language = language
	}
	return provider, nil
}
