package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPClient is the subset of the Cloud TTS client the provider uses
type GCPClient interface {
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GCPProvider implements the Provider interface for Google Cloud Text-to-Speech
type GCPProvider struct {
	client    GCPClient
	projectID string
	language  string
}

// GCPProviderOption is a functional option for configuring GCPProvider
type GCPProviderOption func(*gcpSettings)

type gcpSettings struct {
	projectID       string
	language        string
	credentialsFile string
}

// WithGCPProjectID sets the Google Cloud project ID used for quota
func WithGCPProjectID(projectID string) GCPProviderOption {
	return func(s *gcpSettings) {
		s.projectID = projectID
	}
}

// WithGCPLanguage sets the default language code
func WithGCPLanguage(language string) GCPProviderOption {
	return func(s *gcpSettings) {
		s.language = language
	}
}

// WithGCPCredentialsFile authenticates with a service account key file
func WithGCPCredentialsFile(path string) GCPProviderOption {
	return func(s *gcpSettings) {
		s.credentialsFile = path
	}
}

// NewGCPProvider creates a new Google Cloud TTS provider.
// Without a credentials file, Application Default Credentials are used.
func NewGCPProvider(ctx context.Context, opts ...GCPProviderOption) (*GCPProvider, error) {
	s := gcpSettings{language: "en-US"}
	for _, opt := range opts {
		opt(&s)
	}

	var clientOpts []option.ClientOption
	if s.credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(s.credentialsFile))
	}
	if s.projectID != "" {
		clientOpts = append(clientOpts, option.WithQuotaProject(s.projectID))
	}

	client, err := texttospeech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP TTS client: %w", err)
	}

	return &GCPProvider{
		client:    client,
		projectID: s.projectID,
		language:  s.language,
	}, nil
}

// NewGCPProviderWithClient wraps an existing client
func NewGCPProviderWithClient(client GCPClient, language string) *GCPProvider {
	if language == "" {
		language = "en-US"
	}
	return &GCPProvider{client: client, language: language}
}

// Name returns the provider name
func (p *GCPProvider) Name() string {
	return "gcp"
}

func (p *GCPProvider) OutputFormat() string {
	return "mp3"
}

// ListVoices returns available voices for the provider's language
func (p *GCPProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: p.language})
	if err != nil {
		return nil, fmt.Errorf("failed to list GCP voices: %w", describeGRPCError(err))
	}

	var voices []Voice
	for _, v := range resp.Voices {
		gender := "unknown"
		switch v.SsmlGender {
		case texttospeechpb.SsmlVoiceGender_MALE:
			gender = "male"
		case texttospeechpb.SsmlVoiceGender_FEMALE:
			gender = "female"
		case texttospeechpb.SsmlVoiceGender_NEUTRAL:
			gender = "neutral"
		}

		voices = append(voices, Voice{
			ID:          v.Name,
			Name:        v.Name,
			Language:    strings.Join(v.LanguageCodes, ","),
			Gender:      gender,
			Description: fmt.Sprintf("%s voice", detectEngineType(v.Name)),
		})
	}

	log.Debug().Int("count", len(voices)).Msg("Listed GCP TTS voices")
	return voices, nil
}

// detectEngineType determines the engine type from voice name
func detectEngineType(voiceName string) string {
	name := strings.ToLower(voiceName)
	switch {
	case strings.Contains(name, "wavenet"):
		return "WaveNet"
	case strings.Contains(name, "neural2"):
		return "Neural2"
	case strings.Contains(name, "studio"):
		return "Studio"
	case strings.Contains(name, "journey"):
		return "Journey"
	case strings.Contains(name, "news"):
		return "News"
	case strings.Contains(name, "casual"):
		return "Casual"
	default:
		return "Standard"
	}
}

// Synthesize generates audio from text using Google Cloud TTS
func (p *GCPProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := options.Voice
	language := p.language
	if options.Language != "" {
		language = options.Language
	} else if parts := strings.Split(voice, "-"); len(parts) >= 2 {
		// en-US-Neural2-D -> en-US
		language = parts[0] + "-" + parts[1]
	}

	log.Debug().
		Str("voice", voice).
		Str("language", language).
		Float64("speed", options.Speed).
		Msg("Making GCP TTS synthesis request")

	resp, err := p.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: language,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:    speakingRate(options.Speed),
			SampleRateHertz: 44100,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", describeGRPCError(err))
	}

	return io.NopCloser(bytes.NewReader(resp.AudioContent)), nil
}

// speakingRate clamps speed to the range GCP accepts
func speakingRate(speed float64) float64 {
	switch {
	case speed <= 0:
		return 1.0
	case speed < 0.25:
		return 0.25
	case speed > 4.0:
		return 4.0
	default:
		return speed
	}
}

// describeGRPCError annotates errors with their gRPC status code
func describeGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("credentials rejected (%s): %w", st.Code(), err)
	case codes.ResourceExhausted:
		return fmt.Errorf("quota exhausted: %w", err)
	case codes.DeadlineExceeded, codes.Unavailable:
		return fmt.Errorf("service unavailable (%s): %w", st.Code(), err)
	default:
		return err
	}
}

// IsAvailable checks if the GCP TTS service answers
func (p *GCPProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: p.language})
	return err == nil
}

// Close closes the GCP client
func (p *GCPProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// GCPProviderFromConfig creates a GCPProvider from configuration map
func GCPProviderFromConfig(ctx context.Context, config map[string]interface{}) (*GCPProvider, error) {
	var opts []GCPProviderOption

	if projectID, ok := config["project_id"].(string); ok && projectID != "" {
		opts = append(opts, WithGCPProjectID(projectID))
	}
	if language, ok := config["language"].(string); ok && language != "" {
		opts = append(opts, WithGCPLanguage(language))
	}
	if path, ok := config["credentials_file"].(string); ok && path != "" {
		opts = append(opts, WithGCPCredentialsFile(path))
	}

	return NewGCPProvider(ctx, opts...)
}
