package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PollyClient interface defines the methods we need from the Polly client
type PollyClient interface {
	DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyProvider implements the Provider interface for Amazon Polly
type PollyProvider struct {
	client PollyClient
	region string
	engine types.Engine
}

// NewPollyProvider creates a new Amazon Polly TTS provider
func NewPollyProvider(ctx context.Context, region string) (*PollyProvider, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewPollyProviderWithClient(polly.NewFromConfig(cfg), region), nil
}

// NewPollyProviderWithClient wraps an existing client
func NewPollyProviderWithClient(client PollyClient, region string) *PollyProvider {
	return &PollyProvider{
		client: client,
		region: region,
		engine: types.EngineNeural,
	}
}

// Name returns the provider name
func (p *PollyProvider) Name() string {
	return "polly"
}

func (p *PollyProvider) OutputFormat() string {
	return "mp3"
}

// ListVoices returns available Amazon Polly voices
func (p *PollyProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	result, err := p.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{
		LanguageCode: types.LanguageCodeEnUs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list Polly voices: %w", err)
	}

	voices := make([]Voice, 0, len(result.Voices))
	for _, v := range result.Voices {
		voice := Voice{
			ID:       string(v.Id),
			Name:     aws.ToString(v.Name),
			Language: string(v.LanguageCode),
			Description: fmt.Sprintf("%s voice, %s engine supported",
				cases.Title(language.English).String(string(v.Gender)),
				formatSupportedEngines(v.SupportedEngines)),
		}

		switch v.Gender {
		case types.GenderFemale:
			voice.Gender = "female"
		case types.GenderMale:
			voice.Gender = "male"
		}

		voices = append(voices, voice)
	}

	return voices, nil
}

// Synthesize generates audio from text using Amazon Polly
func (p *PollyProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voiceID := options.Voice
	if voiceID == "" {
		voiceID = "Joanna"
	}

	engine := p.engine
	if options.Engine != "" {
		engine = parseEngine(options.Engine)
	}

	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		VoiceId:      types.VoiceId(voiceID),
		OutputFormat: types.OutputFormatMp3,
		Engine:       engine,
		TextType:     types.TextTypeText,
	}

	if options.SampleRate != "" {
		switch options.SampleRate {
		case "8000", "16000", "22050", "24000":
			input.SampleRate = aws.String(options.SampleRate)
		default:
			log.Warn().Str("sample_rate", options.SampleRate).Msg("Invalid sample rate, using default")
		}
	}

	if strings.Contains(text, "<speak>") {
		input.TextType = types.TextTypeSsml
	}

	log.Debug().
		Str("voice_id", voiceID).
		Str("engine", string(engine)).
		Str("text_type", string(input.TextType)).
		Msg("Making Polly synthesis request")

	result, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	return result.AudioStream, nil
}

// IsAvailable checks that the Polly API answers
func (p *PollyProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{})
	return err == nil
}

func parseEngine(engine string) types.Engine {
	switch strings.ToLower(engine) {
	case "standard":
		return types.EngineStandard
	case "neural":
		return types.EngineNeural
	case "long-form":
		return types.EngineLongForm
	case "generative":
		return types.EngineGenerative
	default:
		log.Warn().Str("engine", engine).Msg("Unknown engine, using neural")
		return types.EngineNeural
	}
}

// PollyProviderFromConfig creates a Polly provider from configuration
func PollyProviderFromConfig(ctx context.Context, config map[string]interface{}) (*PollyProvider, error) {
	region := "us-east-1"
	if r, ok := config["region"].(string); ok && r != "" {
		region = r
	}

	provider, err := NewPollyProvider(ctx, region)
	if err != nil {
		return nil, err
	}
	if engine, ok := config["engine"].(string); ok && engine != "" {
		provider.engine = parseEngine(engine)
	}
	return provider, nil
}

// formatSupportedEngines formats the list of supported engines for display
func formatSupportedEngines(engines []types.Engine) string {
	if len(engines) == 0 {
		return "unknown"
	}

	names := make([]string, len(engines))
	for i, engine := range engines {
		names[i] = string(engine)
	}
	return strings.Join(names, ", ")
}
