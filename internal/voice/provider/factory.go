package provider

import (
	"context"
	"fmt"
)

// Names of the built-in providers, in default fallback order
var Names = []string{
	"cartesia",
	"elevenlabs",
	"fishaudio",
	"replicate",
	"openai",
	"polly",
	"gcp",
	"edge",
}

// DefaultFactory is the default provider factory
type DefaultFactory struct {
	transcoder Transcoder
}

// NewFactory creates a new provider factory. The transcoder is handed to
// providers that need to convert their output; it may be nil.
func NewFactory(transcoder Transcoder) *DefaultFactory {
	return &DefaultFactory{transcoder: transcoder}
}

// CreateProvider creates a provider instance by name
func (f *DefaultFactory) CreateProvider(ctx context.Context, providerName string, config map[string]interface{}) (Provider, error) {
	if config == nil {
		config = map[string]interface{}{}
	}

	switch providerName {
	case "cartesia":
		return CartesiaProviderFromConfig(config)
	case "elevenlabs":
		return ElevenLabsProviderFromConfig(config)
	case "fishaudio":
		return FishAudioProviderFromConfig(config)
	case "replicate":
		return ReplicateProviderFromConfig(config, f.transcoder)
	case "openai":
		return OpenAIProviderFromConfig(config)
	case "polly":
		return PollyProviderFromConfig(ctx, config)
	case "gcp":
		return GCPProviderFromConfig(ctx, config)
	case "edge":
		return EdgeProviderFromConfig(config)
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}

// ListProviders returns available provider names
func (f *DefaultFactory) ListProviders() []string {
	out := make([]string, len(Names))
	copy(out, Names)
	return out
}
