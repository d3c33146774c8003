package voice

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/voice/provider"
)

// ProviderFactory creates providers by name
type ProviderFactory interface {
	CreateProvider(ctx context.Context, name string, settings map[string]interface{}) (provider.Provider, error)
}

type voiceCloner interface {
	CloneVoice(ctx context.Context, name, samplePath string) (string, error)
}

// BuildChain constructs the fallback chain from configuration. Providers
// without credentials are left out. transcoder may be nil.
func BuildChain(ctx context.Context, cfg *config.Config, transcoder provider.Transcoder) ([]Tier, error) {
	return BuildChainWithFactory(ctx, cfg, provider.NewFactory(transcoder))
}

// BuildChainWithFactory is BuildChain with an explicit provider factory
func BuildChainWithFactory(ctx context.Context, cfg *config.Config, factory ProviderFactory) ([]Tier, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	chain := cfg.Chain
	if len(chain) == 0 {
		chain = config.DefaultChain
	}

	var tiers []Tier
	for _, name := range chain {
		if !cfg.Configured(name) {
			log.Debug().Str("provider", name).Msg("Skipping provider without credentials")
			continue
		}

		pc := cfg.Provider(name)
		p, err := factory.CreateProvider(ctx, name, pc.Settings())
		if err != nil {
			log.Warn().Err(err).Str("provider", name).Msg("Failed to create provider")
			continue
		}
		if name == "edge" && !p.IsAvailable(ctx) {
			log.Debug().Msg("edge-tts not found, skipping")
			continue
		}

		tier := Tier{
			Provider: p,
			Voices:   DefaultVoices[name].Merge(pc.Voices),
			Options: provider.SynthesizeOptions{
				Speed:           pc.Speed,
				Model:           pc.Model,
				Format:          pc.Format,
				Language:        pc.Language,
				Stability:       pc.Stability,
				SimilarityBoost: pc.SimilarityBoost,
				Engine:          pc.Engine,
				SampleRate:      pc.SampleRate,
			},
		}
		if len(pc.References) > 0 {
			tier.References = VoiceMap{}.Merge(pc.References)
			if cloner, ok := p.(voiceCloner); ok {
				cloneVoices(ctx, cloner, tier.Voices, tier.References)
			}
		}

		tiers = append(tiers, tier)
	}

	if len(tiers) == 0 {
		return nil, fmt.Errorf("no speech providers available (configure at least one of %v)", chain)
	}
	return tiers, nil
}

// cloneVoices replaces role voices with clones of their reference samples.
// A failed clone keeps the stock voice.
func cloneVoices(ctx context.Context, cloner voiceCloner, voices, references VoiceMap) {
	for _, role := range script.Roles {
		sample, ok := references[role]
		if !ok {
			continue
		}
		id, err := cloner.CloneVoice(ctx, "ccpodcast-"+string(role), sample)
		if err != nil {
			log.Warn().Err(err).Str("role", string(role)).Msg("Voice cloning failed, using stock voice")
			continue
		}
		voices[role] = id
	}
}
