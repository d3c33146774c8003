package config

import (
	"fmt"
	"slices"
	"sort"
)

var knownRoles = []string{"host1", "host2", "guest"}

// Validate validates the configuration and returns human-readable problems
func (c *Config) Validate() []string {
	var errors []string

	if c == nil {
		return errors
	}

	seen := map[string]bool{}
	for _, name := range c.Chain {
		if !slices.Contains(DefaultChain, name) {
			errors = append(errors, fmt.Sprintf("chain: unknown provider %q", name))
		}
		if seen[name] {
			errors = append(errors, fmt.Sprintf("chain: provider %q listed twice", name))
		}
		seen[name] = true
	}
	if len(c.Chain) == 0 {
		errors = append(errors, "chain: at least one provider is required")
	}

	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		provider := c.Providers[name]
		errors = append(errors, validateProviderConfig(name, &provider)...)
	}

	if c.Audio.DuckDB > 0 {
		errors = append(errors, "audio: duckDb must be negative (0 keeps the default)")
	}
	switch c.Output.Format {
	case "", "mp3", "wav":
	default:
		errors = append(errors, fmt.Sprintf("output: unsupported format %q (mp3 or wav)", c.Output.Format))
	}
	if c.Output.Concurrency < 0 {
		errors = append(errors, "output: concurrency must not be negative")
	}
	if c.ProviderTimeout < 0 {
		errors = append(errors, "providerTimeout must not be negative")
	}

	return errors
}

func validateProviderConfig(name string, config *ProviderConfig) []string {
	var errors []string

	switch name {
	case "cartesia", "openai", "fishaudio":
		if config.APIKey == "" {
			errors = append(errors, fmt.Sprintf("%s: apiKey is required (use ${%s} for env var)", name, envFallbacks[name]))
		}
	case "replicate":
		if config.APIKey == "" {
			errors = append(errors, fmt.Sprintf("%s: apiKey is required (use ${REPLICATE_API_TOKEN} for env var)", name))
		}
		if len(config.References) == 0 {
			errors = append(errors, fmt.Sprintf("%s: references are required for voice cloning", name))
		}
	case "elevenlabs":
		if config.APIKey == "" {
			errors = append(errors, fmt.Sprintf("%s: apiKey is required (use ${ELEVENLABS_API_KEY} for env var)", name))
		}
		if config.Stability < 0 || config.Stability > 1 {
			errors = append(errors, fmt.Sprintf("%s: stability must be between 0.0 and 1.0", name))
		}
		if config.SimilarityBoost < 0 || config.SimilarityBoost > 1 {
			errors = append(errors, fmt.Sprintf("%s: similarityBoost must be between 0.0 and 1.0", name))
		}
	case "polly":
		validRegions := []string{"us-east-1", "us-west-2", "eu-west-1", "eu-central-1", "ap-northeast-1", "ap-southeast-1"}
		if config.Region != "" && !slices.Contains(validRegions, config.Region) {
			errors = append(errors, fmt.Sprintf("%s: region '%s' may not be valid", name, config.Region))
		}
	case "gcp", "edge":
	default:
		errors = append(errors, fmt.Sprintf("%s: unknown provider", name))
	}

	for role := range config.Voices {
		if !slices.Contains(knownRoles, role) {
			errors = append(errors, fmt.Sprintf("%s: voices has unknown role %q", name, role))
		}
	}
	for role := range config.References {
		if !slices.Contains(knownRoles, role) {
			errors = append(errors, fmt.Sprintf("%s: references has unknown role %q", name, role))
		}
	}

	if config.Speed != 0 && (config.Speed < 0.25 || config.Speed > 4.0) {
		errors = append(errors, fmt.Sprintf("%s: speed must be between 0.25 and 4.0", name))
	}

	return errors
}
