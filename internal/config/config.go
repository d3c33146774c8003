package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config is the full application configuration
type Config struct {
	// Chain lists provider names in fallback order
	Chain []string `json:"chain,omitempty"`

	// ProviderTimeout bounds each provider call, in seconds
	ProviderTimeout int `json:"providerTimeout,omitempty"`

	Providers map[string]ProviderConfig `json:"providers,omitempty"`
	Audio     AudioConfig               `json:"audio"`
	Output    OutputConfig              `json:"output"`
	Cache     CacheConfig               `json:"cache"`
	History   HistoryConfig             `json:"history"`
	LLM       LLMConfig                 `json:"llm"`
	Scraper   ScraperConfig             `json:"scraper"`
}

// ProviderConfig represents provider-specific configuration
type ProviderConfig struct {
	// Common options
	APIKey  string  `json:"apiKey,omitempty"`
	BaseURL string  `json:"baseUrl,omitempty"`
	Model   string  `json:"model,omitempty"`
	Format  string  `json:"format,omitempty"`
	Speed   float64 `json:"speed,omitempty"`

	// Voices maps a role (host1, host2, guest) to a provider voice id
	Voices map[string]string `json:"voices,omitempty"`

	// References maps a role to a speaker sample used for cloning
	References map[string]string `json:"references,omitempty"`

	// ElevenLabs options
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarityBoost,omitempty"`

	// Amazon Polly options
	Region     string `json:"region,omitempty"`
	Engine     string `json:"engine,omitempty"`
	SampleRate string `json:"sampleRate,omitempty"`

	// Google Cloud options
	ProjectID       string `json:"projectId,omitempty"`
	CredentialsFile string `json:"credentialsFile,omitempty"`
	Language        string `json:"language,omitempty"`

	// edge-tts options
	Binary string `json:"binary,omitempty"`
}

// AudioConfig controls assets and mixing
type AudioConfig struct {
	MusicDir  string `json:"musicDir,omitempty"`
	DefaultAd string `json:"defaultAd,omitempty"`
	FFmpeg    string `json:"ffmpeg,omitempty"`

	// DuckDB is the background gain in dB; 0 keeps the default of -18
	DuckDB float64 `json:"duckDb,omitempty"`

	// CrossfadeMs joins mood changes; 0 keeps the default of 500 and a
	// negative value disables crossfading
	CrossfadeMs int `json:"crossfadeMs,omitempty"`
}

// OutputConfig controls where and how episodes are written
type OutputConfig struct {
	Dir         string `json:"dir,omitempty"`
	Format      string `json:"format,omitempty"`
	WorkDir     string `json:"workDir,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

// CacheConfig enables the Redis clip cache when RedisAddr is set
type CacheConfig struct {
	RedisAddr     string `json:"redisAddr,omitempty"`
	RedisPassword string `json:"redisPassword,omitempty"`
	RedisDB       int    `json:"redisDb,omitempty"`
	TTLHours      int    `json:"ttlHours,omitempty"`
}

// HistoryConfig selects the history store. DatabaseURL wins over Dir.
type HistoryConfig struct {
	Dir         string `json:"dir,omitempty"`
	DatabaseURL string `json:"databaseUrl,omitempty"`
}

// LLMConfig configures the OpenAI-compatible script generator
type LLMConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model,omitempty"`
}

// ScraperConfig configures article fetching
type ScraperConfig struct {
	Token   string `json:"token,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// DefaultChain is the provider fallback order used when none is configured
var DefaultChain = []string{
	"cartesia",
	"elevenlabs",
	"fishaudio",
	"replicate",
	"openai",
	"polly",
	"gcp",
	"edge",
}

// Default returns the built-in configuration
func Default() *Config {
	chain := make([]string, len(DefaultChain))
	copy(chain, DefaultChain)

	return &Config{
		Chain:           chain,
		ProviderTimeout: 30,
		Providers:       map[string]ProviderConfig{},
		Audio: AudioConfig{
			MusicDir:    "assets/music",
			DefaultAd:   "assets/ads/default_ad.mp3",
			DuckDB:      -18,
			CrossfadeMs: 500,
		},
		Output: OutputConfig{
			Dir:         "history",
			Format:      "mp3",
			Concurrency: 1,
		},
		Cache: CacheConfig{
			TTLHours: 24 * 7,
		},
		History: HistoryConfig{
			Dir: "history",
		},
		LLM: LLMConfig{
			BaseURL: "https://api.cerebras.ai/v1",
			Model:   "llama3.1-8b",
		},
		Scraper: ScraperConfig{
			BaseURL: "https://api.crawlbase.com",
		},
	}
}

// Timeout returns the per-call provider timeout
func (c *Config) Timeout() time.Duration {
	if c == nil || c.ProviderTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ProviderTimeout) * time.Second
}

// CacheTTL returns the clip cache entry lifetime
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLHours <= 0 {
		return 0
	}
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// Provider returns configuration for a provider, or an empty config
func (c *Config) Provider(name string) ProviderConfig {
	if c == nil || c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[name]
}

// Configured reports whether a provider has the credentials it needs
func (c *Config) Configured(name string) bool {
	p := c.Provider(name)
	switch name {
	case "polly":
		return p.Region != ""
	case "gcp":
		return p.ProjectID != "" || p.CredentialsFile != ""
	case "edge":
		return true
	default:
		return p.APIKey != ""
	}
}

// Settings flattens a provider config into the map the provider factory takes
func (p ProviderConfig) Settings() map[string]interface{} {
	settings := map[string]interface{}{}
	put := func(key, value string) {
		if value != "" {
			settings[key] = value
		}
	}
	put("api_key", p.APIKey)
	put("base_url", p.BaseURL)
	put("model", p.Model)
	put("format", p.Format)
	put("region", p.Region)
	put("engine", p.Engine)
	put("sample_rate", p.SampleRate)
	put("project_id", p.ProjectID)
	put("credentials_file", p.CredentialsFile)
	put("language", p.Language)
	put("binary", p.Binary)
	if p.Stability > 0 {
		settings["stability"] = p.Stability
	}
	if p.SimilarityBoost > 0 {
		settings["similarity_boost"] = p.SimilarityBoost
	}
	return settings
}

// MaskSecrets masks sensitive values in config for display.
// Only the presence and length of a secret are shown.
func (c *Config) MaskSecrets() *Config {
	if c == nil {
		return nil
	}

	masked := *c
	masked.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for name, provider := range c.Providers {
		provider.APIKey = mask(provider.APIKey)
		masked.Providers[name] = provider
	}
	masked.LLM.APIKey = mask(c.LLM.APIKey)
	masked.Scraper.Token = mask(c.Scraper.Token)
	masked.Cache.RedisPassword = mask(c.Cache.RedisPassword)
	if c.History.DatabaseURL != "" {
		masked.History.DatabaseURL = mask(c.History.DatabaseURL)
	}
	return &masked
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return fmt.Sprintf("[set, %d chars]", len(secret))
}

// GenerateExampleConfig generates an example configuration
func GenerateExampleConfig() string {
	example := Default()
	example.Providers = map[string]ProviderConfig{
		"cartesia": {
			APIKey: "${CARTESIA_API_KEY}",
			References: map[string]string{
				"host1": "assets/voices/host1.wav",
				"host2": "assets/voices/host2.wav",
			},
		},
		"elevenlabs": {
			APIKey:          "${ELEVENLABS_API_KEY}",
			Model:           "eleven_multilingual_v2",
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
		"fishaudio": {
			APIKey: "${FISH_AUDIO_API_KEY}",
			Voices: map[string]string{"host1": "your-model-id"},
		},
		"replicate": {
			APIKey: "${REPLICATE_API_TOKEN}",
			References: map[string]string{
				"host1": "assets/voices/host1.wav",
				"host2": "assets/voices/host2.wav",
				"guest": "assets/voices/guest.wav",
			},
		},
		"openai": {
			APIKey: "${OPENAI_API_KEY}",
			Model:  "tts-1",
		},
		"polly": {
			Region: "us-east-1",
			Engine: "neural",
		},
		"gcp": {
			ProjectID: "${GOOGLE_CLOUD_PROJECT}",
		},
		"edge": {},
	}
	example.LLM.APIKey = "${CEREBRAS_API_KEY}"
	example.Scraper.Token = "${CRAWLBASE_TOKEN}"

	data, _ := json.MarshalIndent(example, "", "  ")
	return string(data)
}
