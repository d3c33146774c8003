package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const fileName = "config.json"

// Loader handles loading configuration from files
type Loader struct {
	projectPath string
	globalPath  string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		projectPath: filepath.Join(".ccpodcast", fileName),
		globalPath:  filepath.Join(homeDir, ".ccpodcast", fileName),
	}
}

// ProjectPath returns the project config path under workDir
func (l *Loader) ProjectPath(workDir string) string {
	return filepath.Join(workDir, l.projectPath)
}

// GlobalPath returns the per-user config path
func (l *Loader) GlobalPath() string {
	return l.globalPath
}

// Load loads configuration with priority:
// 1. Project-local config (.ccpodcast/config.json)
// 2. Global config (~/.ccpodcast/config.json)
// 3. Built-in defaults
// Environment fallbacks are applied in every case.
func (l *Loader) Load(workDir string) (*Config, string, error) {
	for _, path := range []string{l.ProjectPath(workDir), l.globalPath} {
		cfg, err := l.loadFromFile(path)
		if err == nil {
			log.Debug().Str("path", path).Msg("Loaded config")
			cfg.ApplyEnv(os.LookupEnv)
			return cfg, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, err
		}
	}

	log.Debug().Msg("No config file found, using defaults")
	cfg := Default()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, "", nil
}

// LoadFromPath loads configuration from a specific path
func (l *Loader) LoadFromPath(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}
	cfg, err := l.loadFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// validateConfigPath checks that the config path is safe to use
func validateConfigPath(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("invalid config path: path traversal not allowed")
	}
	if filepath.Ext(filepath.Clean(path)) != ".json" {
		return fmt.Errorf("invalid config path: must be a .json file")
	}
	return nil
}

func (l *Loader) loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := json.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	checkFilePermissions(path)
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Variable names are not logged; they can hint at secrets.
		log.Debug().Msg("Referenced environment variable not set in config")
		return ""
	})
}

func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		log.Warn().
			Str("permissions", fmt.Sprintf("%04o", mode)).
			Msg("Config file may contain secrets but has permissive permissions. Consider: chmod 600")
	}
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("Loaded environment file")
	}
	return nil
}

// envFallbacks maps provider names to the variable holding their API key
var envFallbacks = map[string]string{
	"cartesia":   "CARTESIA_API_KEY",
	"elevenlabs": "ELEVENLABS_API_KEY",
	"fishaudio":  "FISH_AUDIO_API_KEY",
	"replicate":  "REPLICATE_API_TOKEN",
	"openai":     "OPENAI_API_KEY",
}

// ApplyEnv fills empty credentials from the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}

	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	for name, key := range envFallbacks {
		p := c.Providers[name]
		if p.APIKey == "" {
			if v := get(key); v != "" {
				p.APIKey = v
				c.Providers[name] = p
			}
		}
	}

	polly := c.Providers["polly"]
	if polly.Region == "" {
		if v := get("AWS_REGION"); v != "" {
			polly.Region = v
			c.Providers["polly"] = polly
		}
	}

	gcp := c.Providers["gcp"]
	changed := false
	if gcp.ProjectID == "" {
		if v := get("GOOGLE_CLOUD_PROJECT"); v != "" {
			gcp.ProjectID = v
			changed = true
		}
	}
	if gcp.CredentialsFile == "" {
		if v := get("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
			gcp.CredentialsFile = v
			changed = true
		}
	}
	if changed {
		c.Providers["gcp"] = gcp
	}

	if c.LLM.APIKey == "" {
		c.LLM.APIKey = get("CEREBRAS_API_KEY")
	}
	if c.Scraper.Token == "" {
		c.Scraper.Token = get("CRAWLBASE_TOKEN")
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = get("REDIS_ADDR")
	}
	if c.History.DatabaseURL == "" {
		c.History.DatabaseURL = get("DATABASE_URL")
	}
}
