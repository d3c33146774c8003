// Package voice drives speech synthesis across a prioritized chain of
// text-to-speech providers.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daikw/ccpodcast/internal/script"
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 30 * time.Second

var errEmptyOutput = errors.New("provider returned empty audio")

// ProviderError records one failed provider attempt
type ProviderError struct {
	Provider string
	Err      error
}

func (e ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e ProviderError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every provider in the chain failed
type ExhaustedError struct {
	Role     script.Role
	Attempts []ProviderError
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no speech providers configured for %s", e.Role)
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("all %d speech providers failed for %s: %s", len(e.Attempts), e.Role, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

// CachedClip is a synthesized clip as stored in a ClipCache
type CachedClip struct {
	Format string
	Data   []byte
}

// ClipCache stores synthesized clips keyed by CacheKey
type ClipCache interface {
	Get(ctx context.Context, key string) (*CachedClip, bool, error)
	Set(ctx context.Context, key string, clip CachedClip) error
}

// Output describes a successful synthesis
type Output struct {
	Path     string
	Provider string
	Cached   bool
}

// Synthesizer tries each tier in order until one produces audio
type Synthesizer struct {
	tiers   []Tier
	timeout time.Duration
	cache   ClipCache
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithTimeout sets the per-provider call timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCache enables the clip cache
func WithCache(cache ClipCache) Option {
	return func(s *Synthesizer) {
		s.cache = cache
	}
}

// NewSynthesizer creates a synthesizer over the given tiers
func NewSynthesizer(tiers []Tier, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		tiers:   tiers,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tiers returns the chain in priority order
func (s *Synthesizer) Tiers() []Tier {
	return s.tiers
}

// Synthesize writes speech for text to basePath plus the provider's extension
// and returns the written path.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, role script.Role, basePath string) (string, error) {
	out, err := s.SynthesizeOutput(ctx, text, role, basePath)
	if err != nil {
		return "", err
	}
	return out.Path, nil
}

// SynthesizeOutput is Synthesize that also reports which provider answered
func (s *Synthesizer) SynthesizeOutput(ctx context.Context, text string, role script.Role, basePath string) (*Output, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, ErrEmptyText
	}

	key := CacheKey(role, cleaned)
	if out := s.fromCache(ctx, key, basePath); out != nil {
		return out, nil
	}

	var attempts []ProviderError
	for _, tier := range s.tiers {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, ProviderError{Provider: tier.Name(), Err: err})
			break
		}

		path := basePath + "." + tier.Provider.OutputFormat()
		start := time.Now()
		err := s.attempt(ctx, tier, cleaned, role, path)
		if err == nil {
			log.Debug().
				Str("provider", tier.Name()).
				Str("role", string(role)).
				Dur("elapsed", time.Since(start)).
				Msg("Synthesized segment")
			s.toCache(ctx, key, tier.Provider.OutputFormat(), path)
			return &Output{Path: path, Provider: tier.Name()}, nil
		}

		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Debug().Err(rmErr).Str("path", path).Msg("Failed to remove partial audio")
		}
		log.Warn().Err(err).Str("provider", tier.Name()).Str("role", string(role)).Msg("Provider failed, trying next")
		attempts = append(attempts, ProviderError{Provider: tier.Name(), Err: err})
	}

	return nil, &ExhaustedError{Role: role, Attempts: attempts}
}

func (s *Synthesizer) attempt(ctx context.Context, tier Tier, text string, role script.Role, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream, err := tier.Provider.Synthesize(ctx, text, tier.options(role))
	if err != nil {
		return err
	}
	defer func() {
		_ = stream.Close()
	}()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := io.Copy(file, stream); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close audio file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return errEmptyOutput
	}
	return nil
}

func (s *Synthesizer) fromCache(ctx context.Context, key, basePath string) *Output {
	if s.cache == nil {
		return nil
	}
	clip, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Clip cache lookup failed")
		return nil
	}
	if !ok || len(clip.Data) == 0 {
		return nil
	}

	format := clip.Format
	if format == "" {
		format = "mp3"
	}
	path := basePath + "." + format
	if err := os.WriteFile(path, clip.Data, 0o644); err != nil {
		log.Warn().Err(err).Msg("Failed to write cached clip")
		return nil
	}
	log.Debug().Str("key", key[:12]).Msg("Clip cache hit")
	return &Output{Path: path, Provider: "cache", Cached: true}
}

func (s *Synthesizer) toCache(ctx context.Context, key, format, path string) {
	if s.cache == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, CachedClip{Format: format, Data: data}); err != nil {
		log.Warn().Err(err).Msg("Failed to store clip in cache")
	}
}
