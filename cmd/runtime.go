package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/audio"
	"github.com/daikw/ccpodcast/internal/cache"
	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/ffmpeg"
	"github.com/daikw/ccpodcast/internal/history"
	"github.com/daikw/ccpodcast/internal/podcast"
	"github.com/daikw/ccpodcast/internal/voice"
)

// loadConfig honors --config, otherwise searches the project and global paths
func loadConfig(c *cli.Command) (*config.Config, string, error) {
	loader := config.NewLoader()

	if path := c.String("config"); path != "" {
		cfg, err := loader.LoadFromPath(path)
		if err != nil {
			return nil, path, fmt.Errorf("failed to load config: %w", err)
		}
		cfg.ApplyEnv(os.LookupEnv)
		return cfg, path, nil
	}

	workDir, _ := os.Getwd()
	cfg, path, err := loader.Load(workDir)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, path, nil
}

// pipeline holds everything a generation needs, with the resources to release
type pipeline struct {
	cfg        *config.Config
	synth      *voice.Synthesizer
	transcoder podcast.Transcoder
	history    history.Store
	closers    []func() error
}

func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			log.Debug().Err(err).Msg("Failed to release resource")
		}
	}
}

// newTranscoder returns ffmpeg when it is installed. The result is a nil
// interface otherwise.
func newTranscoder(cfg *config.Config) podcast.Transcoder {
	runner := ffmpeg.New(cfg.Audio.FFmpeg)
	if !runner.Available() {
		log.Debug().Msg("ffmpeg not found; mp3 export and replicate are unavailable")
		return nil
	}
	return runner
}

type pipelineOptions struct {
	cache   bool
	history bool
}

// newPipeline builds the provider chain with the optional clip cache and
// history store
func newPipeline(ctx context.Context, cfg *config.Config, po pipelineOptions) (*pipeline, error) {
	p := &pipeline{cfg: cfg, transcoder: newTranscoder(cfg)}

	tiers, err := voice.BuildChain(ctx, cfg, p.transcoder)
	if err != nil {
		return nil, err
	}

	opts := []voice.Option{voice.WithTimeout(cfg.Timeout())}
	if po.cache && cfg.Cache.RedisAddr != "" {
		clipCache, err := cache.Open(ctx, cfg.Cache, cfg.CacheTTL())
		if err != nil {
			log.Warn().Err(err).Msg("Clip cache unavailable, continuing without it")
		} else {
			opts = append(opts, voice.WithCache(clipCache))
			p.closers = append(p.closers, clipCache.Close)
		}
	}
	p.synth = voice.NewSynthesizer(tiers, opts...)

	if po.history {
		store, err := history.Open(ctx, cfg.History)
		if err != nil {
			log.Warn().Err(err).Msg("History unavailable, episodes will not be recorded")
		} else {
			p.history = store
			p.closers = append(p.closers, store.Close)
		}
	}

	names := make([]string, 0, len(tiers))
	for _, t := range tiers {
		names = append(names, t.Name())
	}
	log.Debug().Strs("chain", names).Msg("Speech providers ready")
	return p, nil
}

// generator returns a podcast generator configured from p.cfg
func (p *pipeline) generator(outputDir, format string, concurrency int, progress func(done, total int)) *podcast.Generator {
	cfg := p.cfg
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	if format == "" {
		format = cfg.Output.Format
	}
	if concurrency <= 0 {
		concurrency = cfg.Output.Concurrency
	}

	opts := podcast.Options{
		Format:       audio.DefaultFormat,
		OutputDir:    outputDir,
		OutputFormat: format,
		WorkDir:      cfg.Output.WorkDir,
		Concurrency:  concurrency,
		DefaultAd:    cfg.Audio.DefaultAd,
		DuckDB:       cfg.Audio.DuckDB,
		Crossfade:    time.Duration(cfg.Audio.CrossfadeMs) * time.Millisecond,
		Library:      podcast.LoadLibrary(cfg.Audio.MusicDir, audio.DefaultFormat),
		Transcoder:   p.transcoder,
		Progress:     progress,
	}
	if p.history != nil {
		opts.History = p.history
	}
	return podcast.NewGenerator(p.synth, opts)
}
