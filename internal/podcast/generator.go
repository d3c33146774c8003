package podcast

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/daikw/ccpodcast/internal/audio"
	"github.com/daikw/ccpodcast/internal/history"
	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/voice"
)

// SpeechSynthesizer produces one audio file per utterance
type SpeechSynthesizer interface {
	SynthesizeOutput(ctx context.Context, text string, role script.Role, basePath string) (*voice.Output, error)
}

// Request is one episode to generate
type Request struct {
	// Script is anything script.Parse accepts
	Script    any
	Hints     script.Hints
	IntroPath string
	Ad        *AdRequest

	// Format overrides the configured output format (mp3 or wav)
	Format string

	// Metadata passed through to history
	URL          string
	Title        string
	Content      string
	ShowNotes    string
	Chapters     []string
	SocialAssets history.SocialAssets
}

// Result describes the exported episode
type Result struct {
	Path       string
	DurationMs int
	Segments   int
	Skipped    int
	AdIndex    int
	Providers  []string
	Episode    *history.Episode
}

// Options configure a Generator
type Options struct {
	Format       beep.Format
	OutputDir    string
	OutputFormat string
	WorkDir      string
	Concurrency  int
	DefaultAd    string

	// DuckDB is the background gain; zero means DefaultDuckDB
	DuckDB float64
	// Crossfade between mood groups; zero means DefaultCrossfade and a
	// negative value disables it
	Crossfade time.Duration

	Library    *Library
	Transcoder Transcoder
	History    history.Sink

	// Progress is called after each segment is synthesized, possibly from
	// several goroutines
	Progress func(done, total int)
}

// Generator runs the whole pipeline for a request
type Generator struct {
	synth SpeechSynthesizer
	opts  Options
}

// NewGenerator fills unset options with defaults
func NewGenerator(synth SpeechSynthesizer, opts Options) *Generator {
	if opts.Format.SampleRate == 0 {
		opts.Format = audio.DefaultFormat
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "history"
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = "mp3"
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.DuckDB == 0 {
		opts.DuckDB = DefaultDuckDB
	}
	if opts.Crossfade == 0 {
		opts.Crossfade = DefaultCrossfade
	}
	if opts.Library == nil {
		opts.Library = NewLibrary(nil)
	}
	return &Generator{synth: synth, opts: opts}
}

// Generate parses, synthesizes, assembles, mixes and exports one episode
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	segments := script.Parse(req.Script)
	if len(segments) == 0 {
		return nil, ErrEmptyInput
	}
	log.Info().Int("segments", len(segments)).Msg("Generating podcast")

	workDir, err := os.MkdirTemp(g.opts.WorkDir, "ccpodcast-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	outputs, err := g.synthesize(ctx, segments, workDir)
	if err != nil {
		log.Debug().Str("dir", workDir).Msg("Keeping work directory after failure")
		return nil, err
	}

	var (
		clips     []SpeechClip
		tempFiles []string
		providers []string
	)
	for i, out := range outputs {
		if out == nil {
			continue
		}
		tempFiles = append(tempFiles, out.Path)
		clip, err := audio.DecodeFile(out.Path, g.opts.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to decode segment %d: %w", segments[i].Index, err)
		}
		clips = append(clips, SpeechClip{SegmentIndex: segments[i].Index, Audio: clip, Path: out.Path})
		if !slices.Contains(providers, out.Provider) {
			providers = append(providers, out.Provider)
		}
	}

	assembler := NewAssembler(g.opts.Format, g.opts.DefaultAd, adVoice{g.synth}, workDir)
	assembly, err := assembler.Assemble(ctx, clips, req.Hints, AssembleOptions{
		IntroPath: req.IntroPath,
		Ad:        req.Ad,
	})
	if err != nil {
		return nil, err
	}

	speech := assembly.Speech(g.opts.Format)
	background, err := NewMoodTrackBuilder(g.opts.Library, g.opts.Format, g.opts.Crossfade).Build(assembly.Buffers, assembly.Hints)
	if err != nil {
		return nil, fmt.Errorf("failed to build background: %w", err)
	}

	mixed, err := NewMixer(g.opts.DuckDB).Mix(speech, background)
	if err != nil {
		return nil, fmt.Errorf("failed to mix: %w", err)
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = g.opts.OutputFormat
	}
	path := filepath.Join(g.opts.OutputDir, fmt.Sprintf("podcast_%s.%s", uuid.NewString(), format))
	if err := NewExporter(g.opts.Transcoder).Export(ctx, mixed, path); err != nil {
		return nil, err
	}

	Cleanup(tempFiles...)
	if err := os.RemoveAll(workDir); err != nil {
		log.Debug().Err(err).Msg("Failed to remove work directory")
	}

	result := &Result{
		Path:       path,
		DurationMs: mixed.DurationMs(),
		Segments:   len(clips),
		Skipped:    len(segments) - len(clips),
		AdIndex:    assembly.AdIndex,
		Providers:  providers,
	}
	result.Episode = &history.Episode{
		URL:          req.URL,
		Title:        req.Title,
		Script:       script.Format(segments),
		Content:      req.Content,
		ShowNotes:    req.ShowNotes,
		Chapters:     req.Chapters,
		SocialAssets: req.SocialAssets,
		AudioPath:    path,
		DurationMs:   result.DurationMs,
		Segments:     result.Segments,
		Providers:    providers,
	}
	if g.opts.History != nil {
		if err := g.opts.History.Record(ctx, result.Episode); err != nil {
			log.Warn().Err(err).Msg("Failed to record episode in history")
		}
	}

	log.Info().
		Str("path", path).
		Int("duration_ms", result.DurationMs).
		Strs("providers", providers).
		Msg("Podcast generated")
	return result, nil
}

// synthesize returns one output per segment in segment order; skipped
// segments are nil.
func (g *Generator) synthesize(ctx context.Context, segments []script.Segment, workDir string) ([]*voice.Output, error) {
	outputs := make([]*voice.Output, len(segments))
	var done atomic.Int32

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, seg := range segments {
		eg.Go(func() error {
			base := filepath.Join(workDir, fmt.Sprintf("segment_%04d", seg.Index))
			out, err := g.synth.SynthesizeOutput(egCtx, seg.Text, seg.Role, base)
			switch {
			case errors.Is(err, voice.ErrEmptyText):
				log.Debug().Int("index", seg.Index).Msg("Skipping segment without speakable text")
			case err != nil:
				return fmt.Errorf("segment %d: %w", seg.Index, err)
			default:
				outputs[i] = out
			}
			if g.opts.Progress != nil {
				g.opts.Progress(int(done.Add(1)), len(segments))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

type adVoice struct {
	synth SpeechSynthesizer
}

func (a adVoice) Synthesize(ctx context.Context, text string, role script.Role, basePath string) (string, error) {
	out, err := a.synth.SynthesizeOutput(ctx, text, role, basePath)
	if err != nil {
		return "", err
	}
	return out.Path, nil
}
