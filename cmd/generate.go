package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/persona"
	"github.com/daikw/ccpodcast/internal/podcast"
	"github.com/daikw/ccpodcast/internal/scrape"
	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/scriptgen"
)

// episodeSource is a script with the metadata that travels into history
type episodeSource struct {
	pkg     *scriptgen.Package
	url     string
	content string
}

func handleGenerate(ctx context.Context, c *cli.Command) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	source, err := resolveSource(ctx, c, cfg)
	if err != nil {
		return err
	}

	hints := source.pkg.Hints()
	if path := c.String("moods"); path != "" {
		hints, err = readMoods(path)
		if err != nil {
			return err
		}
	}

	p, err := newPipeline(ctx, cfg, pipelineOptions{cache: !c.Bool("no-cache"), history: true})
	if err != nil {
		return err
	}
	defer p.Close()

	var mu sync.Mutex
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(os.Stderr, "\r🎙️  Synthesizing %d/%d", done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
	gen := p.generator(c.String("output-dir"), c.String("format"), int(c.Int("concurrency")), progress)

	title := c.String("title")
	if title == "" {
		title = source.pkg.EpisodeTitle(source.content)
	}

	req := podcast.Request{
		Script:       source.pkg.Script,
		Hints:        hints,
		IntroPath:    c.String("intro"),
		Format:       c.String("format"),
		URL:          source.url,
		Title:        title,
		Content:      source.content,
		ShowNotes:    source.pkg.ShowNotes,
		Chapters:     source.pkg.ChapterTitles(),
		SocialAssets: source.pkg.Social(),
	}
	if c.Bool("ad") || c.String("ad-audio") != "" {
		req.Ad = &podcast.AdRequest{
			PositionFraction: c.Float("ad-position"),
			AudioPath:        c.String("ad-audio"),
		}
	}

	result, err := gen.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate podcast: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s Podcast saved to %s\n", green("✅"), result.Path)
	fmt.Fprintf(os.Stderr, "   %d segments (%d skipped), %.1fs, voiced by %s\n",
		result.Segments, result.Skipped, float64(result.DurationMs)/1000, strings.Join(result.Providers, ", "))
	if result.AdIndex >= 0 {
		fmt.Fprintf(os.Stderr, "   ad break at clip %d\n", result.AdIndex)
	}
	if result.Episode != nil && result.Episode.ID != "" {
		fmt.Fprintf(os.Stderr, "   history id %s\n", result.Episode.ID)
	}
	fmt.Println(result.Path)
	return nil
}

// resolveSource reads --script, or scrapes --url and writes a script for it
func resolveSource(ctx context.Context, c *cli.Command, cfg *config.Config) (*episodeSource, error) {
	scriptPath := c.String("script")
	articleURL := c.String("url")

	switch {
	case scriptPath != "":
		data, err := readInput(scriptPath)
		if err != nil {
			return nil, err
		}
		pkg, err := scriptgen.ReadPackage(data)
		if err != nil {
			return nil, err
		}
		return &episodeSource{pkg: pkg, url: articleURL}, nil

	case articleURL != "":
		scraper := scrape.NewClient(cfg.Scraper.Token, cfg.Scraper.BaseURL)
		article, err := scraper.Fetch(ctx, articleURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scrape article: %w", err)
		}

		writer, err := scriptgen.New(cfg.LLM)
		if err != nil {
			return nil, err
		}

		manager, err := persona.NewManager("")
		if err != nil {
			return nil, err
		}
		style, err := manager.Load(c.String("persona"))
		if err != nil {
			return nil, err
		}

		opts := scriptgen.Options{
			Persona: style,
			Depth:   persona.ParseDepth(c.String("depth")),
			Improv:  c.Bool("improv"),
		}
		if guestURL := c.String("guest-url"); guestURL != "" {
			opts.Guest = inviteGuest(ctx, scraper, writer, guestURL)
		}

		fmt.Fprintf(os.Stderr, "📝 Writing a %s script in the %s style...\n", opts.Depth, style.Name)
		pkg, err := writer.Generate(ctx, article, opts)
		if err != nil {
			return nil, err
		}
		return &episodeSource{pkg: pkg, url: articleURL, content: article}, nil

	default:
		return nil, fmt.Errorf("either --script or --url is required")
	}
}

// inviteGuest builds a guest persona from a profile page. Failures leave the
// episode as a two-host show.
func inviteGuest(ctx context.Context, scraper *scrape.Client, writer *scriptgen.Generator, profileURL string) *persona.Guest {
	profile, err := scraper.Fetch(ctx, profileURL)
	if err != nil {
		log.Warn().Err(err).Str("url", profileURL).Msg("Failed to fetch guest profile")
		return nil
	}
	guest, err := writer.ExtractGuest(ctx, profile)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to extract guest persona")
		return nil
	}
	log.Info().Str("guest", guest.DisplayName()).Msg("Guest invited")
	return guest
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return data, nil
}

func readMoods(path string) (script.Hints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read moods: %w", err)
	}
	var hints []script.Hint
	if err := json.Unmarshal(data, &hints); err != nil {
		return nil, fmt.Errorf("failed to decode moods: %w", err)
	}
	return script.HintsFrom(hints), nil
}
