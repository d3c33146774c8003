package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/cache"
	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/ffmpeg"
	"github.com/daikw/ccpodcast/internal/history"
	"github.com/daikw/ccpodcast/internal/script"
)

type checker struct {
	issues   int
	warnings int
}

func (ck *checker) ok(format string, args ...any) {
	fmt.Printf("%s %s\n", color.GreenString("✅"), fmt.Sprintf(format, args...))
}

func (ck *checker) warn(format string, args ...any) {
	ck.warnings++
	fmt.Printf("%s %s\n", color.YellowString("⚠️ "), fmt.Sprintf(format, args...))
}

func (ck *checker) fail(format string, args ...any) {
	ck.issues++
	fmt.Printf("%s %s\n", color.RedString("❌"), fmt.Sprintf(format, args...))
}

func handleStatus(ctx context.Context, c *cli.Command) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}

	ck := &checker{}
	fmt.Printf("ccpodcast %s (%s)\n", version, revision)
	if path != "" {
		ck.ok("Config: %s", path)
	} else {
		ck.warn("Config: none found, using defaults (run 'ccpodcast config init')")
	}
	for _, problem := range cfg.Validate() {
		ck.fail("Config: %s", problem)
	}

	fmt.Println()
	configured := 0
	for _, name := range cfg.Chain {
		if cfg.Configured(name) {
			configured++
			ck.ok("Provider %s: configured", name)
		} else {
			fmt.Printf("   Provider %s: %s\n", name, color.HiBlackString("not configured"))
		}
	}
	if configured == 0 {
		ck.fail("No speech provider is configured")
	}

	fmt.Println()
	runner := ffmpeg.New(cfg.Audio.FFmpeg)
	if runner.Available() {
		ck.ok("ffmpeg: found")
	} else {
		ck.warn("ffmpeg: not found (mp3 export and replicate need it)")
	}

	checkAssets(ck, cfg)

	fmt.Println()
	if cfg.LLM.APIKey != "" {
		ck.ok("Script generation: %s at %s", cfg.LLM.Model, cfg.LLM.BaseURL)
	} else {
		ck.warn("Script generation: no API key (set CEREBRAS_API_KEY); --url is unavailable")
	}
	if cfg.Scraper.Token != "" {
		ck.ok("Scraper: Crawlbase token set")
	} else {
		ck.warn("Scraper: no token (set CRAWLBASE_TOKEN); --url is unavailable")
	}

	if cfg.Cache.RedisAddr != "" {
		clipCache, err := cache.Open(ctx, cfg.Cache, cfg.CacheTTL())
		if err != nil {
			ck.fail("Clip cache: %v", err)
		} else {
			clipCache.Close()
			ck.ok("Clip cache: redis at %s", cfg.Cache.RedisAddr)
		}
	}

	store, err := history.Open(ctx, cfg.History)
	switch {
	case err != nil:
		ck.fail("History: %v", err)
	case cfg.History.DatabaseURL != "":
		store.Close()
		ck.ok("History: postgres")
	default:
		store.Close()
		ck.ok("History: %s", cfg.History.Dir)
	}

	fmt.Println()
	if ck.issues == 0 && ck.warnings == 0 {
		fmt.Println(color.GreenString("All checks passed!"))
	} else {
		fmt.Printf("%d issue(s), %d warning(s)\n", ck.issues, ck.warnings)
	}
	return nil
}

func checkAssets(ck *checker, cfg *config.Config) {
	var missing []string
	for _, mood := range script.Moods {
		base := filepath.Join(cfg.Audio.MusicDir, strings.ToLower(string(mood)))
		if !exists(base+".mp3") && !exists(base+".wav") {
			missing = append(missing, string(mood))
		}
	}
	switch {
	case len(missing) == 0:
		ck.ok("Music loops: all moods in %s", cfg.Audio.MusicDir)
	case len(missing) == len(script.Moods):
		ck.warn("Music loops: none in %s; episodes will have no background (run 'ccpodcast music')", cfg.Audio.MusicDir)
	default:
		ck.warn("Music loops: missing %s (falls back to LOFI)", strings.Join(missing, ", "))
	}

	base := strings.TrimSuffix(cfg.Audio.DefaultAd, filepath.Ext(cfg.Audio.DefaultAd))
	if exists(base+".mp3") || exists(base+".wav") {
		ck.ok("Default ad: %s", cfg.Audio.DefaultAd)
	} else {
		ck.warn("Default ad: %s not found; ad breaks use a spoken filler", cfg.Audio.DefaultAd)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
