package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/config"
)

var (
	version  = "dev"
	revision = "none"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:  "ccpodcast",
		Usage: "Turn articles and scripts into multi-voice podcast episodes",
		Description: `ccpodcast generates a dialogue script from an article, voices each line
through a chain of speech providers, and mixes the result over mood-matched
background music.`,
		Version: fmt.Sprintf("%s (rev: %s)", version, revision),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a config file (default: .ccpodcast/config.json, then ~/.ccpodcast/config.json)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "generate",
				Aliases: []string{"gen", "g"},
				Usage:   "Generate a podcast episode from a script or an article URL",
				Action:  handleGenerate,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "script",
						Aliases: []string{"s"},
						Usage:   "Script file (text or JSON); '-' reads stdin",
					},
					&cli.StringFlag{
						Name:    "url",
						Aliases: []string{"u"},
						Usage:   "Article URL to scrape and turn into a script",
					},
					&cli.StringFlag{
						Name:  "moods",
						Usage: "JSON file of mood segments [{\"start_line_index\": N, \"sentiment\": \"TENSE\"}]",
					},
					&cli.StringFlag{
						Name:  "persona",
						Usage: "Host style for generated scripts: investigator, comedian, friend, or a custom persona",
						Value: "investigator",
					},
					&cli.StringFlag{
						Name:  "depth",
						Usage: "Episode length for generated scripts: summary, deep_dive",
						Value: "deep_dive",
					},
					&cli.BoolFlag{
						Name:  "improv",
						Usage: "Ask for interruptions, laughter and asides",
					},
					&cli.StringFlag{
						Name:  "guest-url",
						Usage: "Profile page of a guest to invite into the conversation",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Episode title for history (defaults to the script's title or the article's first line)",
					},
					&cli.StringFlag{
						Name:  "intro",
						Usage: "Intro audio file prepended to the speech",
					},
					&cli.BoolFlag{
						Name:  "ad",
						Usage: "Insert an ad break",
					},
					&cli.FloatFlag{
						Name:  "ad-position",
						Usage: "Where the ad goes, as a fraction of the speech clips (0-1)",
						Value: 0.5,
					},
					&cli.StringFlag{
						Name:  "ad-audio",
						Usage: "Ad audio file (default: the configured default ad)",
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Directory for the finished episode",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: mp3, wav",
					},
					&cli.IntFlag{
						Name:    "concurrency",
						Aliases: []string{"j"},
						Usage:   "Segments synthesized in parallel",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Do not use the clip cache",
					},
				},
			},
			{
				Name:      "say",
				Usage:     "Synthesize one line through the provider chain",
				ArgsUsage: "<text>",
				Action:    handleSay,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "role",
						Aliases: []string{"r"},
						Usage:   "Speaker role: host1, host2, guest",
						Value:   "host1",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path without extension",
						Value:   "say",
					},
				},
			},
			{
				Name:   "voices",
				Usage:  "Show the provider chain and available voices",
				Action: handleVoices,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   "List voices of a single provider",
					},
				},
			},
			{
				Name:  "persona",
				Usage: "Manage host styles for script generation",
				Commands: []*cli.Command{
					{
						Name:    "list",
						Aliases: []string{"ls"},
						Usage:   "List available personas",
						Action:  handlePersonaList,
					},
					{
						Name:      "show",
						Usage:     "Show a persona",
						ArgsUsage: "<persona>",
						Action:    handlePersonaShow,
					},
					{
						Name:      "create",
						Usage:     "Create a custom persona from a template",
						ArgsUsage: "<name>",
						Action:    handlePersonaCreate,
					},
					{
						Name:      "edit",
						Usage:     "Edit a custom persona in $EDITOR",
						ArgsUsage: "<persona>",
						Action:    handlePersonaEdit,
					},
				},
			},
			{
				Name:  "history",
				Usage: "Browse generated episodes",
				Commands: []*cli.Command{
					{
						Name:    "list",
						Aliases: []string{"ls"},
						Usage:   "List recent episodes",
						Action:  handleHistoryList,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:    "limit",
								Aliases: []string{"n"},
								Usage:   "Maximum number of episodes",
								Value:   20,
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Show one episode with its script",
						ArgsUsage: "<id>",
						Action:    handleHistoryShow,
					},
				},
			},
			{
				Name:  "config",
				Usage: "Manage configuration",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show the effective configuration (secrets masked)",
						Action: handleConfigShow,
					},
					{
						Name:   "validate",
						Usage:  "Validate the configuration",
						Action: handleConfigValidate,
					},
					{
						Name:   "init",
						Usage:  "Write an example configuration",
						Action: handleConfigInit,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:    "global",
								Aliases: []string{"g"},
								Usage:   "Write ~/.ccpodcast/config.json instead of the project config",
							},
						},
					},
				},
			},
			{
				Name:   "music",
				Usage:  "Render placeholder mood loops into the music directory",
				Action: handleMusic,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory (defaults to audio.musicDir)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Replace existing loops",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Check providers, tools and stores",
				Action: handleStatus,
			},
			{
				Name:   "mcp",
				Usage:  "Serve podcast tools over MCP (stdio)",
				Action: handleMCP,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			if err := config.LoadDotEnv(c.String("env-file")); err != nil {
				log.Warn().Err(err).Msg("Failed to load env file")
			}
			return nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}
