package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/audio"
	"github.com/daikw/ccpodcast/internal/podcast"
)

func handleMusic(ctx context.Context, c *cli.Command) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	dir := c.String("dir")
	if dir == "" {
		dir = cfg.Audio.MusicDir
	}

	written, err := podcast.WriteLoops(dir, audio.DefaultFormat, c.Bool("force"))
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Printf("All mood loops already exist in %s (use --force to replace them)\n", dir)
		return nil
	}
	for _, path := range written {
		fmt.Printf("✅ Generated %s\n", path)
	}
	return nil
}
