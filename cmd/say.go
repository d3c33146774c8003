package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/script"
)

func handleSay(ctx context.Context, c *cli.Command) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}

	role, err := script.ParseRole(c.String("role"))
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg, pipelineOptions{cache: true})
	if err != nil {
		return err
	}
	defer p.Close()

	out, err := p.synth.SynthesizeOutput(ctx, text, role, c.String("output"))
	if err != nil {
		return fmt.Errorf("failed to synthesize: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Audio saved to %s (%s)\n", out.Path, out.Provider)
	return nil
}
