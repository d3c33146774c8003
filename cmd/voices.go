package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/voice"
	"github.com/daikw/ccpodcast/internal/voice/provider"
)

func handleVoices(ctx context.Context, c *cli.Command) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	if name := c.String("provider"); name != "" {
		factory := provider.NewFactory(newTranscoder(cfg))
		p, err := factory.CreateProvider(ctx, name, cfg.Provider(name).Settings())
		if err != nil {
			return fmt.Errorf("failed to create provider: %w", err)
		}
		return listVoices(ctx, p)
	}

	tiers, err := voice.BuildChain(ctx, cfg, newTranscoder(cfg))
	if err != nil {
		return err
	}

	fmt.Println("Provider chain (first success wins):")
	for i, tier := range tiers {
		fmt.Printf("  %d. %s (%s)\n", i+1, tier.Name(), tier.Provider.OutputFormat())
		for _, role := range script.Roles {
			fmt.Printf("       %-6s %s\n", role, tier.Voices.For(role))
		}
	}
	return nil
}

func listVoices(ctx context.Context, p provider.Provider) error {
	lister, ok := p.(provider.VoiceLister)
	if !ok {
		return fmt.Errorf("provider %s cannot list voices", p.Name())
	}

	voices, err := lister.ListVoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	fmt.Printf("Available voices for %s:\n", p.Name())
	for _, v := range voices {
		fmt.Printf("  %-40s %s", v.ID, v.Name)
		if v.Language != "" {
			fmt.Printf(" [%s]", v.Language)
		}
		if v.Gender != "" {
			fmt.Printf(" (%s)", v.Gender)
		}
		fmt.Println()
	}
	return nil
}
