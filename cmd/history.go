package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/history"
)

func handleHistoryList(ctx context.Context, c *cli.Command) error {
	store, err := openHistory(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	episodes, err := store.List(ctx, int(c.Int("limit")))
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		fmt.Println("No episodes yet. Create one with 'ccpodcast generate'")
		return nil
	}

	for _, ep := range episodes {
		title := ep.Title
		if title == "" {
			title = ep.URL
		}
		if title == "" {
			title = "(script)"
		}
		fmt.Printf("%s  %s  %6.1fs  %s\n",
			ep.ID, ep.CreatedAt.Local().Format(time.DateTime), float64(ep.DurationMs)/1000, title)
	}
	return nil
}

func handleHistoryShow(ctx context.Context, c *cli.Command) error {
	id := c.Args().Get(0)
	if id == "" {
		return fmt.Errorf("episode id is required")
	}

	store, err := openHistory(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	ep, err := store.Get(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("no episode with id %s", id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", ep.ID)
	fmt.Printf("Created:   %s\n", ep.CreatedAt.Local().Format(time.DateTime))
	if ep.URL != "" {
		fmt.Printf("URL:       %s\n", ep.URL)
	}
	fmt.Printf("Audio:     %s\n", ep.AudioPath)
	fmt.Printf("Duration:  %.1fs (%d segments)\n", float64(ep.DurationMs)/1000, ep.Segments)
	if len(ep.Providers) > 0 {
		fmt.Printf("Providers: %s\n", strings.Join(ep.Providers, ", "))
	}
	if len(ep.Chapters) > 0 {
		fmt.Println("\nChapters:")
		for i, ch := range ep.Chapters {
			fmt.Printf("  %d. %s\n", i+1, ch)
		}
	}
	if ep.ShowNotes != "" {
		fmt.Printf("\nShow notes:\n%s\n", ep.ShowNotes)
	}
	if !ep.SocialAssets.IsZero() {
		fmt.Println("\nSocial:")
		if ep.SocialAssets.LinkedIn != "" {
			fmt.Printf("  LinkedIn: %s\n", ep.SocialAssets.LinkedIn)
		}
		for _, post := range ep.SocialAssets.Twitter {
			fmt.Printf("  Twitter:  %s\n", post)
		}
	}
	if ep.Script != "" {
		fmt.Printf("\nScript:\n%s\n", ep.Script)
	}
	return nil
}

func openHistory(ctx context.Context, c *cli.Command) (history.Store, error) {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}
