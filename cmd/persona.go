package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/persona"
)

func handlePersonaList(ctx context.Context, c *cli.Command) error {
	manager, err := persona.NewManager("")
	if err != nil {
		return err
	}

	names, err := manager.ListPersonas()
	if err != nil {
		return err
	}

	fmt.Println("Available personas:")
	for _, name := range names {
		def, err := manager.Load(name)
		if err != nil {
			fmt.Printf("  - %s\n", name)
			continue
		}
		fmt.Printf("  - %-14s %s\n", name, def.Description)
	}
	return nil
}

func handlePersonaShow(ctx context.Context, c *cli.Command) error {
	name := c.Args().Get(0)
	if name == "" {
		return fmt.Errorf("persona name is required")
	}

	manager, err := persona.NewManager("")
	if err != nil {
		return err
	}
	if !manager.PersonaExists(name) {
		return fmt.Errorf("persona '%s' does not exist", name)
	}

	def, err := manager.Load(name)
	if err != nil {
		return err
	}

	fmt.Printf("# %s\n", def.Name)
	if def.Description != "" {
		fmt.Printf("\n%s\n", def.Description)
	}
	fmt.Printf("\n%s\n", def.Prompt())
	if def.FilePath != "" {
		fmt.Printf("\n(from %s)\n", def.FilePath)
	}
	return nil
}

func handlePersonaCreate(ctx context.Context, c *cli.Command) error {
	name := c.Args().Get(0)
	if name == "" {
		return fmt.Errorf("persona name is required")
	}

	manager, err := persona.NewManager("")
	if err != nil {
		return err
	}

	if err := manager.CreatePersona(name); err != nil {
		return err
	}

	fmt.Printf("Created new persona: %s\n", name)
	fmt.Printf("Edit it with: ccpodcast persona edit %s\n", name)
	return nil
}

func handlePersonaEdit(ctx context.Context, c *cli.Command) error {
	name := c.Args().Get(0)
	if name == "" {
		return fmt.Errorf("persona name is required")
	}

	manager, err := persona.NewManager("")
	if err != nil {
		return err
	}

	path := manager.GetPersonaPath(name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("persona '%s' has no file; create it with 'ccpodcast persona create %s'", name, name)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	fmt.Printf("Edited persona: %s\n", name)
	return nil
}
