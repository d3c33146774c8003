package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/config"
)

func handleConfigShow(ctx context.Context, c *cli.Command) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}

	if path == "" {
		fmt.Println("No configuration file found, showing defaults.")
		fmt.Println("\nSearched locations:")
		fmt.Println("  - .ccpodcast/config.json (project)")
		fmt.Println("  - ~/.ccpodcast/config.json (global)")
		fmt.Println("\nRun 'ccpodcast config init' to create one.")
		fmt.Println()
	} else {
		fmt.Printf("Configuration from %s (secrets masked):\n", path)
	}

	output, err := json.MarshalIndent(cfg.MaskSecrets(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

func handleConfigValidate(ctx context.Context, c *cli.Command) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println("No configuration file found; defaults are valid.")
		return nil
	}

	problems := cfg.Validate()
	if len(problems) == 0 {
		fmt.Println("✅ Configuration is valid.")
		return nil
	}

	fmt.Println("❌ Configuration has errors:")
	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
	return fmt.Errorf("configuration validation failed")
}

func handleConfigInit(ctx context.Context, c *cli.Command) error {
	loader := config.NewLoader()

	var configPath string
	if c.Bool("global") {
		configPath = loader.GlobalPath()
	} else {
		workDir, _ := os.Getwd()
		configPath = loader.ProjectPath(workDir)
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(config.GenerateExampleConfig()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("✅ Created configuration: %s\n", configPath)
	fmt.Println("\nEdit the file to configure your speech providers.")
	fmt.Println("Use ${ENV_VAR} syntax for sensitive values like API keys.")
	return nil
}
