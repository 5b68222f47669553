package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: runConfigShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate a configuration file",
				Action: runConfigValidate,
			},
			{
				Name:  "init",
				Usage: "Create a codeprism.toml with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Value: "codeprism.toml",
						Usage: "Output file path",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: runConfigInit,
			},
		},
	}
}

func runConfigShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if path := c.String("config"); path != "" {
		fmt.Printf("# Configuration from: %s\n\n", path)
	} else {
		fmt.Println("# Effective configuration")
	}

	content, err := toml.Marshal(*cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Print(string(content))
	return nil
}

func runConfigValidate(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		if c.Args().Len() > 0 {
			path = c.Args().First()
		}
	}
	if path == "" {
		color.Yellow("No config file given. Default configuration is valid.")
		return nil
	}

	if _, err := config.Load(path); err != nil {
		color.Red("Configuration validation failed:")
		fmt.Printf("  - %s\n", err)
		return err
	}
	color.Green("Configuration valid: %s", path)
	return nil
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("path")
	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := toml.Marshal(*config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# CodePrism Configuration\n")
	buf.WriteString("# Documentation: https://github.com/codeprism/codeprism\n\n")
	buf.Write(content)

	if err := os.WriteFile(outputPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", outputPath)
	fmt.Println("Edit this file to customize indexing and analysis settings.")
	return nil
}
