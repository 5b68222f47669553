package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/scanner"
	"github.com/codeprism/codeprism/pkg/config"
)

// repoPath returns the first positional arg, defaulting to ".".
func repoPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// loadConfig resolves the effective config, honoring --config and
// --no-cache.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

// newFormatter builds the output formatter from the global flags.
func newFormatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
}

// absRepo resolves the repository path argument.
func absRepo(c *cli.Context) (string, error) {
	root, err := filepath.Abs(repoPath(c))
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", repoPath(c), err)
	}
	return root, nil
}

// scanSourceFiles discovers source files under every positional path.
func scanSourceFiles(c *cli.Context, cfg *config.Config) ([]string, error) {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.New(cfg)
	var files []string
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		found, err := scan.ScanDir(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
