package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/pkg/parser"
)

// The app description advertises languages; every one must have a
// grammar wired into the parser.
func TestAppDescriptionLanguagesHaveGrammars(t *testing.T) {
	byName := map[string]parser.Language{
		"Go":         parser.LangGo,
		"Python":     parser.LangPython,
		"TypeScript": parser.LangTypeScript,
		"JavaScript": parser.LangJavaScript,
		"Java":       parser.LangJava,
		"Ruby":       parser.LangRuby,
	}

	var supports string
	for _, line := range strings.Split(newApp().Description, "\n") {
		if rest, ok := strings.CutPrefix(line, "Supports: "); ok {
			supports = rest
			break
		}
	}
	if supports == "" {
		t.Fatal("description has no Supports line")
	}

	for _, name := range strings.Split(supports, ", ") {
		lang, ok := byName[name]
		if !ok {
			t.Errorf("description claims %q, which the parser does not know", name)
			continue
		}
		if _, err := parser.GetTreeSitterLanguage(lang); err != nil {
			t.Errorf("description claims %q but no grammar is wired: %v", name, err)
		}
	}
}

// TestRepoPath verifies positional path handling.
func TestRepoPath(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "no args defaults to current dir",
			args:     []string{},
			expected: ".",
		},
		{
			name:     "single path",
			args:     []string{"/foo/bar"},
			expected: "/foo/bar",
		},
		{
			name:     "first of several paths",
			args:     []string{"/foo", "/bar"},
			expected: "/foo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Action: func(c *cli.Context) error {
					if got := repoPath(c); got != tt.expected {
						t.Errorf("repoPath() = %q, want %q", got, tt.expected)
					}
					return nil
				},
			}
			args := append([]string{"test"}, tt.args...)
			_ = app.Run(args)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this one is too long", 10, "this on..."},
		{"tiny", 3, "tin"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.expected)
		}
	}
}

// TestLoadConfigNoCache verifies --no-cache disables the parse cache.
func TestLoadConfigNoCache(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.BoolFlag{Name: "no-cache"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				t.Fatalf("loadConfig: %v", err)
			}
			if cfg.Cache.Enabled {
				t.Error("cache should be disabled with --no-cache")
			}
			return nil
		},
	}
	if err := app.Run([]string{"test", "--no-cache"}); err != nil {
		t.Fatal(err)
	}
}

// TestLoadConfigExplicitFile verifies --config loads the named file.
func TestLoadConfigExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeprism.toml")
	content := "[thresholds]\ncyclomatic_complexity = 25\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.BoolFlag{Name: "no-cache"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				t.Fatalf("loadConfig: %v", err)
			}
			if cfg.Thresholds.CyclomaticComplexity != 25 {
				t.Errorf("threshold = %d, want 25", cfg.Thresholds.CyclomaticComplexity)
			}
			return nil
		},
	}
	if err := app.Run([]string{"test", "--config", path}); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.BoolFlag{Name: "no-cache"},
		},
		Action: func(c *cli.Context) error {
			if _, err := loadConfig(c); err == nil {
				t.Error("expected error for missing config file")
			}
			return nil
		},
	}
	if err := app.Run([]string{"test", "--config", "/nonexistent/codeprism.toml"}); err != nil {
		t.Fatal(err)
	}
}
