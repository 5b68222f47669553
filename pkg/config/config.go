// Package config loads codeprism configuration from TOML, YAML, or JSON.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for codeprism.
type Config struct {
	// Indexing controls repository scanning and graph construction.
	Indexing IndexingConfig `koanf:"indexing"`

	// Watcher controls incremental updates.
	Watcher WatcherConfig `koanf:"watcher"`

	// Thresholds for analysis tools.
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// Exclude defines file exclusion patterns.
	Exclude ExcludeConfig `koanf:"exclude"`

	// Cache settings for the parse cache.
	Cache CacheConfig `koanf:"cache"`

	// Server settings for the MCP surface.
	Server ServerConfig `koanf:"server"`
}

// IndexingConfig controls the indexing pipeline.
type IndexingConfig struct {
	Workers      int   `koanf:"workers"`        // 0 means 2x NumCPU
	MaxFileBytes int64 `koanf:"max_file_bytes"` // files larger than this are skipped
	FollowLinks  bool  `koanf:"follow_links"`
}

// WatcherConfig controls the file watcher.
type WatcherConfig struct {
	Enabled    bool `koanf:"enabled"`
	DebounceMS int  `koanf:"debounce_ms"`
}

// ThresholdConfig defines metric thresholds used by analysis tools.
type ThresholdConfig struct {
	CyclomaticComplexity int     `koanf:"cyclomatic_complexity"`
	CognitiveComplexity  int     `koanf:"cognitive_complexity"`
	DuplicateMinLines    int     `koanf:"duplicate_min_lines"`
	DuplicateSimilarity  float64 `koanf:"duplicate_similarity"`
	UnusedConfidence     float64 `koanf:"unused_confidence"`
	MaxTraceDepth        int     `koanf:"max_trace_depth"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns"`
	Extensions []string `koanf:"extensions"`
	Dirs       []string `koanf:"dirs"`
	Gitignore  bool     `koanf:"gitignore"`
}

// CacheConfig controls the content-addressed parse cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // hours
}

// ServerConfig controls the MCP server.
type ServerConfig struct {
	RepoPath string `koanf:"repo_path"`
	Watch    bool   `koanf:"watch"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Indexing: IndexingConfig{
			Workers:      0,
			MaxFileBytes: 2 << 20,
		},
		Watcher: WatcherConfig{
			Enabled:    false,
			DebounceMS: 500,
		},
		Thresholds: ThresholdConfig{
			CyclomaticComplexity: 10,
			CognitiveComplexity:  15,
			DuplicateMinLines:    6,
			DuplicateSimilarity:  0.8,
			UnusedConfidence:     0.8,
			MaxTraceDepth:        10,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
				"*.generated.go",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".codeprism",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".codeprism/cache",
			TTL:     24,
		},
		Server: ServerConfig{
			RepoPath: ".",
		},
	}
}

// Load loads configuration from a file, layered over defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"codeprism.toml",
		"codeprism.yaml",
		"codeprism.yml",
		"codeprism.json",
		".codeprism.toml",
		".codeprism.yaml",
	}

	searchDirs := []string{".", ".codeprism"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
