// Package indexer builds and incrementally maintains the code graph for a
// repository.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codeprism/codeprism/internal/cache"
	"github.com/codeprism/codeprism/internal/extract"
	"github.com/codeprism/codeprism/internal/fileproc"
	"github.com/codeprism/codeprism/internal/graph"
	"github.com/codeprism/codeprism/internal/scanner"
	"github.com/codeprism/codeprism/pkg/config"
	"github.com/codeprism/codeprism/pkg/parser"
	"github.com/codeprism/codeprism/pkg/uast"
)

// Indexer scans a repository, extracts each file's Universal AST, and
// applies the results to a graph store.
type Indexer struct {
	cfg     *config.Config
	root    string
	store   *graph.Store
	cache   *cache.Cache
	scanner *scanner.Scanner
}

// New creates an indexer rooted at the given directory.
func New(root string, cfg *config.Config) (*Indexer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cacheDir := cfg.Cache.Dir
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(absRoot, cacheDir)
	}
	c, err := cache.New(cacheDir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &Indexer{
		cfg:     cfg,
		root:    absRoot,
		store:   graph.NewStore(),
		cache:   c,
		scanner: scanner.New(cfg),
	}, nil
}

// Store exposes the graph the indexer maintains.
func (ix *Indexer) Store() *graph.Store { return ix.store }

// Root returns the indexed directory.
func (ix *Indexer) Root() string { return ix.root }

// Result summarizes one IndexDir run.
type Result struct {
	FilesScanned int                        `json:"files_scanned" toon:"files_scanned"`
	FilesIndexed int                        `json:"files_indexed" toon:"files_indexed"`
	FilesCached  int                        `json:"files_cached" toon:"files_cached"`
	FilesSkipped int                        `json:"files_skipped" toon:"files_skipped"`
	FilesFailed  int                        `json:"files_failed" toon:"files_failed"`
	Nodes        int                        `json:"nodes" toon:"nodes"`
	Edges        int                        `json:"edges" toon:"edges"`
	Duration     time.Duration              `json:"duration" toon:"duration"`
	Errors       *fileproc.ProcessingErrors `json:"-" toon:"-"`
}

type extraction struct {
	result *uast.FileResult
	cached bool
}

// IndexDir scans the root and (re)indexes every discovered file. Callers
// can pass onProgress to drive a progress bar; it fires once per file.
func (ix *Indexer) IndexDir(ctx context.Context, onProgress fileproc.ProgressFunc) (*Result, error) {
	start := time.Now()

	files, err := ix.scanner.ScanDir(ix.root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", ix.root, err)
	}
	files, oversized := scanner.FilterBySize(files, ix.cfg.Indexing.MaxFileBytes)

	res := &Result{
		FilesScanned: len(files) + oversized,
		FilesSkipped: oversized,
	}

	extractions, errs := fileproc.MapFiles(ctx, files, ix.cfg.Indexing.Workers, ix.extractFile, onProgress)
	res.Errors = errs
	if errs != nil {
		res.FilesFailed = len(errs.Errors)
	}

	for _, ex := range extractions {
		if ex.result == nil {
			res.FilesSkipped++
			continue
		}
		ix.store.ApplyFile(ex.result)
		if ex.cached {
			res.FilesCached++
		}
		res.FilesIndexed++
	}

	sum := ix.store.Summary()
	res.Nodes = sum.Nodes
	res.Edges = sum.Edges
	res.Duration = time.Since(start)
	return res, nil
}

// extractFile parses and extracts one file, consulting the cache first. A
// nil result with nil error means the language has no extractor yet.
func (ix *Indexer) extractFile(p *parser.Parser, path string) (extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extraction{}, err
	}

	rel := ix.relPath(path)
	hash := uast.HashContent(data)
	if cached, ok := ix.cache.GetFileResult(rel, hash); ok {
		return extraction{result: cached, cached: true}, nil
	}

	lang := parser.DetectLanguage(path)
	ext := extract.ForLanguage(lang)
	if ext == nil {
		return extraction{}, nil
	}
	defer ext.Close()

	parsed, err := p.Parse(data, lang, rel)
	if err != nil {
		return extraction{}, err
	}
	defer parsed.Tree.Close()

	result := ext.Extract(parsed)
	if err := ix.cache.SetFileResult(result); err != nil {
		return extraction{}, fmt.Errorf("caching %s: %w", rel, err)
	}
	return extraction{result: result}, nil
}

// IndexFile re-indexes one file in place, returning the applied patch
// stats. Used by the watcher on change events.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (*graph.PatchStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ok, err := ix.scanner.ScanFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	p := parser.New()
	defer p.Close()

	ex, err := ix.extractFile(p, path)
	if err != nil {
		return nil, err
	}
	if ex.result == nil {
		return nil, nil
	}
	stats := ix.store.ApplyFile(ex.result)
	return &stats, nil
}

// RemoveFile drops a deleted file from the graph and cache.
func (ix *Indexer) RemoveFile(path string) int {
	rel := ix.relPath(path)
	_ = ix.cache.Invalidate(rel)
	return ix.store.RemoveFile(rel)
}

// CacheStats reports parse cache usage.
func (ix *Indexer) CacheStats() (*cache.Stats, error) {
	return ix.cache.GetStats()
}

func (ix *Indexer) relPath(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(ix.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
