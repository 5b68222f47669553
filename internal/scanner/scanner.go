// Package scanner discovers the source files an index run should cover.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/codeprism/codeprism/pkg/config"
	"github.com/codeprism/codeprism/pkg/parser"
)

// Scanner finds source files in a directory, honoring exclusion config and
// the repository's .gitignore files.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// New creates a file scanner.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot walks up from start looking for a .git directory. Returns
// empty string outside a repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns combines config patterns with .gitignore files read
// recursively from the git root.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range s.config.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			fsys := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fsys, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if !isDir && slices.Contains(s.config.Exclude.Extensions, filepath.Ext(path)) {
		return true
	}
	if len(s.matchers) == 0 {
		return false
	}
	pathParts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for parsable source files. Paths
// that escape the root through symlinks are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			if !s.config.Indexing.FollowLinks {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if relPath != "." && s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// isWithinRoot reports whether path is contained in root after cleaning.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile reports whether a single file should be indexed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if len(s.matchers) == 0 {
		s.loadExcludePatterns(filepath.Dir(path))
	}
	if s.isExcluded(filepath.Base(path), false) {
		return false, nil
	}
	return parser.DetectLanguage(path) != parser.LangUnknown, nil
}

// GroupByLanguage buckets files by detected language.
func (s *Scanner) GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		lang := parser.DetectLanguage(f)
		if lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}

// FilterBySize drops files larger than maxSize bytes, returning the kept
// list and the skip count. maxSize <= 0 keeps everything.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}
	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}
