package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeprism/codeprism/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanDirFindsSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "app.py", "x = 1")
	writeFile(t, dir, "README.md", "# readme")
	writeFile(t, dir, "sub/util.ts", "export {}")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestScanDirSkipsExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "node_modules/pkg/index.js", "x")
	writeFile(t, dir, "vendor/dep/dep.go", "package dep")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "main.go")
}

func TestScanDirHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, dir, ".gitignore", "generated/\n")
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "generated/gen.go", "package gen")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "main.go")
}

func TestScanDirExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "x")
	writeFile(t, dir, "app.min.js", "x")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "app.js")
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	goFile := writeFile(t, dir, "main.go", "package main")
	txtFile := writeFile(t, dir, "notes.txt", "hi")

	s := New(config.DefaultConfig())

	ok, err := s.ScanFile(goFile)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ScanFile(txtFile)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ScanFile(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}

func TestGroupByLanguage(t *testing.T) {
	s := New(nil)
	groups := s.GroupByLanguage([]string{"a.go", "b.go", "c.py", "d.txt"})
	assert.Len(t, groups, 2)
	assert.Len(t, groups["go"], 2)
	assert.Len(t, groups["python"], 1)
}

func TestFilterBySize(t *testing.T) {
	dir := t.TempDir()
	small := writeFile(t, dir, "small.go", "package p")
	big := writeFile(t, dir, "big.go", string(make([]byte, 4096)))

	kept, skipped := FilterBySize([]string{small, big}, 1024)
	assert.Equal(t, []string{small}, kept)
	assert.Equal(t, 1, skipped)

	kept, skipped = FilterBySize([]string{small, big}, 0)
	assert.Len(t, kept, 2)
	assert.Zero(t, skipped)
}
