package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeprism/codeprism/pkg/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Watcher.DebounceMS = 50
	return cfg
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event on %s", want)
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, testConfig())
	require.NoError(t, err)
	defer w.Stop()

	changes := make(chan string, 8)
	w.OnChange(func(path string) { changes <- path })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	// Give the watcher time to register directories.
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main"), 0o644))

	waitFor(t, changes, target)
}

func TestWatcherReportsRemovals(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.go")
	require.NoError(t, os.WriteFile(target, []byte("package gone"), 0o644))

	w, err := New(dir, testConfig())
	require.NoError(t, err)
	defer w.Stop()

	removals := make(chan string, 8)
	w.OnRemove(func(path string) { removals <- path })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.Remove(target))

	waitFor(t, removals, target)
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, testConfig())
	require.NoError(t, err)
	defer w.Stop()

	changes := make(chan string, 8)
	w.OnChange(func(path string) { changes <- path })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.go"), []byte("package real"), 0o644))

	// Only the Go file comes through.
	waitFor(t, changes, filepath.Join(dir, "real.go"))
	select {
	case extra := <-changes:
		t.Fatalf("unexpected event for %s", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, testConfig())
	require.NoError(t, err)
	defer w.Stop()

	changes := make(chan string, 16)
	w.OnChange(func(path string) { changes <- path })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(200 * time.Millisecond)
	target := filepath.Join(dir, "busy.go")
	for range 5 {
		require.NoError(t, os.WriteFile(target, []byte("package busy"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, changes, target)
	select {
	case <-changes:
		t.Fatal("rapid writes should collapse into one event")
	case <-time.After(300 * time.Millisecond):
	}
}
