package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/watcher"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch a repository and re-index files as they change",
		ArgsUsage: "[path]",
		Action:    runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	idx, err := buildIndex(c, repoPath(c))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	w, err := watcher.New(idx.Root(), cfg)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.OnChange(func(path string) {
		stats, err := idx.IndexFile(ctx, path)
		if err != nil {
			color.Red("%s: %v", path, err)
			return
		}
		if stats != nil {
			color.Green("reindexed %s (+%d/-%d nodes)", path, stats.NodesAdded, stats.NodesRemoved)
		}
	})
	w.OnRemove(func(path string) {
		removed := idx.RemoveFile(path)
		color.Yellow("removed %s (%d nodes)", path, removed)
	})
	w.OnError(func(err error) {
		color.Red("watch error: %v", err)
	})

	color.Cyan("Watching %s (Ctrl-C to stop)", idx.Root())
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
