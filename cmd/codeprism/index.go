package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/indexer"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/progress"
	"github.com/codeprism/codeprism/internal/remote"
)

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Index a repository and report graph statistics",
		ArgsUsage: "[path | owner/repo[@ref] | git-url]",
		Action:    runIndexCmd,
	}
}

func runIndexCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var root string
	if src := remote.Parse(repoPath(c)); src != nil {
		color.Cyan("Cloning %s...", src.URL)
		dir, err := remote.Clone(c.Context, src)
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		root = dir
	} else {
		root, err = absRepo(c)
		if err != nil {
			return err
		}
	}

	idx, err := indexer.New(root, cfg)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Indexing...")
	res, err := idx.IndexDir(c.Context, tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("indexing failed: %w", err)
	}
	tracker.Finish()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := [][]string{
		{"Files scanned", fmt.Sprintf("%d", res.FilesScanned)},
		{"Files indexed", fmt.Sprintf("%d", res.FilesIndexed)},
		{"From cache", fmt.Sprintf("%d", res.FilesCached)},
		{"Skipped", fmt.Sprintf("%d", res.FilesSkipped)},
		{"Failed", fmt.Sprintf("%d", res.FilesFailed)},
		{"Graph nodes", fmt.Sprintf("%d", res.Nodes)},
		{"Graph edges", fmt.Sprintf("%d", res.Edges)},
		{"Duration", res.Duration.String()},
	}
	table := output.NewTable("Index Results", []string{"Metric", "Value"}, rows, nil, res)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if res.Errors != nil && res.Errors.HasErrors() && c.Bool("verbose") {
		for _, e := range res.Errors.Errors {
			formatter.Warning("%s: %v", e.Path, e.Err)
		}
	}
	return nil
}
