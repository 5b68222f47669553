package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/indexer"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/progress"
	"github.com/codeprism/codeprism/internal/vcs"
)

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show repository and code graph statistics",
		ArgsUsage: "[path]",
		Action:    runStatsCmd,
	}
}

func runStatsCmd(c *cli.Context) error {
	root, err := absRepo(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	idx, err := indexer.New(root, cfg)
	if err != nil {
		return err
	}
	tracker := progress.NewSpinner("Indexing...")
	if _, err := idx.IndexDir(c.Context, tracker.Tick); err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.Finish()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	stats := idx.Store().Summary()

	overview := [][]string{
		{"Files", fmt.Sprintf("%d", stats.Files)},
		{"Nodes", fmt.Sprintf("%d", stats.Nodes)},
		{"Edges", fmt.Sprintf("%d", stats.Edges)},
		{"Parse errors", fmt.Sprintf("%d", stats.ParseErrors)},
	}

	var langRows [][]string
	for _, lang := range sortedKeys(stats.ByLanguage) {
		langRows = append(langRows, []string{lang, fmt.Sprintf("%d", stats.ByLanguage[lang])})
	}

	var kindRows [][]string
	for _, kind := range sortedKeys(stats.ByKind) {
		kindRows = append(kindRows, []string{string(kind), fmt.Sprintf("%d", stats.ByKind[kind])})
	}

	report := &output.Report{
		Title: "Repository Statistics",
		Data:  stats,
		Sections: []output.Renderable{
			output.NewTable("Overview", []string{"Metric", "Value"}, overview, nil, nil),
			output.NewTable("By Language", []string{"Language", "Files"}, langRows, nil, nil),
			output.NewTable("By Kind", []string{"Kind", "Nodes"}, kindRows, nil, nil),
		},
	}

	if info, err := vcs.Describe(root); err == nil {
		vcsRows := [][]string{
			{"Branch", info.Branch},
			{"Head", truncate(info.Head, 12)},
			{"Commits", fmt.Sprintf("%d", info.Commits)},
			{"Contributors", fmt.Sprintf("%d", info.Contributors)},
		}
		report.Sections = append(report.Sections,
			output.NewTable("Version Control", []string{"Field", "Value"}, vcsRows, nil, info))
	}

	return formatter.Output(report)
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
