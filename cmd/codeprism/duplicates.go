package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/analyzer"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/progress"
)

func duplicatesCmd() *cli.Command {
	return &cli.Command{
		Name:      "duplicates",
		Aliases:   []string{"dup"},
		Usage:     "Detect duplicated code blocks",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-lines",
				Value: 6,
				Usage: "Minimum block size to consider",
			},
			&cli.Float64Flag{
				Name:  "similarity",
				Value: 0.8,
				Usage: "Similarity threshold (0.0-1.0)",
			},
		},
		Action: runDuplicatesCmd,
	}
}

func runDuplicatesCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	files, err := scanSourceFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	dupAnalyzer := analyzer.NewDuplicateAnalyzer(c.Int("min-lines"), c.Float64("similarity"))

	tracker := progress.NewTracker("Detecting duplicates...", len(files))
	report, err := dupAnalyzer.AnalyzeFiles(c.Context, files, tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	tracker.Finish()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if len(report.Groups) == 0 {
		formatter.Success("No duplicated blocks found")
		return nil
	}

	var rows [][]string
	for i, group := range report.Groups {
		for _, inst := range group.Instances {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				inst.File,
				fmt.Sprintf("%d-%d", inst.StartLine, inst.EndLine),
				fmt.Sprintf("%d", group.Lines),
			})
		}
	}

	footer := []string{"", "Duplication ratio", fmt.Sprintf("%.1f%%", report.Ratio*100),
		fmt.Sprintf("%d lines", report.DuplicatedLines)}
	table := output.NewTable("Duplicated Blocks",
		[]string{"Group", "File", "Lines", "Size"}, rows, footer, report)
	return formatter.Output(table)
}
