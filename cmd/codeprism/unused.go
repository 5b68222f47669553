package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/analyzer"
	"github.com/codeprism/codeprism/internal/output"
)

func unusedCmd() *cli.Command {
	return &cli.Command{
		Name:      "unused",
		Usage:     "Find likely-unused functions, methods, and classes",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "confidence",
				Value: 0.8,
				Usage: "Minimum confidence (0.0-1.0)",
			},
		},
		Action: runUnusedCmd,
	}
}

func runUnusedCmd(c *cli.Context) error {
	idx, err := buildIndex(c, repoPath(c))
	if err != nil {
		return err
	}

	report := analyzer.FindUnused(idx.Store(), c.Float64("confidence"))

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if len(report.Symbols) == 0 {
		formatter.Success("No unused symbols above confidence %.2f", c.Float64("confidence"))
		return nil
	}

	rows := make([][]string, 0, len(report.Symbols))
	for _, sym := range report.Symbols {
		rows = append(rows, []string{
			sym.Node.QualifiedName,
			string(sym.Node.Kind),
			fmt.Sprintf("%s:%d", sym.Node.File, sym.Node.Span.StartLine),
			fmt.Sprintf("%.2f", sym.Confidence),
			sym.Reason,
		})
	}
	table := output.NewTable(fmt.Sprintf("Unused Symbols (%d of %d definitions)", len(report.Symbols), report.Total),
		[]string{"Symbol", "Kind", "Location", "Confidence", "Reason"}, rows, nil, report)
	return formatter.Output(table)
}
