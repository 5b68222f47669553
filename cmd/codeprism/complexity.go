package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/analyzer"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/progress"
)

func complexityCmd() *cli.Command {
	return &cli.Command{
		Name:      "complexity",
		Aliases:   []string{"cx"},
		Usage:     "Analyze cyclomatic and cognitive complexity",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "threshold",
				Value: 10,
				Usage: "Cyclomatic complexity hotspot threshold",
			},
			&cli.BoolFlag{
				Name:  "functions-only",
				Usage: "Show only function-level metrics",
			},
		},
		Action: runComplexityCmd,
	}
}

func runComplexityCmd(c *cli.Context) error {
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

	threshold := c.Int("threshold")
	cxAnalyzer := analyzer.NewComplexityAnalyzer(threshold)
	cxAnalyzer.Workers = cfg.Indexing.Workers

	tracker := progress.NewTracker("Analyzing complexity...", len(files))
	report, err := cxAnalyzer.AnalyzeFiles(c.Context, files, tracker.Tick)
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

	var rows [][]string
	if c.Bool("functions-only") {
		for _, fc := range report.Files {
			for _, fn := range fc.Functions {
				cyc := fmt.Sprintf("%d", fn.Cyclomatic)
				if fn.Cyclomatic >= uint32(threshold) && formatter.Colored() {
					cyc = color.RedString("%d", fn.Cyclomatic)
				}
				rows = append(rows, []string{
					fc.Path,
					fn.Name,
					fmt.Sprintf("%d", fn.StartLine),
					cyc,
					fmt.Sprintf("%d", fn.Cognitive),
					fmt.Sprintf("%d", fn.MaxNesting),
				})
			}
		}
		table := output.NewTable("Function Complexity",
			[]string{"File", "Function", "Line", "Cyclomatic", "Cognitive", "Nesting"}, rows, nil, report)
		return formatter.Output(table)
	}

	for _, fc := range report.Files {
		rows = append(rows, []string{
			fc.Path,
			fmt.Sprintf("%d", len(fc.Functions)),
			fmt.Sprintf("%.1f", fc.AvgCyclomatic),
			fmt.Sprintf("%d", fc.MaxCyclomatic),
		})
	}

	var hotRows [][]string
	for _, fn := range report.Hotspots {
		hotRows = append(hotRows, []string{
			fn.Name,
			fmt.Sprintf("%s:%d", fn.File, fn.StartLine),
			fmt.Sprintf("%d", fn.Cyclomatic),
			fmt.Sprintf("%d", fn.Cognitive),
		})
	}

	out := &output.Report{
		Title: "Complexity Analysis",
		Data:  report,
		Sections: []output.Renderable{
			output.NewTable("Files", []string{"File", "Functions", "Avg Cyclomatic", "Max Cyclomatic"}, rows,
				[]string{"Average", fmt.Sprintf("%d", report.FunctionCount),
					fmt.Sprintf("%.1f", report.AvgCyclomatic), ""}, nil),
			output.NewTable("Hotspots", []string{"Function", "Location", "Cyclomatic", "Cognitive"}, hotRows, nil, nil),
		},
	}
	return formatter.Output(out)
}
