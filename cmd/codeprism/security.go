package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/analyzer"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/progress"
)

func securityCmd() *cli.Command {
	return &cli.Command{
		Name:      "security",
		Usage:     "Scan for common security anti-patterns",
		ArgsUsage: "[path...]",
		Action:    runSecurityCmd,
	}
}

func runSecurityCmd(c *cli.Context) error {
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

	secAnalyzer := analyzer.NewSecurityAnalyzer()

	tracker := progress.NewTracker("Scanning...", len(files))
	report, err := secAnalyzer.AnalyzeFiles(c.Context, files, tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("scan failed: %w", err)
	}
	tracker.Finish()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if len(report.Findings) == 0 {
		formatter.Success("No findings")
		return nil
	}

	rows := make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		sev := string(f.Severity)
		if formatter.Colored() {
			sev = output.SeverityColor(string(f.Severity), string(f.Severity))
		}
		rows = append(rows, []string{
			sev,
			f.Rule,
			fmt.Sprintf("%s:%d", f.File, f.Line),
			truncate(f.Snippet, 60),
		})
	}
	table := output.NewTable(fmt.Sprintf("Security Findings (%d)", len(report.Findings)),
		[]string{"Severity", "Rule", "Location", "Snippet"}, rows, nil, report)
	return formatter.Output(table)
}
