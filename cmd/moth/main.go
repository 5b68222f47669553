package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/mothrun"
	"github.com/codeprism/codeprism/internal/mothspec"
	"github.com/codeprism/codeprism/internal/output"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "moth",
		Usage:   "YAML-driven test harness for MCP servers",
		Version: version,
		Description: `Moth launches an MCP server over stdio, verifies the tools it
advertises, and runs declarative test cases against them: field
assertions on JSON responses, error expectations, and response-time
budgets.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			validateCmd(),
			listCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run one or more test specs against their servers",
		ArgsUsage: "<spec.yaml...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Working directory for launched servers",
			},
		},
		Action: runRunCmd,
	}
}

func runRunCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("run requires at least one spec file")
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := false
	for _, path := range c.Args().Slice() {
		spec, err := mothspec.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		report, err := mothrun.New(spec, c.String("dir")).Run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := formatter.Output(report.Renderable()); err != nil {
			return err
		}
		if !report.Passed() {
			failed = true
		}
	}

	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate spec files without running them",
		ArgsUsage: "<spec.yaml...>",
		Action:    runValidateCmd,
	}
}

func runValidateCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("validate requires at least one spec file")
	}

	failed := false
	for _, path := range c.Args().Slice() {
		spec, err := mothspec.Load(path)
		if err != nil {
			color.Red("%s: %v", path, err)
			failed = true
			continue
		}
		color.Green("%s: valid (%d tools, %d tests)", path, len(spec.Tools), spec.TestCount())
	}

	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List the tools and tests a spec declares",
		ArgsUsage: "<spec.yaml>",
		Action:    runListCmd,
	}
}

func runListCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("list requires a spec file")
	}

	spec, err := mothspec.Load(c.Args().First())
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	for _, tool := range spec.Tools {
		for _, tc := range tool.Tests {
			budget := "-"
			if tc.Performance != nil && tc.Performance.MaxDurationMS > 0 {
				budget = fmt.Sprintf("%dms", tc.Performance.MaxDurationMS)
			}
			rows = append(rows, []string{
				tool.Name,
				tc.Name,
				fmt.Sprintf("%d", len(tc.Expected.Fields)),
				budget,
			})
		}
	}
	table := output.NewTable(fmt.Sprintf("%s (%s %v)", spec.Name, spec.Server.Command, spec.Server.Args),
		[]string{"Tool", "Test", "Assertions", "Budget"}, rows, nil, spec)
	return formatter.Output(table)
}
