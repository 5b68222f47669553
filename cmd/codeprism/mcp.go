package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/indexer"
	"github.com/codeprism/codeprism/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the code graph
as tools that LLMs can invoke: symbol search, reference tracing,
dependency and data-flow analysis, complexity, duplicates, security
scanning, and framework-aware views of routes, SQL queries, and events.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "codeprism": {
        "command": "codeprism",
        "args": ["mcp", "--repo", "/path/to/repo"]
      }
    }
  }`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo",
				Value: ".",
				Usage: "Repository to index and serve",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-index files as they change",
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runManifestCmd,
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Server.RepoPath = c.String("repo")
	if c.Bool("watch") {
		cfg.Server.Watch = true
	}

	idx, err := indexer.New(cfg.Server.RepoPath, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcpserver.NewServer(idx, cfg, version)
	return server.Run(ctx)
}

func runManifestCmd(c *cli.Context) error {
	manifest, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Println(string(manifest))
	return nil
}
