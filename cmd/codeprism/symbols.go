package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codeprism/codeprism/internal/graph"
	"github.com/codeprism/codeprism/internal/indexer"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/progress"
	"github.com/codeprism/codeprism/pkg/uast"
)

func symbolsCmd() *cli.Command {
	return &cli.Command{
		Name:      "symbols",
		Usage:     "Search symbols in the code graph",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo",
				Value: ".",
				Usage: "Repository to index",
			},
			&cli.StringFlag{
				Name:  "mode",
				Value: "contains",
				Usage: "Match mode: exact, contains, regex",
			},
			&cli.StringSliceFlag{
				Name:  "kind",
				Usage: "Restrict to node kinds (function, class, method, variable, ...)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: 50,
				Usage: "Maximum results",
			},
		},
		Action: runSymbolsCmd,
	}
}

func runSymbolsCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("symbols requires a query argument")
	}
	query := c.Args().First()

	idx, err := buildIndex(c, c.String("repo"))
	if err != nil {
		return err
	}

	var kinds []uast.NodeKind
	for _, k := range c.StringSlice("kind") {
		kinds = append(kinds, uast.NodeKind(k))
	}

	matches, err := idx.Store().SearchSymbols(query, graph.SearchMode(c.String("mode")), kinds, c.Int("limit"))
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if len(matches) == 0 {
		formatter.Info("No symbols match %q", query)
		return nil
	}

	rows := make([][]string, 0, len(matches))
	for _, n := range matches {
		rows = append(rows, []string{
			n.Name,
			string(n.Kind),
			truncate(n.QualifiedName, 60),
			fmt.Sprintf("%s:%d", n.File, n.Span.StartLine),
		})
	}
	table := output.NewTable(fmt.Sprintf("Symbols matching %q", query),
		[]string{"Name", "Kind", "Qualified Name", "Location"}, rows, nil, matches)
	return formatter.Output(table)
}

func refsCmd() *cli.Command {
	return &cli.Command{
		Name:      "refs",
		Usage:     "List references to a symbol",
		ArgsUsage: "<symbol>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo",
				Value: ".",
				Usage: "Repository to index",
			},
		},
		Action: runRefsCmd,
	}
}

func runRefsCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("refs requires a symbol argument")
	}
	name := c.Args().First()

	idx, err := buildIndex(c, c.String("repo"))
	if err != nil {
		return err
	}
	store := idx.Store()

	target, err := lookupSymbol(store, name)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	refs := store.References(target.ID)
	if len(refs) == 0 {
		formatter.Info("No references to %s", target.QualifiedName)
		return nil
	}

	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, []string{
			ref.Node.QualifiedName,
			string(ref.Kind),
			fmt.Sprintf("%s:%d", ref.Node.File, ref.Node.Span.StartLine),
		})
	}
	table := output.NewTable(fmt.Sprintf("References to %s", target.QualifiedName),
		[]string{"Symbol", "Edge", "Location"}, rows, nil, refs)
	return formatter.Output(table)
}

// buildIndex indexes repo behind a spinner and returns the indexer.
func buildIndex(c *cli.Context, repo string) (*indexer.Indexer, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	idx, err := indexer.New(repo, cfg)
	if err != nil {
		return nil, err
	}
	tracker := progress.NewSpinner("Indexing...")
	if _, err := idx.IndexDir(c.Context, tracker.Tick); err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.Finish()
	return idx, nil
}

// lookupSymbol resolves a name to a definition node, trying an exact
// match before falling back to substring search.
func lookupSymbol(store *graph.Store, name string) (*uast.Node, error) {
	for _, mode := range []graph.SearchMode{graph.MatchExact, graph.MatchContains} {
		matches, err := store.SearchSymbols(name, mode, nil, 20)
		if err != nil {
			return nil, err
		}
		for i := range matches {
			if matches[i].QualifiedName == name {
				return &matches[i], nil
			}
		}
		for i := range matches {
			if matches[i].Kind.IsDefinition() {
				return &matches[i], nil
			}
		}
	}
	return nil, fmt.Errorf("symbol not found: %s", name)
}
