package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeprism/codeprism/internal/indexer"
	"github.com/codeprism/codeprism/internal/watcher"
	"github.com/codeprism/codeprism/pkg/config"
)

// Server exposes the code graph and analyzers as MCP tools over stdio.
type Server struct {
	server *mcp.Server
	idx    *indexer.Indexer
	cfg    *config.Config
	watch  *watcher.Watcher
}

// NewServer creates an MCP server backed by an indexed repository.
func NewServer(idx *indexer.Indexer, cfg *config.Config, version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "codeprism",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, idx: idx, cfg: cfg}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run indexes the repository, then serves MCP over stdio until ctx is
// cancelled. Stdout belongs to the protocol; nothing else may write to it.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.idx.IndexDir(ctx, nil); err != nil {
		return fmt.Errorf("initial index: %w", err)
	}

	if s.cfg.Server.Watch {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer s.watch.Stop()
	}

	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// startWatcher keeps the graph current while the server runs. Watcher
// errors are swallowed: a failed re-index leaves the previous snapshot in
// place, which is still answerable.
func (s *Server) startWatcher(ctx context.Context) error {
	w, err := watcher.New(s.idx.Root(), s.cfg)
	if err != nil {
		return err
	}
	w.OnChange(func(path string) {
		_, _ = s.idx.IndexFile(ctx, path)
	})
	w.OnRemove(func(path string) {
		s.idx.RemoveFile(path)
	})
	if err := w.Start(ctx); err != nil {
		return err
	}
	s.watch = w
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "repository_stats",
		Description: describeRepositoryStats(),
	}, s.handleRepositoryStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "content_stats",
		Description: describeContentStats(),
	}, s.handleContentStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_files",
		Description: describeFindFiles(),
	}, s.handleFindFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_content",
		Description: describeSearchContent(),
	}, s.handleSearchContent)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_symbols",
		Description: describeSearchSymbols(),
	}, s.handleSearchSymbols)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "explain_symbol",
		Description: describeExplainSymbol(),
	}, s.handleExplainSymbol)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_references",
		Description: describeFindReferences(),
	}, s.handleFindReferences)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_dependencies",
		Description: describeFindDependencies(),
	}, s.handleFindDependencies)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_transitive_dependencies",
		Description: describeTransitiveDependencies(),
	}, s.handleTransitiveDependencies)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trace_path",
		Description: describeTracePath(),
	}, s.handleTracePath)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trace_data_flow",
		Description: describeTraceDataFlow(),
	}, s.handleTraceDataFlow)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trace_inheritance",
		Description: describeTraceInheritance(),
	}, s.handleTraceInheritance)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_complexity",
		Description: describeComplexity(),
	}, s.handleAnalyzeComplexity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_api_surface",
		Description: describeAPISurface(),
	}, s.handleAnalyzeAPISurface)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_security",
		Description: describeSecurity(),
	}, s.handleAnalyzeSecurity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_performance",
		Description: describePerformance(),
	}, s.handleAnalyzePerformance)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect_patterns",
		Description: describePatterns(),
	}, s.handleDetectPatterns)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_unused_code",
		Description: describeUnusedCode(),
	}, s.handleFindUnusedCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_duplicates",
		Description: describeDuplicates(),
	}, s.handleFindDuplicates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_decorators",
		Description: describeDecorators(),
	}, s.handleAnalyzeDecorators)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_routes",
		Description: describeRoutes(),
	}, s.handleAnalyzeRoutes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_sql_queries",
		Description: describeSQLQueries(),
	}, s.handleAnalyzeSQLQueries)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_events",
		Description: describeEvents(),
	}, s.handleAnalyzeEvents)
}
