package mcpserver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/codeprism/codeprism/internal/analyzer"
	"github.com/codeprism/codeprism/internal/graph"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/internal/vcs"
	"github.com/codeprism/codeprism/pkg/uast"
)

// FormatInput is the base input shared by all tools.
type FormatInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// SymbolInput identifies a symbol by name or qualified name.
type SymbolInput struct {
	FormatInput
	Symbol string `json:"symbol" jsonschema:"Symbol name or qualified name (e.g. pkg.Type.Method)."`
}

type FindFilesInput struct {
	FormatInput
	Pattern string `json:"pattern" jsonschema:"Glob pattern matched against repository-relative paths (e.g. **/*.py, cmd/*.go)."`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum files to return. Default 100."`
}

type SearchContentInput struct {
	FormatInput
	Pattern       string `json:"pattern" jsonschema:"Regular expression searched line by line."`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"Match case-sensitively. Default false."`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum matches to return. Default 100."`
}

type SearchSymbolsInput struct {
	FormatInput
	Query string   `json:"query" jsonschema:"Symbol name to search for."`
	Mode  string   `json:"mode,omitempty" jsonschema:"Match mode: exact, contains (default), or regex."`
	Kinds []string `json:"kinds,omitempty" jsonschema:"Restrict to node kinds: module, class, function, method, variable, route, sql_query, event."`
	Limit int      `json:"limit,omitempty" jsonschema:"Maximum symbols to return. Default 50."`
}

type ReferencesInput struct {
	SymbolInput
	EdgeKinds []string `json:"edge_kinds,omitempty" jsonschema:"Restrict to edge kinds: calls, reads, writes, imports, emits, routes_to, raises, extends, implements."`
}

type TransitiveInput struct {
	SymbolInput
	EdgeKinds []string `json:"edge_kinds,omitempty" jsonschema:"Edge kinds to traverse. Default: all."`
	MaxDepth  int      `json:"max_depth,omitempty" jsonschema:"Traversal depth limit. Default 10."`
}

type TracePathInput struct {
	FormatInput
	From      string   `json:"from" jsonschema:"Source symbol name."`
	To        string   `json:"to" jsonschema:"Target symbol name."`
	EdgeKinds []string `json:"edge_kinds,omitempty" jsonschema:"Edge kinds to traverse. Default: all."`
	MaxDepth  int      `json:"max_depth,omitempty" jsonschema:"Search depth limit. Default 10."`
}

type DataFlowInput struct {
	SymbolInput
	Direction string `json:"direction,omitempty" jsonschema:"forward (where the value goes, default) or backward (where it comes from)."`
	MaxDepth  int    `json:"max_depth,omitempty" jsonschema:"Traversal depth limit. Default 10."`
}

type ComplexityInput struct {
	FormatInput
	Threshold int `json:"threshold,omitempty" jsonschema:"Cyclomatic threshold for the hotspot list. Default from config (10)."`
}

type UnusedInput struct {
	FormatInput
	Confidence float64 `json:"confidence,omitempty" jsonschema:"Minimum confidence (0.0-1.0). Default 0.8."`
}

type DuplicatesInput struct {
	FormatInput
	MinLines   int     `json:"min_lines,omitempty" jsonschema:"Minimum block size in normalized lines. Default 6."`
	Similarity float64 `json:"similarity,omitempty" jsonschema:"Similarity threshold (0.0-1.0). Default 0.8."`
}

type DecoratorsInput struct {
	FormatInput
	Pattern string `json:"pattern,omitempty" jsonschema:"Only include decorators whose name contains this substring."`
}

// Helpers

func getFormat(input FormatInput) output.Format {
	switch strings.ToLower(input.Format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	if format == output.FormatMarkdown {
		return "```\n" + string(out) + "\n```", nil
	}
	return string(out), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// resolveSymbol finds a single definition for a name. Exact matches win;
// definitions win over references to the same name.
func (s *Server) resolveSymbol(name string) (*uast.Node, error) {
	store := s.idx.Store()
	for _, mode := range []graph.SearchMode{graph.MatchExact, graph.MatchContains} {
		matches, err := store.SearchSymbols(name, mode, nil, 0)
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

func parseEdgeKinds(names []string) []uast.EdgeKind {
	var kinds []uast.EdgeKind
	for _, n := range names {
		for _, k := range uast.AllEdgeKinds() {
			if string(k) == strings.ToLower(n) {
				kinds = append(kinds, k)
			}
		}
	}
	return kinds
}

func parseNodeKinds(names []string) []uast.NodeKind {
	var kinds []uast.NodeKind
	for _, n := range names {
		kinds = append(kinds, uast.NodeKind(strings.ToLower(n)))
	}
	return kinds
}

// indexedPaths returns repo-relative and absolute paths for every indexed
// file, in stable order.
func (s *Server) indexedPaths() (rel []string, abs []string) {
	for _, f := range s.idx.Store().Files() {
		rel = append(rel, f.Path)
		abs = append(abs, filepath.Join(s.idx.Root(), filepath.FromSlash(f.Path)))
	}
	return rel, abs
}

// symbolRef is a compact node view for tool responses.
type symbolRef struct {
	Name          string `json:"name" toon:"name"`
	QualifiedName string `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
	Kind          string `json:"kind" toon:"kind"`
	File          string `json:"file" toon:"file"`
	Line          int    `json:"line" toon:"line"`
}

func refOf(n *uast.Node) symbolRef {
	return symbolRef{
		Name:          n.Name,
		QualifiedName: n.QualifiedName,
		Kind:          string(n.Kind),
		File:          n.File,
		Line:          int(n.Span.StartLine),
	}
}

// Tool handlers

func (s *Server) handleRepositoryStats(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	stats := s.idx.Store().Summary()

	out := struct {
		Root  string      `json:"root" toon:"root"`
		Stats graph.Stats `json:"stats" toon:"stats"`
		Git   *vcs.Info   `json:"git,omitempty" toon:"git,omitempty"`
	}{Root: s.idx.Root(), Stats: stats}

	if info, err := vcs.Describe(s.idx.Root()); err == nil {
		out.Git = info
	}
	return toolResult(out, format)
}

func (s *Server) handleContentStats(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	rel, abs := s.indexedPaths()

	type langStats struct {
		Language string `json:"language" toon:"language"`
		Files    int    `json:"files" toon:"files"`
		Lines    int    `json:"lines" toon:"lines"`
		Bytes    int64  `json:"bytes" toon:"bytes"`
	}
	byLang := make(map[string]*langStats)
	var totalLines int
	var totalBytes int64

	files := s.idx.Store().Files()
	for i, f := range files {
		data, err := os.ReadFile(abs[i])
		if err != nil {
			continue
		}
		lines := strings.Count(string(data), "\n") + 1
		ls := byLang[f.Language]
		if ls == nil {
			ls = &langStats{Language: f.Language}
			byLang[f.Language] = ls
		}
		ls.Files++
		ls.Lines += lines
		ls.Bytes += int64(len(data))
		totalLines += lines
		totalBytes += int64(len(data))
	}

	languages := make([]langStats, 0, len(byLang))
	for _, ls := range byLang {
		languages = append(languages, *ls)
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].Lines > languages[j].Lines })

	out := struct {
		Files      int         `json:"files" toon:"files"`
		Lines      int         `json:"lines" toon:"lines"`
		Bytes      int64       `json:"bytes" toon:"bytes"`
		ByLanguage []langStats `json:"by_language" toon:"by_language"`
	}{len(rel), totalLines, totalBytes, languages}
	return toolResult(out, format)
}

func (s *Server) handleFindFiles(ctx context.Context, req *mcp.CallToolRequest, input FindFilesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	if input.Pattern == "" {
		return toolError("pattern is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}

	rel, _ := s.indexedPaths()
	var matched []string
	for _, p := range rel {
		if matchGlob(input.Pattern, p) {
			matched = append(matched, p)
			if len(matched) >= limit {
				break
			}
		}
	}

	out := struct {
		Pattern string   `json:"pattern" toon:"pattern"`
		Total   int      `json:"total" toon:"total"`
		Files   []string `json:"files" toon:"files"`
	}{input.Pattern, len(matched), matched}
	return toolResult(out, format)
}

// matchGlob matches a pattern against a slash-separated relative path.
// "**/" prefixes match any directory depth; bare patterns also match the
// base name.
func matchGlob(pattern, p string) bool {
	if ok, _ := path.Match(pattern, p); ok {
		return true
	}
	if trimmed, found := strings.CutPrefix(pattern, "**/"); found {
		if ok, _ := path.Match(trimmed, p); ok {
			return true
		}
		if ok, _ := path.Match(trimmed, path.Base(p)); ok {
			return true
		}
	}
	if ok, _ := path.Match(pattern, path.Base(p)); ok {
		return true
	}
	return false
}

func (s *Server) handleSearchContent(ctx context.Context, req *mcp.CallToolRequest, input SearchContentInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	if input.Pattern == "" {
		return toolError("pattern is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}

	pattern := input.Pattern
	if !input.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return toolError("invalid pattern: " + err.Error())
	}

	type match struct {
		File string `json:"file" toon:"file"`
		Line int    `json:"line" toon:"line"`
		Text string `json:"text" toon:"text"`
	}
	var matches []match

	rel, abs := s.indexedPaths()
scan:
	for i := range rel {
		f, err := os.Open(abs[i])
		if err != nil {
			continue
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			if re.MatchString(sc.Text()) {
				matches = append(matches, match{File: rel[i], Line: lineNo, Text: strings.TrimSpace(sc.Text())})
				if len(matches) >= limit {
					f.Close()
					break scan
				}
			}
		}
		f.Close()
	}

	out := struct {
		Pattern string  `json:"pattern" toon:"pattern"`
		Total   int     `json:"total" toon:"total"`
		Matches []match `json:"matches" toon:"matches"`
	}{input.Pattern, len(matches), matches}
	return toolResult(out, format)
}

func (s *Server) handleSearchSymbols(ctx context.Context, req *mcp.CallToolRequest, input SearchSymbolsInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	if input.Query == "" {
		return toolError("query is required")
	}

	mode := graph.MatchContains
	switch strings.ToLower(input.Mode) {
	case "exact":
		mode = graph.MatchExact
	case "regex":
		mode = graph.MatchRegex
	case "", "contains":
	default:
		return toolError("unknown mode: " + input.Mode)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	nodes, err := s.idx.Store().SearchSymbols(input.Query, mode, parseNodeKinds(input.Kinds), limit)
	if err != nil {
		return toolError(err.Error())
	}

	symbols := make([]symbolRef, len(nodes))
	for i := range nodes {
		symbols[i] = refOf(&nodes[i])
	}
	out := struct {
		Query   string      `json:"query" toon:"query"`
		Total   int         `json:"total" toon:"total"`
		Symbols []symbolRef `json:"symbols" toon:"symbols"`
	}{input.Query, len(symbols), symbols}
	return toolResult(out, format)
}

func (s *Server) handleExplainSymbol(ctx context.Context, req *mcp.CallToolRequest, input SymbolInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	node, err := s.resolveSymbol(input.Symbol)
	if err != nil {
		return toolError(err.Error())
	}

	store := s.idx.Store()
	fanIn, fanOut := store.Degrees(node.ID)

	out := struct {
		Symbol       symbolRef         `json:"symbol" toon:"symbol"`
		Signature    string            `json:"signature,omitempty" toon:"signature,omitempty"`
		Attributes   map[string]string `json:"attributes,omitempty" toon:"attributes,omitempty"`
		Span         uast.Span         `json:"span" toon:"span"`
		References   int               `json:"references" toon:"references"`
		Dependencies int               `json:"dependencies" toon:"dependencies"`
		Supertypes   []symbolRef       `json:"supertypes,omitempty" toon:"supertypes,omitempty"`
		Subtypes     []symbolRef       `json:"subtypes,omitempty" toon:"subtypes,omitempty"`
	}{
		Symbol:       refOf(node),
		Signature:    node.Signature,
		Attributes:   node.Attributes,
		Span:         node.Span,
		References:   fanIn,
		Dependencies: fanOut,
	}

	if node.Kind == uast.KindClass {
		if info, ok := store.Inheritance(node.ID); ok {
			for i := range info.Supertypes {
				out.Supertypes = append(out.Supertypes, refOf(&info.Supertypes[i]))
			}
			for i := range info.Subtypes {
				out.Subtypes = append(out.Subtypes, refOf(&info.Subtypes[i]))
			}
		}
	}
	return toolResult(out, format)
}

// edgeRef repeats symbolRef's fields inline: toon-go does not flatten
// embedded structs, and an embedded symbolRef would drop every symbol
// column from the tabular output.
type edgeRef struct {
	Name          string `json:"name" toon:"name"`
	QualifiedName string `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
	Kind          string `json:"kind" toon:"kind"`
	File          string `json:"file" toon:"file"`
	Line          int    `json:"line" toon:"line"`
	Edge          string `json:"edge" toon:"edge"`
}

func edgeRefs(refs []graph.Reference) []edgeRef {
	out := make([]edgeRef, len(refs))
	for i := range refs {
		ref := refOf(&refs[i].Node)
		out[i] = edgeRef{
			Name:          ref.Name,
			QualifiedName: ref.QualifiedName,
			Kind:          ref.Kind,
			File:          ref.File,
			Line:          ref.Line,
			Edge:          string(refs[i].Kind),
		}
	}
	return out
}

func (s *Server) handleFindReferences(ctx context.Context, req *mcp.CallToolRequest, input ReferencesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	node, err := s.resolveSymbol(input.Symbol)
	if err != nil {
		return toolError(err.Error())
	}

	refs := s.idx.Store().References(node.ID, parseEdgeKinds(input.EdgeKinds)...)
	out := struct {
		Symbol     symbolRef `json:"symbol" toon:"symbol"`
		Total      int       `json:"total" toon:"total"`
		References []edgeRef `json:"references" toon:"references"`
	}{refOf(node), len(refs), edgeRefs(refs)}
	return toolResult(out, format)
}

func (s *Server) handleFindDependencies(ctx context.Context, req *mcp.CallToolRequest, input ReferencesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	node, err := s.resolveSymbol(input.Symbol)
	if err != nil {
		return toolError(err.Error())
	}

	deps := s.idx.Store().Dependencies(node.ID, parseEdgeKinds(input.EdgeKinds)...)
	out := struct {
		Symbol       symbolRef `json:"symbol" toon:"symbol"`
		Total        int       `json:"total" toon:"total"`
		Dependencies []edgeRef `json:"dependencies" toon:"dependencies"`
	}{refOf(node), len(deps), edgeRefs(deps)}
	return toolResult(out, format)
}

// depthRef inlines symbolRef's fields for the same reason as edgeRef.
type depthRef struct {
	Name          string `json:"name" toon:"name"`
	QualifiedName string `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
	Kind          string `json:"kind" toon:"kind"`
	File          string `json:"file" toon:"file"`
	Line          int    `json:"line" toon:"line"`
	Depth         int    `json:"depth" toon:"depth"`
}

func depthRefs(nodes []graph.TransitiveNode) []depthRef {
	out := make([]depthRef, len(nodes))
	for i := range nodes {
		ref := refOf(&nodes[i].Node)
		out[i] = depthRef{
			Name:          ref.Name,
			QualifiedName: ref.QualifiedName,
			Kind:          ref.Kind,
			File:          ref.File,
			Line:          ref.Line,
			Depth:         nodes[i].Depth,
		}
	}
	return out
}

func (s *Server) handleTransitiveDependencies(ctx context.Context, req *mcp.CallToolRequest, input TransitiveInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	node, err := s.resolveSymbol(input.Symbol)
	if err != nil {
		return toolError(err.Error())
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = s.cfg.Thresholds.MaxTraceDepth
	}

	deps, cycles := s.idx.Store().TransitiveDependencies(node.ID, parseEdgeKinds(input.EdgeKinds), maxDepth)
	out := struct {
		Symbol       symbolRef  `json:"symbol" toon:"symbol"`
		MaxDepth     int        `json:"max_depth" toon:"max_depth"`
		Cycles       bool       `json:"cycles_detected" toon:"cycles_detected"`
		Total        int        `json:"total" toon:"total"`
		Dependencies []depthRef `json:"dependencies" toon:"dependencies"`
	}{refOf(node), maxDepth, cycles, len(deps), depthRefs(deps)}
	return toolResult(out, format)
}

func (s *Server) handleTracePath(ctx context.Context, req *mcp.CallToolRequest, input TracePathInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	from, err := s.resolveSymbol(input.From)
	if err != nil {
		return toolError(err.Error())
	}
	to, err := s.resolveSymbol(input.To)
	if err != nil {
		return toolError(err.Error())
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = s.cfg.Thresholds.MaxTraceDepth
	}

	nodes := s.idx.Store().TracePath(from.ID, to.ID, parseEdgeKinds(input.EdgeKinds), maxDepth)
	steps := make([]symbolRef, len(nodes))
	for i := range nodes {
		steps[i] = refOf(&nodes[i])
	}

	out := struct {
		From  symbolRef   `json:"from" toon:"from"`
		To    symbolRef   `json:"to" toon:"to"`
		Found bool        `json:"found" toon:"found"`
		Steps []symbolRef `json:"steps,omitempty" toon:"steps,omitempty"`
	}{refOf(from), refOf(to), len(steps) > 0, steps}
	return toolResult(out, format)
}

func (s *Server) handleTraceDataFlow(ctx context.Context, req *mcp.CallToolRequest, input DataFlowInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	node, err := s.resolveSymbol(input.Symbol)
	if err != nil {
		return toolError(err.Error())
	}

	dir := graph.FlowForward
	switch strings.ToLower(input.Direction) {
	case "", "forward":
	case "backward":
		dir = graph.FlowBackward
	default:
		return toolError("direction must be forward or backward")
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = s.cfg.Thresholds.MaxTraceDepth
	}

	flow := s.idx.Store().DataFlow(node.ID, dir, maxDepth)
	out := struct {
		Symbol    symbolRef  `json:"symbol" toon:"symbol"`
		Direction string     `json:"direction" toon:"direction"`
		Total     int        `json:"total" toon:"total"`
		Flow      []depthRef `json:"flow" toon:"flow"`
	}{refOf(node), string(dir), len(flow), depthRefs(flow)}
	return toolResult(out, format)
}

func (s *Server) handleTraceInheritance(ctx context.Context, req *mcp.CallToolRequest, input SymbolInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	node, err := s.resolveSymbol(input.Symbol)
	if err != nil {
		return toolError(err.Error())
	}

	info, ok := s.idx.Store().Inheritance(node.ID)
	if !ok {
		return toolError("symbol not found: " + input.Symbol)
	}

	toRefs := func(nodes []uast.Node) []symbolRef {
		out := make([]symbolRef, len(nodes))
		for i := range nodes {
			out[i] = refOf(&nodes[i])
		}
		return out
	}
	out := struct {
		Symbol     symbolRef   `json:"symbol" toon:"symbol"`
		Supertypes []symbolRef `json:"supertypes,omitempty" toon:"supertypes,omitempty"`
		Subtypes   []symbolRef `json:"subtypes,omitempty" toon:"subtypes,omitempty"`
		Implements []symbolRef `json:"implements,omitempty" toon:"implements,omitempty"`
	}{refOf(node), toRefs(info.Supertypes), toRefs(info.Subtypes), toRefs(info.Implements)}
	return toolResult(out, format)
}

func (s *Server) handleAnalyzeComplexity(ctx context.Context, req *mcp.CallToolRequest, input ComplexityInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	_, abs := s.indexedPaths()
	if len(abs) == 0 {
		return toolError("no source files indexed")
	}

	threshold := input.Threshold
	if threshold <= 0 {
		threshold = s.cfg.Thresholds.CyclomaticComplexity
	}

	a := analyzer.NewComplexityAnalyzer(threshold)
	a.Workers = s.cfg.Indexing.Workers
	report, err := a.AnalyzeFiles(ctx, abs, nil)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report, format)
}

func (s *Server) handleAnalyzeAPISurface(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	report := analyzer.AnalyzeAPISurface(s.idx.Store())

	type apiSymbol struct {
		Name          string `json:"name" toon:"name"`
		QualifiedName string `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
		Kind          string `json:"kind" toon:"kind"`
		Line          int    `json:"line" toon:"line"`
		RefCount      int    `json:"ref_count" toon:"ref_count"`
	}
	type apiModule struct {
		File    string      `json:"file" toon:"file"`
		Symbols []apiSymbol `json:"symbols" toon:"symbols"`
	}
	type hotspotView struct {
		Name          string  `json:"name" toon:"name"`
		QualifiedName string  `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
		File          string  `json:"file" toon:"file"`
		Line          int     `json:"line" toon:"line"`
		Score         float64 `json:"score" toon:"score"`
		FanIn         int     `json:"fan_in" toon:"fan_in"`
		FanOut        int     `json:"fan_out" toon:"fan_out"`
	}

	modules := make([]apiModule, 0, len(report.Modules))
	for _, mod := range report.Modules {
		symbols := make([]apiSymbol, 0, len(mod.Symbols))
		for _, sym := range mod.Symbols {
			symbols = append(symbols, apiSymbol{
				Name:          sym.Node.Name,
				QualifiedName: sym.Node.QualifiedName,
				Kind:          string(sym.Node.Kind),
				Line:          int(sym.Node.Span.StartLine),
				RefCount:      sym.RefCount,
			})
		}
		modules = append(modules, apiModule{File: mod.File, Symbols: symbols})
	}

	var hotspots []hotspotView
	for _, h := range s.idx.Store().Hotspots(10) {
		hotspots = append(hotspots, hotspotView{
			Name:          h.Node.Name,
			QualifiedName: h.Node.QualifiedName,
			File:          h.Node.File,
			Line:          int(h.Node.Span.StartLine),
			Score:         h.Score,
			FanIn:         h.FanIn,
			FanOut:        h.FanOut,
		})
	}

	out := struct {
		Modules      []apiModule   `json:"modules" toon:"modules"`
		PublicCount  int           `json:"public_count" toon:"public_count"`
		PrivateCount int           `json:"private_count" toon:"private_count"`
		UnusedPublic int           `json:"unused_public" toon:"unused_public"`
		PublicRatio  float64       `json:"public_ratio" toon:"public_ratio"`
		Hotspots     []hotspotView `json:"hotspots,omitempty" toon:"hotspots,omitempty"`
	}{modules, report.PublicCount, report.PrivateCount, report.UnusedPublic, report.PublicRatio, hotspots}
	return toolResult(out, format)
}

func (s *Server) handleAnalyzeSecurity(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	_, abs := s.indexedPaths()
	if len(abs) == 0 {
		return toolError("no source files indexed")
	}

	a := analyzer.NewSecurityAnalyzer()
	a.Workers = s.cfg.Indexing.Workers
	report, err := a.AnalyzeFiles(ctx, abs, nil)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report, format)
}

func (s *Server) handleAnalyzePerformance(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	_, abs := s.indexedPaths()
	if len(abs) == 0 {
		return toolError("no source files indexed")
	}

	a := analyzer.NewPerformanceAnalyzer()
	a.Workers = s.cfg.Indexing.Workers
	report, err := a.AnalyzeFiles(ctx, abs, nil)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report, format)
}

func (s *Server) handleDetectPatterns(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	report := analyzer.DetectPatterns(s.idx.Store())

	type patternView struct {
		Pattern    string      `json:"pattern" toon:"pattern"`
		Symbol     symbolRef   `json:"symbol" toon:"symbol"`
		Related    []symbolRef `json:"related,omitempty" toon:"related,omitempty"`
		Confidence float64     `json:"confidence" toon:"confidence"`
		Evidence   string      `json:"evidence" toon:"evidence"`
	}

	instances := make([]patternView, 0, len(report.Instances))
	for i := range report.Instances {
		inst := &report.Instances[i]
		view := patternView{
			Pattern:    inst.Pattern,
			Symbol:     refOf(&inst.Node),
			Confidence: inst.Confidence,
			Evidence:   inst.Evidence,
		}
		for j := range inst.Related {
			view.Related = append(view.Related, refOf(&inst.Related[j]))
		}
		instances = append(instances, view)
	}

	out := struct {
		Instances []patternView  `json:"instances" toon:"instances"`
		ByPattern map[string]int `json:"by_pattern" toon:"by_pattern"`
	}{instances, report.ByPattern}
	return toolResult(out, format)
}

func (s *Server) handleFindUnusedCode(ctx context.Context, req *mcp.CallToolRequest, input UnusedInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	confidence := input.Confidence
	if confidence <= 0 {
		confidence = s.cfg.Thresholds.UnusedConfidence
	}
	report := analyzer.FindUnused(s.idx.Store(), confidence)

	type unusedView struct {
		Name          string  `json:"name" toon:"name"`
		QualifiedName string  `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
		Kind          string  `json:"kind" toon:"kind"`
		File          string  `json:"file" toon:"file"`
		Line          int     `json:"line" toon:"line"`
		Confidence    float64 `json:"confidence" toon:"confidence"`
		Reason        string  `json:"reason" toon:"reason"`
	}

	symbols := make([]unusedView, 0, len(report.Symbols))
	for i := range report.Symbols {
		sym := &report.Symbols[i]
		symbols = append(symbols, unusedView{
			Name:          sym.Node.Name,
			QualifiedName: sym.Node.QualifiedName,
			Kind:          string(sym.Node.Kind),
			File:          sym.Node.File,
			Line:          int(sym.Node.Span.StartLine),
			Confidence:    sym.Confidence,
			Reason:        sym.Reason,
		})
	}

	out := struct {
		Symbols []unusedView `json:"symbols" toon:"symbols"`
		Total   int          `json:"total" toon:"total"`
	}{symbols, report.Total}
	return toolResult(out, format)
}

func (s *Server) handleFindDuplicates(ctx context.Context, req *mcp.CallToolRequest, input DuplicatesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	_, abs := s.indexedPaths()
	if len(abs) == 0 {
		return toolError("no source files indexed")
	}

	minLines := input.MinLines
	if minLines <= 0 {
		minLines = s.cfg.Thresholds.DuplicateMinLines
	}
	similarity := input.Similarity
	if similarity <= 0 {
		similarity = s.cfg.Thresholds.DuplicateSimilarity
	}

	a := analyzer.NewDuplicateAnalyzer(minLines, similarity)
	a.Workers = s.cfg.Indexing.Workers
	report, err := a.AnalyzeFiles(ctx, abs, nil)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report, format)
}

func (s *Server) handleAnalyzeDecorators(ctx context.Context, req *mcp.CallToolRequest, input DecoratorsInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.FormatInput)
	store := s.idx.Store()

	// usage inlines symbolRef's fields: toon-go does not flatten embedded
	// structs, and an embedded symbolRef would drop every symbol column
	// from the tabular output.
	type usage struct {
		Name          string `json:"name" toon:"name"`
		QualifiedName string `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
		Kind          string `json:"kind" toon:"kind"`
		File          string `json:"file" toon:"file"`
		Line          int    `json:"line" toon:"line"`
		Decorator     string `json:"decorator" toon:"decorator"`
	}
	byName := make(map[string][]usage)

	for _, node := range store.NodesByKind(uast.KindFunction, uast.KindMethod, uast.KindClass) {
		raw := node.Attributes["decorators"]
		if raw == "" {
			continue
		}
		for _, dec := range strings.Split(raw, ",") {
			dec = strings.TrimSpace(dec)
			if dec == "" {
				continue
			}
			if input.Pattern != "" && !strings.Contains(dec, input.Pattern) {
				continue
			}
			ref := refOf(&node)
			byName[dec] = append(byName[dec], usage{
				Name:          ref.Name,
				QualifiedName: ref.QualifiedName,
				Kind:          ref.Kind,
				File:          ref.File,
				Line:          ref.Line,
				Decorator:     dec,
			})
		}
	}

	type group struct {
		Decorator string  `json:"decorator" toon:"decorator"`
		Count     int     `json:"count" toon:"count"`
		Usages    []usage `json:"usages" toon:"usages"`
	}
	groups := make([]group, 0, len(byName))
	for name, usages := range byName {
		sort.Slice(usages, func(i, j int) bool {
			if usages[i].File != usages[j].File {
				return usages[i].File < usages[j].File
			}
			return usages[i].Line < usages[j].Line
		})
		groups = append(groups, group{Decorator: name, Count: len(usages), Usages: usages})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Decorator < groups[j].Decorator
	})

	out := struct {
		Total      int     `json:"total" toon:"total"`
		Decorators []group `json:"decorators" toon:"decorators"`
	}{len(groups), groups}
	return toolResult(out, format)
}

func (s *Server) handleAnalyzeRoutes(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	store := s.idx.Store()

	type route struct {
		Method  string `json:"method" toon:"method"`
		Path    string `json:"path" toon:"path"`
		File    string `json:"file" toon:"file"`
		Line    int    `json:"line" toon:"line"`
		Handler string `json:"handler,omitempty" toon:"handler,omitempty"`
	}
	var routes []route
	for _, node := range store.NodesByKind(uast.KindRoute) {
		r := route{
			Method: node.Attributes["method"],
			Path:   node.Name,
			File:   node.File,
			Line:   int(node.Span.StartLine),
		}
		for _, dep := range store.Dependencies(node.ID, uast.EdgeRoutesTo) {
			r.Handler = dep.Node.QualifiedName
			break
		}
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	out := struct {
		Total  int     `json:"total" toon:"total"`
		Routes []route `json:"routes" toon:"routes"`
	}{len(routes), routes}
	return toolResult(out, format)
}

func (s *Server) handleAnalyzeSQLQueries(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	store := s.idx.Store()

	type query struct {
		Statement string `json:"statement" toon:"statement"`
		Query     string `json:"query" toon:"query"`
		File      string `json:"file" toon:"file"`
		Line      int    `json:"line" toon:"line"`
	}
	var queries []query
	byStatement := make(map[string]int)
	for _, node := range store.NodesByKind(uast.KindSQLQuery) {
		text := node.Attributes["query"]
		stmt := sqlStatement(text)
		byStatement[stmt]++
		queries = append(queries, query{
			Statement: stmt,
			Query:     text,
			File:      node.File,
			Line:      int(node.Span.StartLine),
		})
	}
	sort.Slice(queries, func(i, j int) bool {
		if queries[i].File != queries[j].File {
			return queries[i].File < queries[j].File
		}
		return queries[i].Line < queries[j].Line
	})

	out := struct {
		Total       int            `json:"total" toon:"total"`
		ByStatement map[string]int `json:"by_statement" toon:"by_statement"`
		Queries     []query        `json:"queries" toon:"queries"`
	}{len(queries), byStatement, queries}
	return toolResult(out, format)
}

func sqlStatement(q string) string {
	fields := strings.Fields(strings.ToLower(q))
	if len(fields) == 0 {
		return "unknown"
	}
	switch fields[0] {
	case "select", "insert", "update", "delete", "create", "drop", "alter", "with":
		return fields[0]
	}
	return "unknown"
}

func (s *Server) handleAnalyzeEvents(ctx context.Context, req *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input)
	store := s.idx.Store()

	type event struct {
		Name     string      `json:"name" toon:"name"`
		File     string      `json:"file" toon:"file"`
		Line     int         `json:"line" toon:"line"`
		Emitters []symbolRef `json:"emitters,omitempty" toon:"emitters,omitempty"`
	}
	var events []event
	for _, node := range store.NodesByKind(uast.KindEvent) {
		ev := event{Name: node.Name, File: node.File, Line: int(node.Span.StartLine)}
		for _, ref := range store.References(node.ID, uast.EdgeEmits) {
			ev.Emitters = append(ev.Emitters, refOf(&ref.Node))
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Name != events[j].Name {
			return events[i].Name < events[j].Name
		}
		return events[i].File < events[j].File
	})

	out := struct {
		Total  int     `json:"total" toon:"total"`
		Events []event `json:"events" toon:"events"`
	}{len(events), events}
	return toolResult(out, format)
}
