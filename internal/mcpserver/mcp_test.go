package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeprism/codeprism/internal/indexer"
	"github.com/codeprism/codeprism/internal/output"
	"github.com/codeprism/codeprism/pkg/config"
)

// newTestServer indexes a small fixture repository and returns a server
// over it.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	goSrc := `package app

func helper() int {
	return 1
}

func caller() int {
	return helper()
}
`
	pySrc := `def get_users(engine):
    return engine.execute("SELECT id, name FROM users WHERE active = 1")

@app.get("/users")
def list_users():
    bus.publish("users.listed", {})
    return get_users(db)
`
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(goSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte(pySrc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false

	idx, err := indexer.New(dir, cfg)
	if err != nil {
		t.Fatalf("indexer.New() error: %v", err)
	}
	if _, err := idx.IndexDir(context.Background(), nil); err != nil {
		t.Fatalf("IndexDir() error: %v", err)
	}

	return NewServer(idx, cfg, "test")
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

func TestServerCreation(t *testing.T) {
	s := newTestServer(t)
	if s == nil || s.server == nil {
		t.Fatal("NewServer() returned incomplete server")
	}
}

func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"repository_stats":                describeRepositoryStats,
		"content_stats":                   describeContentStats,
		"find_files":                      describeFindFiles,
		"search_content":                  describeSearchContent,
		"search_symbols":                  describeSearchSymbols,
		"explain_symbol":                  describeExplainSymbol,
		"find_references":                 describeFindReferences,
		"find_dependencies":               describeFindDependencies,
		"analyze_transitive_dependencies": describeTransitiveDependencies,
		"trace_path":                      describeTracePath,
		"trace_data_flow":                 describeTraceDataFlow,
		"trace_inheritance":               describeTraceInheritance,
		"analyze_complexity":              describeComplexity,
		"analyze_api_surface":             describeAPISurface,
		"analyze_security":                describeSecurity,
		"analyze_performance":             describePerformance,
		"detect_patterns":                 describePatterns,
		"find_unused_code":                describeUnusedCode,
		"find_duplicates":                 describeDuplicates,
		"analyze_decorators":              describeDecorators,
		"analyze_routes":                  describeRoutes,
		"analyze_sql_queries":             describeSQLQueries,
		"analyze_events":                  describeEvents,
	}

	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			if desc == "" {
				t.Errorf("%s description is empty", name)
			}
			if !strings.Contains(desc, "RETURNED:") {
				t.Errorf("%s description missing RETURNED section", name)
			}
		})
	}
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		format string
		want   output.Format
	}{
		{"", output.FormatTOON},
		{"toon", output.FormatTOON},
		{"json", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"garbage", output.FormatTOON},
	}
	for _, tt := range tests {
		if got := getFormat(FormatInput{Format: tt.format}); got != tt.want {
			t.Errorf("getFormat(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "cmd/main.go", true},
		{"**/*.py", "services/users/app.py", true},
		{"cmd/*.go", "cmd/main.go", true},
		{"cmd/*.go", "internal/main.go", false},
		{"*.rs", "main.go", false},
		{"app.*", "services/app.py", true},
	}
	for _, tt := range tests {
		if got := matchGlob(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestRepositoryStatsTool(t *testing.T) {
	s := newTestServer(t)
	// Default format; the tag names must survive the TOON encoding,
	// not fall back to Go field names.
	res, _, err := s.handleRepositoryStats(context.Background(), nil, FormatInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"stats", "files", "nodes", "edges", "by_language"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	for _, reject := range []string{"Files", "Nodes", "ByLanguage"} {
		if strings.Contains(text, reject) {
			t.Errorf("output leaks Go field name %q:\n%s", reject, text)
		}
	}
}

func TestContentStatsTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleContentStats(context.Background(), nil, FormatInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "go") || !strings.Contains(text, "python") {
		t.Errorf("expected both languages in output:\n%s", text)
	}
}

func TestFindFilesTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleFindFiles(context.Background(), nil, FindFilesInput{Pattern: "*.py"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "app.py") {
		t.Errorf("expected app.py in output:\n%s", text)
	}
	if strings.Contains(text, "main.go") {
		t.Errorf("main.go should not match *.py:\n%s", text)
	}

	res, _, _ = s.handleFindFiles(context.Background(), nil, FindFilesInput{})
	if !res.IsError {
		t.Error("missing pattern should be a tool error")
	}
}

func TestSearchContentTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleSearchContent(context.Background(), nil, SearchContentInput{Pattern: `select\s+id`})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "app.py") {
		t.Errorf("case-insensitive match should find the SQL line:\n%s", text)
	}

	res, _, _ = s.handleSearchContent(context.Background(), nil, SearchContentInput{Pattern: "["})
	if !res.IsError {
		t.Error("invalid regex should be a tool error")
	}
}

func TestSearchSymbolsTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleSearchSymbols(context.Background(), nil, SearchSymbolsInput{
		Query: "helper",
		Mode:  "exact",
		Kinds: []string{"function"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "helper") || !strings.Contains(text, "main.go") {
		t.Errorf("expected helper function in output:\n%s", text)
	}
}

func TestExplainSymbolTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleExplainSymbol(context.Background(), nil, SymbolInput{Symbol: "caller"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "caller") || !strings.Contains(text, "dependencies") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func TestExplainSymbolNotFound(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleExplainSymbol(context.Background(), nil, SymbolInput{Symbol: "no_such_symbol"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for unknown symbol")
	}
	if !strings.HasPrefix(resultText(t, res), "Error: ") {
		t.Errorf("error text should carry Error prefix: %s", resultText(t, res))
	}
}

func TestFindReferencesTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleFindReferences(context.Background(), nil, ReferencesInput{
		SymbolInput: SymbolInput{Symbol: "helper"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	// The symbol columns must come through next to the edge kind.
	for _, want := range []string{"caller", "main.go", "calls"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestTracePathTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleTracePath(context.Background(), nil, TracePathInput{
		From: "caller",
		To:   "helper",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "found: true") {
		t.Errorf("expected a path from caller to helper:\n%s", text)
	}
}

func TestAnalyzeRoutesTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeRoutes(context.Background(), nil, FormatInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "/users") || !strings.Contains(text, "GET") {
		t.Errorf("expected GET /users route:\n%s", text)
	}
}

func TestAnalyzeSQLQueriesTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeSQLQueries(context.Background(), nil, FormatInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "select") || !strings.Contains(text, "FROM users") {
		t.Errorf("expected the users query:\n%s", text)
	}
}

func TestAnalyzeEventsTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeEvents(context.Background(), nil, FormatInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "users.listed") {
		t.Errorf("expected the users.listed event:\n%s", text)
	}
}

func TestAnalyzeComplexityTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeComplexity(context.Background(), nil, ComplexityInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "helper") {
		t.Errorf("expected per-function metrics:\n%s", text)
	}
}

func TestFindUnusedCodeTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleFindUnusedCode(context.Background(), nil, UnusedInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	// caller is an unexported Go function nothing references.
	text := resultText(t, res)
	for _, want := range []string{"caller", "main.go", "confidence"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestAnalyzeAPISurfaceTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeAPISurface(context.Background(), nil, FormatInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"public_count", "private_count", "public_ratio"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestDetectPatternsTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleDetectPatterns(context.Background(), nil, FormatInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "instances") || !strings.Contains(text, "by_pattern") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func TestAnalyzeDecoratorsTool(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeDecorators(context.Background(), nil, DecoratorsInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "app.get") {
		t.Errorf("expected app.get decorator:\n%s", text)
	}
}

func TestParseEdgeKinds(t *testing.T) {
	kinds := parseEdgeKinds([]string{"calls", "EXTENDS", "bogus"})
	if len(kinds) != 2 {
		t.Fatalf("parseEdgeKinds() = %v, want calls and extends", kinds)
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	if err != nil {
		t.Fatalf("GenerateManifest() error: %v", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m.Version != "1.2.3" {
		t.Errorf("version = %q", m.Version)
	}
	if m.Name == "" || m.Schema == "" {
		t.Error("manifest missing name or schema")
	}
	if len(m.Packages) == 0 || m.Packages[0].Transport.Type != "stdio" {
		t.Error("manifest should declare a stdio package")
	}
}
