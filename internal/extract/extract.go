// Package extract maps tree-sitter parse trees to Universal AST nodes and
// edges. One extractor exists per language family; ForLanguage returns the
// right one or nil for languages we can parse but not yet map.
package extract

import (
	"regexp"
	"strings"

	"github.com/codeprism/codeprism/pkg/parser"
	"github.com/codeprism/codeprism/pkg/uast"
)

// Extractor maps a parse result to a FileResult.
type Extractor interface {
	// Extract produces the Universal AST for one parsed file.
	Extract(res *parser.ParseResult) *uast.FileResult

	// Close releases resources held by the extractor.
	Close()
}

// ForLanguage returns an Extractor for the given language, or nil if none
// exists. TSX and JavaScript share the TypeScript-family extractor.
func ForLanguage(lang parser.Language) Extractor {
	switch lang {
	case parser.LangGo:
		return newGoExtractor()
	case parser.LangPython:
		return newPythonExtractor()
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return newScriptExtractor()
	default:
		return nil
	}
}

// SupportedLanguages returns languages with Extractor implementations.
func SupportedLanguages() []parser.Language {
	return []parser.Language{
		parser.LangGo,
		parser.LangPython,
		parser.LangJavaScript,
		parser.LangTypeScript,
		parser.LangTSX,
	}
}

// builder accumulates nodes and edges for one file while tracking the
// enclosing definition scope.
type builder struct {
	path     string
	language string
	result   *uast.FileResult
	scope    []uast.NodeID
	prefix   []string // qualified-name segments of the scope stack
}

func newBuilder(res *parser.ParseResult) *builder {
	return &builder{
		path:     res.Path,
		language: string(res.Language),
		result: &uast.FileResult{
			Path:        res.Path,
			Language:    string(res.Language),
			ContentHash: uast.HashContent(res.Source),
			Errors:      parser.CollectErrors(res.Tree.RootNode()),
		},
	}
}

// qualify builds a dotted qualified name from the scope prefix.
func (b *builder) qualify(name string) string {
	if len(b.prefix) == 0 {
		return name
	}
	return strings.Join(b.prefix, ".") + "." + name
}

// add creates a node, records it, and returns its ID.
func (b *builder) add(kind uast.NodeKind, name string, span uast.Span, attrs map[string]string) uast.NodeID {
	qname := b.qualify(name)
	id := uast.NewNodeID(b.path, kind, qname, span.StartByte)
	b.result.Nodes = append(b.result.Nodes, uast.Node{
		ID:            id,
		Kind:          kind,
		Name:          name,
		QualifiedName: qname,
		File:          b.path,
		Span:          span,
		Language:      b.language,
		Attributes:    attrs,
	})
	return id
}

// enter pushes a definition onto the scope stack.
func (b *builder) enter(id uast.NodeID, name string) {
	b.scope = append(b.scope, id)
	b.prefix = append(b.prefix, name)
}

// leave pops the innermost definition.
func (b *builder) leave() {
	if len(b.scope) > 0 {
		b.scope = b.scope[:len(b.scope)-1]
		b.prefix = b.prefix[:len(b.prefix)-1]
	}
}

// owner returns the innermost enclosing definition.
func (b *builder) owner() uast.NodeID {
	if len(b.scope) == 0 {
		return ""
	}
	return b.scope[len(b.scope)-1]
}

// edge records a resolved edge.
func (b *builder) edge(source, target uast.NodeID, kind uast.EdgeKind) {
	b.result.Edges = append(b.result.Edges, uast.Edge{Source: source, Target: target, Kind: kind})
}

// pending records an edge whose target is known only by name.
func (b *builder) pending(source uast.NodeID, targetName string, kind uast.EdgeKind) {
	if source == "" || targetName == "" {
		return
	}
	b.result.Pending = append(b.result.Pending, uast.PendingEdge{
		Source:     source,
		TargetName: targetName,
		Kind:       kind,
	})
}

// sqlPattern matches string literals that look like SQL statements.
var sqlPattern = regexp.MustCompile(`(?is)^\s*(select\b.+\bfrom\b|insert\s+into\b|update\b.+\bset\b|delete\s+from\b|create\s+(table|index|view)\b|alter\s+table\b)`)

// looksLikeSQL reports whether a literal's text is an SQL statement.
func looksLikeSQL(text string) bool {
	return len(text) >= 12 && sqlPattern.MatchString(text)
}

// eventCallNames are call targets treated as event emission.
var eventCallNames = map[string]bool{
	"emit": true, "publish": true, "dispatch": true,
	"trigger": true, "fire": true, "send_event": true,
}

// routeMethods are receiver methods treated as HTTP route registration when
// their first argument is a path literal.
var routeMethods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true, "patch": true,
	"head": true, "options": true, "handle": true, "handlefunc": true,
	"route": true, "all": true, "use": false,
}

// isRouteMethod reports whether a method name registers a route.
func isRouteMethod(name string) bool {
	return routeMethods[strings.ToLower(name)]
}

// isPathLiteral reports whether a string literal looks like a URL path.
func isPathLiteral(text string) bool {
	return strings.HasPrefix(text, "/")
}

// stripQuotes removes surrounding quote characters from a literal's text.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	// Python-style prefixed strings (f"...", r'...').
	if len(s) >= 3 {
		if i := strings.IndexAny(s, `"'`); i > 0 && i <= 2 {
			trimmed := s[i:]
			return stripQuotes(trimmed)
		}
	}
	return s
}
