// Package parser wraps tree-sitter for multi-language source parsing.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codeprism/codeprism/pkg/uast"
)

// Language represents a supported programming language.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangRuby       Language = "ruby"
	LangUnknown    Language = "unknown"
)

// Parser wraps a tree-sitter parser. A Parser is not safe for concurrent
// use; construct one per worker goroutine.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed tree and the inputs it came from.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}

	return p.Parse(source, lang, path)
}

// Parse parses source code with a specified language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	return &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
		Path:     path,
	}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// GetTreeSitterLanguage returns the tree-sitter grammar for a Language.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangRuby:
		return ruby.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LangGo
	case ".py", ".pyw", ".pyi":
		return LangPython
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".ts":
		return LangTypeScript
	case ".tsx", ".jsx":
		return LangTSX
	case ".java":
		return LangJava
	case ".rb":
		return LangRuby
	default:
		return LangUnknown
	}
}

// SupportedLanguages returns every language with a grammar.
func SupportedLanguages() []Language {
	return []Language{
		LangGo, LangPython, LangJavaScript, LangTypeScript,
		LangTSX, LangJava, LangRuby,
	}
}

// NodeVisitor is a function that visits AST nodes. Returning false stops
// descent into the node's children.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// TypedNodeVisitor visits AST nodes with a pre-cached node type, avoiding
// repeated CGO calls when the type is checked more than once.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// Walk traverses the AST calling visitor for each node.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}
	if !visitor(node, source) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// WalkTyped traverses the AST with cached node types.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}
	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}
	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// FindNodesByType returns all nodes of a specific type.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	Walk(root, source, func(n *sitter.Node, _ []byte) bool {
		if n.Type() == nodeType {
			results = append(results, n)
		}
		return true
	})
	return results
}

// NodeText extracts the source text for a node. Returns empty string if the
// node is nil or its byte offsets are out of bounds.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// NodeSpan converts a tree-sitter node position to a uast.Span.
func NodeSpan(node *sitter.Node) uast.Span {
	return uast.Span{
		StartByte:   node.StartByte(),
		EndByte:     node.EndByte(),
		StartLine:   node.StartPoint().Row + 1,
		StartColumn: node.StartPoint().Column + 1,
		EndLine:     node.EndPoint().Row + 1,
		EndColumn:   node.EndPoint().Column + 1,
	}
}

// CollectErrors walks the tree and reports tree-sitter ERROR and MISSING
// nodes as parse errors. Extraction continues around them.
func CollectErrors(root *sitter.Node) []uast.ParseError {
	if root == nil || !root.HasError() {
		return nil
	}
	var errs []uast.ParseError
	Walk(root, nil, func(n *sitter.Node, _ []byte) bool {
		if n.IsError() || n.IsMissing() {
			msg := "syntax error"
			if n.IsMissing() {
				msg = "missing " + n.Type()
			}
			errs = append(errs, uast.ParseError{
				Line:    n.StartPoint().Row + 1,
				Column:  n.StartPoint().Column + 1,
				Message: msg,
			})
			return false
		}
		return n.HasError()
	})
	return errs
}
