package analyzer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/codeprism/codeprism/internal/graph"
	"github.com/codeprism/codeprism/pkg/uast"
)

// UnusedSymbol is a definition with no incoming references.
type UnusedSymbol struct {
	Node       uast.Node `json:"node" toon:"node"`
	Confidence float64   `json:"confidence" toon:"confidence"`
	Reason     string    `json:"reason" toon:"reason"`
}

// UnusedReport lists likely-dead definitions.
type UnusedReport struct {
	Symbols []UnusedSymbol `json:"symbols" toon:"symbols"`
	Total   int            `json:"total" toon:"total"`
}

// FindUnused reports functions, methods, and classes nothing references.
// Static analysis cannot see reflective or external callers, so each hit
// carries a confidence instead of a verdict; minConfidence filters the
// output.
func FindUnused(store *graph.Store, minConfidence float64) *UnusedReport {
	if minConfidence <= 0 {
		minConfidence = 0.8
	}

	report := &UnusedReport{}
	candidates := store.NodesByKind(uast.KindFunction, uast.KindMethod, uast.KindClass)
	for _, node := range candidates {
		refs := store.References(node.ID)
		if len(refs) > 0 {
			continue
		}

		confidence, reason := unusedConfidence(&node)
		if confidence < minConfidence {
			continue
		}
		report.Symbols = append(report.Symbols, UnusedSymbol{
			Node:       node,
			Confidence: confidence,
			Reason:     reason,
		})
	}

	sort.Slice(report.Symbols, func(i, j int) bool {
		if report.Symbols[i].Confidence != report.Symbols[j].Confidence {
			return report.Symbols[i].Confidence > report.Symbols[j].Confidence
		}
		return report.Symbols[i].Node.QualifiedName < report.Symbols[j].Node.QualifiedName
	})
	report.Total = len(report.Symbols)
	return report
}

// unusedConfidence scores how likely an unreferenced definition is truly
// dead. Entry points, exported API, and framework callbacks score low.
func unusedConfidence(node *uast.Node) (float64, string) {
	name := node.Name

	switch name {
	case "main", "init", "__init__", "__main__", "constructor":
		return 0.1, "entry point or constructor"
	}
	if strings.HasPrefix(name, "Test") || strings.HasPrefix(name, "test_") ||
		strings.HasPrefix(name, "Benchmark") || strings.HasPrefix(name, "Example") {
		return 0.1, "test entry point"
	}
	if strings.HasSuffix(node.File, "_test.go") || strings.Contains(node.File, "/tests/") {
		return 0.3, "test helper; may be called by the framework"
	}
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return 0.2, "dunder method; called implicitly"
	}

	exported := isExported(node)
	switch {
	case node.Kind == uast.KindMethod && exported:
		return 0.5, "exported method; may satisfy an interface or be public API"
	case exported:
		return 0.6, "exported; may be public API"
	case node.Kind == uast.KindMethod:
		return 0.85, "unexported method with no callers"
	default:
		return 0.95, "unexported and unreferenced"
	}
}

func isExported(node *uast.Node) bool {
	if node.Name == "" {
		return false
	}
	switch node.Language {
	case "go":
		return unicode.IsUpper(rune(node.Name[0]))
	case "python":
		return !strings.HasPrefix(node.Name, "_")
	default:
		// JS/TS visibility is module-level; treat conventionally
		// private names as unexported.
		return !strings.HasPrefix(node.Name, "_") && !strings.HasPrefix(node.Name, "#")
	}
}
