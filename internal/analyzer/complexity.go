// Package analyzer implements the code quality analyses exposed by the
// analysis tools: complexity, duplication, security and performance scans,
// unused code, and structural pattern detection.
package analyzer

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeprism/codeprism/internal/fileproc"
	"github.com/codeprism/codeprism/pkg/parser"
)

// FunctionComplexity holds metrics for one function or method.
type FunctionComplexity struct {
	Name       string `json:"name" toon:"name"`
	File       string `json:"file" toon:"file"`
	StartLine  uint32 `json:"start_line" toon:"start_line"`
	Cyclomatic uint32 `json:"cyclomatic" toon:"cyclomatic"`
	Cognitive  uint32 `json:"cognitive" toon:"cognitive"`
	MaxNesting int    `json:"max_nesting" toon:"max_nesting"`
	Lines      uint32 `json:"lines" toon:"lines"`
}

// FileComplexity aggregates one file's functions.
type FileComplexity struct {
	Path          string               `json:"path" toon:"path"`
	Functions     []FunctionComplexity `json:"functions" toon:"functions"`
	TotalLines    uint32               `json:"total_lines" toon:"total_lines"`
	AvgCyclomatic float64              `json:"avg_cyclomatic" toon:"avg_cyclomatic"`
	MaxCyclomatic uint32               `json:"max_cyclomatic" toon:"max_cyclomatic"`
}

// ComplexityReport is the project-wide result.
type ComplexityReport struct {
	Files         []FileComplexity     `json:"files" toon:"files"`
	Hotspots      []FunctionComplexity `json:"hotspots" toon:"hotspots"`
	AvgCyclomatic float64              `json:"avg_cyclomatic" toon:"avg_cyclomatic"`
	AvgCognitive  float64              `json:"avg_cognitive" toon:"avg_cognitive"`
	FunctionCount int                  `json:"function_count" toon:"function_count"`
}

// ComplexityAnalyzer computes cyclomatic and cognitive complexity.
type ComplexityAnalyzer struct {
	// Threshold marks functions as hotspots when cyclomatic complexity
	// meets or exceeds it.
	Threshold uint32
	Workers   int
}

// NewComplexityAnalyzer creates an analyzer with the given hotspot
// threshold.
func NewComplexityAnalyzer(threshold int) *ComplexityAnalyzer {
	if threshold <= 0 {
		threshold = 10
	}
	return &ComplexityAnalyzer{Threshold: uint32(threshold)}
}

// AnalyzeFiles measures every function in the given files.
func (a *ComplexityAnalyzer) AnalyzeFiles(ctx context.Context, files []string, onProgress fileproc.ProgressFunc) (*ComplexityReport, error) {
	results, errs := fileproc.MapFiles(ctx, files, a.Workers, func(psr *parser.Parser, path string) (FileComplexity, error) {
		return analyzeFileComplexity(psr, path)
	}, onProgress)
	if errs != nil && len(results) == 0 {
		return nil, errs
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	report := &ComplexityReport{Files: results}
	var cycSum, cogSum uint64
	for _, fc := range results {
		for _, fn := range fc.Functions {
			report.FunctionCount++
			cycSum += uint64(fn.Cyclomatic)
			cogSum += uint64(fn.Cognitive)
			if fn.Cyclomatic >= a.Threshold {
				report.Hotspots = append(report.Hotspots, fn)
			}
		}
	}
	if report.FunctionCount > 0 {
		report.AvgCyclomatic = float64(cycSum) / float64(report.FunctionCount)
		report.AvgCognitive = float64(cogSum) / float64(report.FunctionCount)
	}
	sort.Slice(report.Hotspots, func(i, j int) bool {
		return report.Hotspots[i].Cyclomatic > report.Hotspots[j].Cyclomatic
	})
	return report, nil
}

// AnalyzeFile measures one file with the caller's parser.
func AnalyzeFile(psr *parser.Parser, path string) (FileComplexity, error) {
	return analyzeFileComplexity(psr, path)
}

func analyzeFileComplexity(psr *parser.Parser, path string) (FileComplexity, error) {
	res, err := psr.ParseFile(path)
	if err != nil {
		return FileComplexity{}, err
	}
	defer res.Tree.Close()

	root := res.Tree.RootNode()
	fc := FileComplexity{
		Path:       path,
		TotalLines: root.EndPoint().Row + 1,
	}

	for _, fnType := range functionNodeTypes(res.Language) {
		for _, fn := range parser.FindNodesByType(root, res.Source, fnType) {
			name := functionName(fn, res.Source)
			if name == "" {
				continue
			}
			metrics := FunctionComplexity{
				Name:      name,
				File:      path,
				StartLine: fn.StartPoint().Row + 1,
				// Base complexity of 1 for the single entry path.
				Cyclomatic: 1 + countDecisionPoints(fn, res.Source, res.Language),
				Cognitive:  calculateCognitive(fn, res.Source, res.Language, 0),
				MaxNesting: calculateMaxNesting(fn, 0),
				Lines:      fn.EndPoint().Row - fn.StartPoint().Row + 1,
			}
			fc.Functions = append(fc.Functions, metrics)
			if metrics.Cyclomatic > fc.MaxCyclomatic {
				fc.MaxCyclomatic = metrics.Cyclomatic
			}
		}
	}

	if len(fc.Functions) > 0 {
		var sum uint64
		for _, fn := range fc.Functions {
			sum += uint64(fn.Cyclomatic)
		}
		fc.AvgCyclomatic = float64(sum) / float64(len(fc.Functions))
	}
	sort.Slice(fc.Functions, func(i, j int) bool {
		return fc.Functions[i].StartLine < fc.Functions[j].StartLine
	})
	return fc, nil
}

func functionNodeTypes(lang parser.Language) []string {
	switch lang {
	case parser.LangGo:
		return []string{"function_declaration", "method_declaration"}
	case parser.LangPython:
		return []string{"function_definition"}
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return []string{"function_declaration", "method_definition", "generator_function_declaration"}
	default:
		return []string{"function_declaration", "function_definition", "method_definition"}
	}
}

func functionName(fn *sitter.Node, source []byte) string {
	if name := fn.ChildByFieldName("name"); name != nil {
		return parser.NodeText(name, source)
	}
	return ""
}

func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// decisionNodeTypes returns AST node types counted as branch points.
func decisionNodeTypes(lang parser.Language) []string {
	common := []string{
		"if_statement",
		"while_statement",
		"for_statement",
		"catch_clause",
		"ternary_expression",
		"conditional_expression",
	}
	switch lang {
	case parser.LangGo:
		return append(common, "select_statement", "expression_case", "type_case")
	case parser.LangPython:
		return append(common, "elif_clause", "except_clause", "list_comprehension", "case_clause")
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		return append(common, "switch_case", "do_statement", "for_in_statement")
	default:
		return common
	}
}

func countDecisionPoints(node *sitter.Node, source []byte, lang parser.Language) uint32 {
	var count uint32
	decisionTypes := makeSet(decisionNodeTypes(lang))

	parser.WalkTyped(node, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if decisionTypes[nodeType] {
			count++
		}
		if nodeType == "binary_expression" || nodeType == "boolean_operator" {
			if isLogicalOperator(operatorText(n, src)) {
				count++
			}
		}
		return true
	})
	return count
}

func isLogicalOperator(op string) bool {
	return op == "&&" || op == "||" || op == "and" || op == "or"
}

func operatorText(node *sitter.Node, source []byte) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return parser.NodeText(op, source)
	}
	for i := range int(node.ChildCount()) {
		t := node.Child(i).Type()
		if isLogicalOperator(t) {
			return t
		}
	}
	return ""
}

// cognitiveNodeTypes splits control flow into constructs that deepen
// nesting and ones that add complexity at the current depth.
func cognitiveNodeTypes(lang parser.Language) (nesting, flat map[string]bool) {
	switch lang {
	case parser.LangGo:
		nesting = makeSet([]string{
			"if_statement", "for_statement",
			"expression_switch_statement", "type_switch_statement",
			"select_statement",
		})
		flat = makeSet([]string{"break_statement", "continue_statement", "goto_statement"})
	case parser.LangPython:
		nesting = makeSet([]string{
			"if_statement", "while_statement", "for_statement",
			"try_statement", "match_statement",
		})
		flat = makeSet([]string{"elif_clause", "break_statement", "continue_statement"})
	default:
		nesting = makeSet([]string{
			"if_statement", "while_statement", "for_statement",
			"switch_statement", "try_statement", "do_statement",
		})
		flat = makeSet([]string{"break_statement", "continue_statement"})
	}
	return nesting, flat
}

// calculateCognitive implements the SonarSource-style metric: nested
// control flow costs more than flat control flow, and else-if chains do
// not deepen nesting.
func calculateCognitive(node *sitter.Node, source []byte, lang parser.Language, depth int) uint32 {
	nesting, flat := cognitiveNodeTypes(lang)
	return cognitiveWalk(node, source, nesting, flat, depth, false)
}

func cognitiveWalk(node *sitter.Node, source []byte, nesting, flat map[string]bool, depth int, afterElse bool) uint32 {
	var complexity uint32
	var sawElse bool

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		childType := child.Type()

		if childType == "else" {
			sawElse = true
			continue
		}

		switch {
		case nesting[childType]:
			if childType == "if_statement" && (sawElse || afterElse) {
				complexity++
				complexity += cognitiveWalk(child, source, nesting, flat, depth, false)
			} else {
				complexity += 1 + uint32(depth)
				complexity += cognitiveWalk(child, source, nesting, flat, depth+1, false)
			}
		case flat[childType]:
			complexity += 1 + uint32(depth)
			complexity += cognitiveWalk(child, source, nesting, flat, depth, false)
		case childType == "binary_expression" || childType == "boolean_operator":
			if isLogicalOperator(operatorText(child, source)) {
				complexity++
			}
			complexity += cognitiveWalk(child, source, nesting, flat, depth, false)
		default:
			complexity += cognitiveWalk(child, source, nesting, flat, depth, sawElse)
		}
		sawElse = false
	}
	return complexity
}

var nestingTypes = makeSet([]string{
	"if_statement", "while_statement", "for_statement",
	"switch_statement", "expression_switch_statement", "type_switch_statement",
	"try_statement", "match_statement", "do_statement", "select_statement",
})

func calculateMaxNesting(node *sitter.Node, depth int) int {
	maxDepth := depth
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		next := depth
		if nestingTypes[child.Type()] {
			next = depth + 1
		}
		if m := calculateMaxNesting(child, next); m > maxDepth {
			maxDepth = m
		}
	}
	return maxDepth
}
