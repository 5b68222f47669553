package analyzer

import (
	"context"
	"sort"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeprism/codeprism/internal/fileproc"
	"github.com/codeprism/codeprism/pkg/parser"
)

// PerformanceReport aggregates performance findings.
type PerformanceReport struct {
	Findings []Finding      `json:"findings" toon:"findings"`
	ByRule   map[string]int `json:"by_rule" toon:"by_rule"`
}

// PerformanceAnalyzer flags structurally expensive code: deeply nested
// loops, I/O or query calls inside loops, and string building by repeated
// concatenation.
type PerformanceAnalyzer struct {
	// NestedLoopDepth is the loop nesting level that triggers a finding.
	NestedLoopDepth int
	Workers         int
}

// NewPerformanceAnalyzer creates an analyzer with default thresholds.
func NewPerformanceAnalyzer() *PerformanceAnalyzer {
	return &PerformanceAnalyzer{NestedLoopDepth: 3}
}

var loopTypes = makeSet([]string{
	"for_statement", "while_statement", "for_in_statement", "do_statement",
	"range_clause",
})

// expensiveCallNames are callees that usually mean I/O or a round trip.
var expensiveCallNames = makeSet([]string{
	"query", "exec", "execute", "fetch", "fetchall", "fetchone", "find",
	"get", "post", "request", "readfile", "writefile", "open", "save",
	"commit", "insert", "update_one", "find_one",
})

// AnalyzeFiles scans each file's AST for performance smells.
func (a *PerformanceAnalyzer) AnalyzeFiles(ctx context.Context, files []string, onProgress fileproc.ProgressFunc) (*PerformanceReport, error) {
	results, errs := fileproc.MapFiles(ctx, files, a.Workers, func(psr *parser.Parser, path string) ([]Finding, error) {
		return a.scanFile(psr, path)
	}, onProgress)
	if errs != nil && len(results) == 0 {
		return nil, errs
	}

	report := &PerformanceReport{ByRule: make(map[string]int)}
	for _, findings := range results {
		report.Findings = append(report.Findings, findings...)
	}
	sort.Slice(report.Findings, func(i, j int) bool {
		if report.Findings[i].File != report.Findings[j].File {
			return report.Findings[i].File < report.Findings[j].File
		}
		return report.Findings[i].Line < report.Findings[j].Line
	})
	for _, f := range report.Findings {
		report.ByRule[f.Rule]++
	}
	return report, nil
}

func (a *PerformanceAnalyzer) scanFile(psr *parser.Parser, path string) ([]Finding, error) {
	res, err := psr.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer res.Tree.Close()

	var findings []Finding
	a.walkLoops(res.Tree.RootNode(), res.Source, path, 0, &findings)
	return findings, nil
}

// walkLoops tracks loop depth while descending the AST.
func (a *PerformanceAnalyzer) walkLoops(node *sitter.Node, src []byte, path string, loopDepth int, findings *[]Finding) {
	nodeType := node.Type()
	depth := loopDepth

	if loopTypes[nodeType] && nodeType != "range_clause" {
		depth++
		if depth == a.NestedLoopDepth {
			*findings = append(*findings, Finding{
				Rule:     "nested-loops",
				Severity: SeverityMedium,
				File:     path,
				Line:     int(node.StartPoint().Row) + 1,
				Snippet:  firstLineOf(parser.NodeText(node, src)),
				Message:  "loop nesting reaches depth " + strconv.Itoa(depth),
			})
		}
		a.scanLoopBody(node, src, path, findings)
	}

	for i := range int(node.ChildCount()) {
		a.walkLoops(node.Child(i), src, path, depth, findings)
	}
}

// scanLoopBody flags expensive calls and string concatenation directly
// inside one loop level.
func (a *PerformanceAnalyzer) scanLoopBody(loop *sitter.Node, src []byte, path string, findings *[]Finding) {
	parser.WalkTyped(loop, src, func(n *sitter.Node, nodeType string, source []byte) bool {
		// Stay within this loop; nested loops report their own bodies.
		if n != loop && loopTypes[nodeType] {
			return false
		}
		switch nodeType {
		case "call_expression", "call":
			if name := calleeName(n, source); expensiveCallNames[strings.ToLower(name)] {
				*findings = append(*findings, Finding{
					Rule:     "call-in-loop",
					Severity: SeverityMedium,
					File:     path,
					Line:     int(n.StartPoint().Row) + 1,
					Snippet:  firstLineOf(parser.NodeText(n, source)),
					Message:  "possible I/O or query call inside a loop",
				})
			}
		case "augmented_assignment", "assignment_expression":
			text := parser.NodeText(n, source)
			if strings.Contains(text, "+=") && containsStringOperand(n, source) {
				*findings = append(*findings, Finding{
					Rule:     "string-concat-in-loop",
					Severity: SeverityLow,
					File:     path,
					Line:     int(n.StartPoint().Row) + 1,
					Snippet:  firstLineOf(text),
					Message:  "string built by repeated concatenation inside a loop",
				})
			}
		}
		return true
	})
}

func calleeName(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return parser.NodeText(fn, src)
	case "selector_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return parser.NodeText(field, src)
		}
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return parser.NodeText(attr, src)
		}
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return parser.NodeText(prop, src)
		}
	}
	return ""
}

func containsStringOperand(node *sitter.Node, src []byte) bool {
	found := false
	parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, _ []byte) bool {
		switch nodeType {
		case "string", "interpreted_string_literal", "raw_string_literal", "template_string", "string_literal":
			found = true
			return false
		}
		return !found
	})
	return found
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return truncate(strings.TrimSpace(s), 120)
}
