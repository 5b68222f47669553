// Package uast defines the Universal AST: the language-agnostic node and
// edge vocabulary that per-language extractors map tree-sitter parses into,
// and that the code graph is assembled from.
package uast

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// NodeKind classifies a Universal AST node.
type NodeKind string

const (
	KindModule    NodeKind = "module"
	KindClass     NodeKind = "class"
	KindFunction  NodeKind = "function"
	KindMethod    NodeKind = "method"
	KindParameter NodeKind = "parameter"
	KindVariable  NodeKind = "variable"
	KindCall      NodeKind = "call"
	KindImport    NodeKind = "import"
	KindLiteral   NodeKind = "literal"
	KindRoute     NodeKind = "route"
	KindSQLQuery  NodeKind = "sql_query"
	KindEvent     NodeKind = "event"
)

func (k NodeKind) String() string { return string(k) }

// EdgeKind classifies a relationship between two nodes.
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "calls"
	EdgeReads      EdgeKind = "reads"
	EdgeWrites     EdgeKind = "writes"
	EdgeImports    EdgeKind = "imports"
	EdgeEmits      EdgeKind = "emits"
	EdgeRoutesTo   EdgeKind = "routes_to"
	EdgeRaises     EdgeKind = "raises"
	EdgeExtends    EdgeKind = "extends"
	EdgeImplements EdgeKind = "implements"
)

func (k EdgeKind) String() string { return string(k) }

// AllEdgeKinds lists every edge kind, in a stable order.
func AllEdgeKinds() []EdgeKind {
	return []EdgeKind{
		EdgeCalls, EdgeReads, EdgeWrites, EdgeImports, EdgeEmits,
		EdgeRoutesTo, EdgeRaises, EdgeExtends, EdgeImplements,
	}
}

// Span locates a node in its source file. Lines and columns are 1-based;
// byte offsets are 0-based and half-open.
type Span struct {
	StartByte   uint32 `json:"start_byte" toon:"start_byte"`
	EndByte     uint32 `json:"end_byte" toon:"end_byte"`
	StartLine   uint32 `json:"start_line" toon:"start_line"`
	StartColumn uint32 `json:"start_column" toon:"start_column"`
	EndLine     uint32 `json:"end_line" toon:"end_line"`
	EndColumn   uint32 `json:"end_column" toon:"end_column"`
}

// NodeID uniquely identifies a node. It is derived from content, not
// assigned, so re-extracting an unchanged definition yields the same ID.
type NodeID string

func (id NodeID) String() string { return string(id) }

// NewNodeID derives a node ID from the file, kind, qualified name, and span
// start. Including the span start distinguishes same-named definitions
// (overloads, shadowed variables) within one file.
func NewNodeID(file string, kind NodeKind, qualifiedName string, startByte uint32) NodeID {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", file, kind, qualifiedName, startByte)
	sum := h.Sum(nil)
	return NodeID(hex.EncodeToString(sum[:16]))
}

// Node is a single Universal AST node.
type Node struct {
	ID            NodeID            `json:"id" toon:"id"`
	Kind          NodeKind          `json:"kind" toon:"kind"`
	Name          string            `json:"name" toon:"name"`
	QualifiedName string            `json:"qualified_name,omitempty" toon:"qualified_name,omitempty"`
	File          string            `json:"file" toon:"file"`
	Span          Span              `json:"span" toon:"span"`
	Language      string            `json:"language,omitempty" toon:"language,omitempty"`
	Signature     string            `json:"signature,omitempty" toon:"signature,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty" toon:"attributes,omitempty"`
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	Source NodeID   `json:"source" toon:"source"`
	Target NodeID   `json:"target" toon:"target"`
	Kind   EdgeKind `json:"kind" toon:"kind"`
}

// PendingEdge is an edge whose target is known only by name. The graph store
// resolves it once (if ever) a matching definition is indexed.
type PendingEdge struct {
	Source     NodeID   `json:"source"`
	TargetName string   `json:"target_name"`
	Kind       EdgeKind `json:"kind"`
}

// ParseError records a syntax error encountered during extraction. Files
// with errors still contribute whatever was extractable.
type ParseError struct {
	Line    uint32 `json:"line" toon:"line"`
	Column  uint32 `json:"column" toon:"column"`
	Message string `json:"message" toon:"message"`
}

// FileResult is the extraction output for a single source file.
type FileResult struct {
	Path        string        `json:"path"`
	Language    string        `json:"language"`
	ContentHash string        `json:"content_hash"`
	Nodes       []Node        `json:"nodes"`
	Edges       []Edge        `json:"edges"`
	Pending     []PendingEdge `json:"pending,omitempty"`
	Errors      []ParseError  `json:"errors,omitempty"`
}

// Patch is the incremental delta produced by re-indexing one file. Applying
// it removes every node previously owned by the file (and all edges touching
// them) and installs the new extraction result.
type Patch struct {
	File    string        `json:"file"`
	Removed []NodeID      `json:"removed,omitempty"`
	Added   []Node        `json:"added,omitempty"`
	Edges   []Edge        `json:"edges,omitempty"`
	Pending []PendingEdge `json:"pending,omitempty"`
	// NoOp is set when the file's content hash was unchanged.
	NoOp bool `json:"no_op,omitempty"`
}

// HashContent returns the hex blake3 digest of file contents, used for
// node IDs' stability checks and the parse cache.
func HashContent(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsDefinition reports whether the kind declares a named symbol that
// references can resolve to.
func (k NodeKind) IsDefinition() bool {
	switch k {
	case KindModule, KindClass, KindFunction, KindMethod, KindVariable:
		return true
	default:
		return false
	}
}
