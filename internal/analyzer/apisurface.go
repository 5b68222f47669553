package analyzer

import (
	"sort"

	"github.com/codeprism/codeprism/internal/graph"
	"github.com/codeprism/codeprism/pkg/uast"
)

// APISymbol is one public definition with its usage count.
type APISymbol struct {
	Node     uast.Node `json:"node" toon:"node"`
	RefCount int       `json:"ref_count" toon:"ref_count"`
}

// APIModule groups a file's public surface.
type APIModule struct {
	File    string      `json:"file" toon:"file"`
	Symbols []APISymbol `json:"symbols" toon:"symbols"`
}

// APISurfaceReport describes everything a project exposes.
type APISurfaceReport struct {
	Modules      []APIModule `json:"modules" toon:"modules"`
	PublicCount  int         `json:"public_count" toon:"public_count"`
	PrivateCount int         `json:"private_count" toon:"private_count"`
	UnusedPublic int         `json:"unused_public" toon:"unused_public"`
	PublicRatio  float64     `json:"public_ratio" toon:"public_ratio"`
}

// AnalyzeAPISurface inventories exported definitions per file, with
// reference counts so callers can spot over-exposed or never-used API.
func AnalyzeAPISurface(store *graph.Store) *APISurfaceReport {
	report := &APISurfaceReport{}
	byFile := make(map[string][]APISymbol)

	defs := store.NodesByKind(uast.KindClass, uast.KindFunction, uast.KindMethod, uast.KindVariable)
	for _, node := range defs {
		if !isExported(&node) {
			report.PrivateCount++
			continue
		}
		report.PublicCount++
		refs := len(store.References(node.ID))
		if refs == 0 {
			report.UnusedPublic++
		}
		byFile[node.File] = append(byFile[node.File], APISymbol{Node: node, RefCount: refs})
	}

	for file, symbols := range byFile {
		sort.Slice(symbols, func(i, j int) bool {
			return symbols[i].Node.Span.StartByte < symbols[j].Node.Span.StartByte
		})
		report.Modules = append(report.Modules, APIModule{File: file, Symbols: symbols})
	}
	sort.Slice(report.Modules, func(i, j int) bool {
		return report.Modules[i].File < report.Modules[j].File
	})

	if total := report.PublicCount + report.PrivateCount; total > 0 {
		report.PublicRatio = float64(report.PublicCount) / float64(total)
	}
	return report
}
