package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/codeprism/codeprism/pkg/uast"
)

// Hotspot is a node ranked by structural importance in the call graph.
type Hotspot struct {
	Node   uast.Node `json:"node"`
	Score  float64   `json:"score"`
	FanIn  int       `json:"fan_in"`
	FanOut int       `json:"fan_out"`
}

// Hotspots ranks function and method nodes by PageRank over the call graph.
// Heavily-depended-on code floats to the top regardless of direct caller
// count.
func (s *Store) Hotspots(limit int) []Hotspot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	callable := map[uast.NodeID]bool{}
	for _, kind := range []uast.NodeKind{uast.KindFunction, uast.KindMethod} {
		if bm := s.kindIndex[kind]; bm != nil {
			it := bm.Iterator()
			for it.HasNext() {
				callable[s.idOf[it.Next()]] = true
			}
		}
	}
	if len(callable) == 0 {
		return nil
	}

	g := simple.NewDirectedGraph()
	for id := range callable {
		g.AddNode(simple.Node(s.ordOf[id]))
	}
	for src, recs := range s.out[uast.EdgeCalls] {
		if !callable[src] {
			continue
		}
		for _, rec := range recs {
			if !callable[rec.target] || rec.source == rec.target {
				continue
			}
			g.SetEdge(simple.Edge{
				F: simple.Node(s.ordOf[rec.source]),
				T: simple.Node(s.ordOf[rec.target]),
			})
		}
	}

	ranks := network.PageRank(g, 0.85, 1e-6)

	out := make([]Hotspot, 0, len(callable))
	for id := range callable {
		node := s.nodes[id]
		if node == nil {
			continue
		}
		out = append(out, Hotspot{
			Node:   *node,
			Score:  ranks[int64(s.ordOf[id])],
			FanIn:  len(s.in[uast.EdgeCalls][id]),
			FanOut: len(s.out[uast.EdgeCalls][id]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Node.QualifiedName < out[j].Node.QualifiedName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Degrees returns fan-in and fan-out over the given edge kinds for one node.
func (s *Store) Degrees(id uast.NodeID, kinds ...uast.EdgeKind) (fanIn, fanOut int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(kinds) == 0 {
		kinds = uast.AllEdgeKinds()
	}
	for _, k := range kinds {
		fanIn += len(s.in[k][id])
		fanOut += len(s.out[k][id])
	}
	return fanIn, fanOut
}
