// Package graph holds the in-memory code graph: every extracted node, the
// typed edges between them, and the indexes the analysis tools query. The
// store is safe for concurrent readers; writes take an exclusive lock.
package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/codeprism/codeprism/pkg/uast"
)

// edgeRecord tracks one installed edge together with enough provenance to
// demote it back to pending when its target's file is removed.
type edgeRecord struct {
	source uast.NodeID
	target uast.NodeID
	kind   uast.EdgeKind
	// targetName is set for edges that were resolved from a pending edge.
	targetName string
	// file owns the edge (the source node's file).
	file string
}

// pendingRecord is an unresolved name reference awaiting a definition.
type pendingRecord struct {
	source     uast.NodeID
	targetName string
	kind       uast.EdgeKind
	file       string
}

type fileEntry struct {
	hash     string
	language string
	nodes    []uast.NodeID
	errors   []uast.ParseError
}

// Store is the code graph.
type Store struct {
	mu sync.RWMutex

	nodes map[uast.NodeID]*uast.Node
	files map[string]*fileEntry

	// Ordinals map node IDs onto the dense uint32 space the bitmap
	// indexes operate on. Ordinals are never reused.
	nextOrd uint32
	ordOf   map[uast.NodeID]uint32
	idOf    map[uint32]uast.NodeID

	nameIndex map[string]*roaring.Bitmap // lowercased simple name
	kindIndex map[uast.NodeKind]*roaring.Bitmap
	fileIndex map[string]*roaring.Bitmap

	// defsByName resolves pending edges: lowercased name of definition
	// kinds only.
	defsByName map[string][]uast.NodeID

	out map[uast.EdgeKind]map[uast.NodeID][]*edgeRecord
	in  map[uast.EdgeKind]map[uast.NodeID][]*edgeRecord

	pending []*pendingRecord
}

// NewStore returns an empty graph.
func NewStore() *Store {
	s := &Store{
		nodes:      make(map[uast.NodeID]*uast.Node),
		files:      make(map[string]*fileEntry),
		ordOf:      make(map[uast.NodeID]uint32),
		idOf:       make(map[uint32]uast.NodeID),
		nameIndex:  make(map[string]*roaring.Bitmap),
		kindIndex:  make(map[uast.NodeKind]*roaring.Bitmap),
		fileIndex:  make(map[string]*roaring.Bitmap),
		defsByName: make(map[string][]uast.NodeID),
		out:        make(map[uast.EdgeKind]map[uast.NodeID][]*edgeRecord),
		in:         make(map[uast.EdgeKind]map[uast.NodeID][]*edgeRecord),
	}
	for _, k := range uast.AllEdgeKinds() {
		s.out[k] = make(map[uast.NodeID][]*edgeRecord)
		s.in[k] = make(map[uast.NodeID][]*edgeRecord)
	}
	return s
}

// PatchStats summarizes one ApplyFile call.
type PatchStats struct {
	File            string `json:"file" toon:"file"`
	NoOp            bool   `json:"no_op" toon:"no_op"`
	NodesRemoved    int    `json:"nodes_removed" toon:"nodes_removed"`
	NodesAdded      int    `json:"nodes_added" toon:"nodes_added"`
	EdgesAdded      int    `json:"edges_added" toon:"edges_added"`
	PendingResolved int    `json:"pending_resolved" toon:"pending_resolved"`
}

// ApplyFile installs one file's extraction result, replacing whatever the
// file previously contributed. A file whose content hash is unchanged is a
// no-op: node IDs are content-derived, so nothing can differ.
func (s *Store) ApplyFile(res *uast.FileResult) PatchStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := PatchStats{File: res.Path}

	if prev, ok := s.files[res.Path]; ok {
		if prev.hash == res.ContentHash {
			stats.NoOp = true
			return stats
		}
		stats.NodesRemoved = s.removeFileLocked(res.Path)
	}

	entry := &fileEntry{
		hash:     res.ContentHash,
		language: res.Language,
		errors:   res.Errors,
	}
	s.files[res.Path] = entry

	for i := range res.Nodes {
		node := res.Nodes[i]
		s.addNodeLocked(&node)
		entry.nodes = append(entry.nodes, node.ID)
	}
	stats.NodesAdded = len(res.Nodes)

	for _, e := range res.Edges {
		if s.addEdgeLocked(&edgeRecord{
			source: e.Source, target: e.Target, kind: e.Kind, file: res.Path,
		}) {
			stats.EdgesAdded++
		}
	}

	for _, p := range res.Pending {
		s.pending = append(s.pending, &pendingRecord{
			source: p.Source, targetName: p.TargetName, kind: p.Kind, file: res.Path,
		})
	}

	stats.PendingResolved = s.resolvePendingLocked()
	stats.EdgesAdded += stats.PendingResolved
	return stats
}

// RemoveFile drops a file and everything it contributed. Edges from other
// files into the removed definitions return to the pending set.
func (s *Store) RemoveFile(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.removeFileLocked(path)
	delete(s.files, path)
	return n
}

func (s *Store) addNodeLocked(node *uast.Node) {
	s.nodes[node.ID] = node

	ord := s.nextOrd
	s.nextOrd++
	s.ordOf[node.ID] = ord
	s.idOf[ord] = node.ID

	name := strings.ToLower(node.Name)
	bm := s.nameIndex[name]
	if bm == nil {
		bm = roaring.New()
		s.nameIndex[name] = bm
	}
	bm.Add(ord)

	bm = s.kindIndex[node.Kind]
	if bm == nil {
		bm = roaring.New()
		s.kindIndex[node.Kind] = bm
	}
	bm.Add(ord)

	bm = s.fileIndex[node.File]
	if bm == nil {
		bm = roaring.New()
		s.fileIndex[node.File] = bm
	}
	bm.Add(ord)

	if node.Kind.IsDefinition() {
		s.defsByName[name] = append(s.defsByName[name], node.ID)
	}
}

// addEdgeLocked installs an edge. Both endpoints must exist; dangling edges
// never enter the graph.
func (s *Store) addEdgeLocked(rec *edgeRecord) bool {
	if _, ok := s.nodes[rec.source]; !ok {
		return false
	}
	if _, ok := s.nodes[rec.target]; !ok {
		return false
	}
	s.out[rec.kind][rec.source] = append(s.out[rec.kind][rec.source], rec)
	s.in[rec.kind][rec.target] = append(s.in[rec.kind][rec.target], rec)
	return true
}

// resolvePendingLocked tries every unresolved reference against the current
// definitions. Same-file definitions win; ties across files break by path
// for determinism.
func (s *Store) resolvePendingLocked() int {
	resolved := 0
	remaining := s.pending[:0]
	for _, p := range s.pending {
		target := s.resolveNameLocked(p.targetName, p.file)
		if target == "" || target == p.source {
			remaining = append(remaining, p)
			continue
		}
		if s.addEdgeLocked(&edgeRecord{
			source: p.source, target: target, kind: p.kind,
			targetName: p.targetName, file: p.file,
		}) {
			resolved++
		} else {
			remaining = append(remaining, p)
		}
	}
	s.pending = remaining
	return resolved
}

func (s *Store) resolveNameLocked(name, fromFile string) uast.NodeID {
	// Imports may reference dotted module paths; match the last segment.
	key := strings.ToLower(name)
	if i := strings.LastIndexAny(key, "./"); i >= 0 && i < len(key)-1 {
		if _, ok := s.defsByName[key]; !ok {
			key = key[i+1:]
		}
	}
	defs := s.defsByName[key]
	if len(defs) == 0 {
		return ""
	}
	var best uast.NodeID
	for _, id := range defs {
		node := s.nodes[id]
		if node == nil {
			continue
		}
		if node.File == fromFile {
			return id
		}
		if best == "" || node.File < s.nodes[best].File {
			best = id
		}
	}
	return best
}

func (s *Store) removeFileLocked(path string) int {
	entry := s.files[path]
	if entry == nil {
		return 0
	}

	removed := make(map[uast.NodeID]bool, len(entry.nodes))
	for _, id := range entry.nodes {
		removed[id] = true
	}

	// Drop edges touching removed nodes. Resolved references from other
	// files go back to pending.
	for kind := range s.out {
		for src, recs := range s.out[kind] {
			if !removed[src] && !anyTargetRemoved(recs, removed) {
				continue
			}
			kept := recs[:0]
			for _, rec := range recs {
				if !removed[rec.source] && !removed[rec.target] {
					kept = append(kept, rec)
					continue
				}
				if !removed[rec.source] && rec.targetName != "" {
					s.pending = append(s.pending, &pendingRecord{
						source: rec.source, targetName: rec.targetName,
						kind: rec.kind, file: rec.file,
					})
				}
			}
			if len(kept) == 0 {
				delete(s.out[kind], src)
			} else {
				s.out[kind][src] = kept
			}
		}
		for tgt, recs := range s.in[kind] {
			if !removed[tgt] && !anySourceRemoved(recs, removed) {
				continue
			}
			kept := recs[:0]
			for _, rec := range recs {
				if !removed[rec.source] && !removed[rec.target] {
					kept = append(kept, rec)
				}
			}
			if len(kept) == 0 {
				delete(s.in[kind], tgt)
			} else {
				s.in[kind][tgt] = kept
			}
		}
	}

	// Unresolved pending owned by the file goes away with it.
	remaining := s.pending[:0]
	for _, p := range s.pending {
		if p.file != path {
			remaining = append(remaining, p)
		}
	}
	s.pending = remaining

	for _, id := range entry.nodes {
		node := s.nodes[id]
		if node == nil {
			continue
		}
		ord := s.ordOf[id]
		name := strings.ToLower(node.Name)
		if bm := s.nameIndex[name]; bm != nil {
			bm.Remove(ord)
			if bm.IsEmpty() {
				delete(s.nameIndex, name)
			}
		}
		if bm := s.kindIndex[node.Kind]; bm != nil {
			bm.Remove(ord)
		}
		if bm := s.fileIndex[path]; bm != nil {
			bm.Remove(ord)
		}
		if node.Kind.IsDefinition() {
			defs := s.defsByName[name]
			for i, d := range defs {
				if d == id {
					s.defsByName[name] = append(defs[:i], defs[i+1:]...)
					break
				}
			}
			if len(s.defsByName[name]) == 0 {
				delete(s.defsByName, name)
			}
		}
		delete(s.nodes, id)
		delete(s.ordOf, id)
		delete(s.idOf, ord)
	}
	delete(s.fileIndex, path)

	count := len(entry.nodes)
	entry.nodes = nil
	return count
}

func anyTargetRemoved(recs []*edgeRecord, removed map[uast.NodeID]bool) bool {
	for _, r := range recs {
		if removed[r.target] {
			return true
		}
	}
	return false
}

func anySourceRemoved(recs []*edgeRecord, removed map[uast.NodeID]bool) bool {
	for _, r := range recs {
		if removed[r.source] {
			return true
		}
	}
	return false
}

// Node returns a node by ID.
func (s *Store) Node(id uast.NodeID) (*uast.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	c := *n
	return &c, true
}

// SearchMode selects how a symbol query matches names.
type SearchMode string

const (
	MatchExact    SearchMode = "exact"
	MatchContains SearchMode = "contains"
	MatchRegex    SearchMode = "regex"
)

// SearchSymbols finds nodes whose simple name matches the query. An empty
// kinds slice matches every kind; limit <= 0 means unlimited.
func (s *Store) SearchSymbols(query string, mode SearchMode, kinds []uast.NodeKind, limit int) ([]uast.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates *roaring.Bitmap
	switch mode {
	case MatchExact, "":
		bm := s.nameIndex[strings.ToLower(query)]
		if bm == nil {
			return nil, nil
		}
		candidates = bm.Clone()
	case MatchContains:
		q := strings.ToLower(query)
		candidates = roaring.New()
		for name, bm := range s.nameIndex {
			if strings.Contains(name, q) {
				candidates.Or(bm)
			}
		}
	case MatchRegex:
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			return nil, fmt.Errorf("invalid symbol pattern: %w", err)
		}
		candidates = roaring.New()
		for name, bm := range s.nameIndex {
			if re.MatchString(name) {
				candidates.Or(bm)
			}
		}
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}

	if len(kinds) > 0 {
		mask := roaring.New()
		for _, k := range kinds {
			if bm := s.kindIndex[k]; bm != nil {
				mask.Or(bm)
			}
		}
		candidates.And(mask)
	}

	out := s.materializeLocked(candidates, limit)
	return out, nil
}

// NodesInFile returns every node a file contributed.
func (s *Store) NodesInFile(path string) []uast.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bm := s.fileIndex[path]
	if bm == nil {
		return nil
	}
	return s.materializeLocked(bm, 0)
}

// NodesByKind returns all nodes of the given kinds.
func (s *Store) NodesByKind(kinds ...uast.NodeKind) []uast.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bm := roaring.New()
	for _, k := range kinds {
		if kb := s.kindIndex[k]; kb != nil {
			bm.Or(kb)
		}
	}
	return s.materializeLocked(bm, 0)
}

// materializeLocked converts a bitmap of ordinals into sorted node copies.
func (s *Store) materializeLocked(bm *roaring.Bitmap, limit int) []uast.Node {
	if bm == nil || bm.IsEmpty() {
		return nil
	}
	out := make([]uast.Node, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		id := s.idOf[it.Next()]
		if node, ok := s.nodes[id]; ok {
			out = append(out, *node)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Span.StartByte < out[j].Span.StartByte
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Reference is one incoming edge to a node.
type Reference struct {
	Node uast.Node     `json:"node" toon:"node"`
	Kind uast.EdgeKind `json:"kind" toon:"kind"`
}

// References returns edges pointing at the node, optionally filtered by
// edge kind.
func (s *Store) References(id uast.NodeID, kinds ...uast.EdgeKind) []Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(kinds) == 0 {
		kinds = uast.AllEdgeKinds()
	}
	var out []Reference
	for _, k := range kinds {
		for _, rec := range s.in[k][id] {
			if node, ok := s.nodes[rec.source]; ok {
				out = append(out, Reference{Node: *node, Kind: k})
			}
		}
	}
	sortRefs(out)
	return out
}

// Dependencies returns nodes the given node has outgoing edges to,
// optionally filtered by edge kind.
func (s *Store) Dependencies(id uast.NodeID, kinds ...uast.EdgeKind) []Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(kinds) == 0 {
		kinds = uast.AllEdgeKinds()
	}
	var out []Reference
	for _, k := range kinds {
		for _, rec := range s.out[k][id] {
			if node, ok := s.nodes[rec.target]; ok {
				out = append(out, Reference{Node: *node, Kind: k})
			}
		}
	}
	sortRefs(out)
	return out
}

func sortRefs(refs []Reference) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Node.File != refs[j].Node.File {
			return refs[i].Node.File < refs[j].Node.File
		}
		return refs[i].Node.Span.StartByte < refs[j].Node.Span.StartByte
	})
}

// TransitiveNode is one node reached during transitive traversal.
type TransitiveNode struct {
	Node  uast.Node `json:"node" toon:"node"`
	Depth int       `json:"depth" toon:"depth"`
}

// TransitiveDependencies walks outgoing edges breadth-first up to maxDepth.
// Cycles are detected and reported via the second return value.
func (s *Store) TransitiveDependencies(id uast.NodeID, kinds []uast.EdgeKind, maxDepth int) ([]TransitiveNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(kinds) == 0 {
		kinds = uast.AllEdgeKinds()
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}

	type qitem struct {
		id    uast.NodeID
		depth int
	}
	visited := map[uast.NodeID]bool{id: true}
	queue := []qitem{{id, 0}}
	var out []TransitiveNode
	cycle := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, k := range kinds {
			for _, rec := range s.out[k][cur.id] {
				if visited[rec.target] {
					cycle = cycle || rec.target == id
					continue
				}
				visited[rec.target] = true
				if node, ok := s.nodes[rec.target]; ok {
					out = append(out, TransitiveNode{Node: *node, Depth: cur.depth + 1})
				}
				queue = append(queue, qitem{rec.target, cur.depth + 1})
			}
		}
	}
	return out, cycle
}

// TracePath finds the shortest path between two nodes over the given edge
// kinds. Returns nil when no path exists within maxDepth.
func (s *Store) TracePath(from, to uast.NodeID, kinds []uast.EdgeKind, maxDepth int) []uast.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(kinds) == 0 {
		kinds = uast.AllEdgeKinds()
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if from == to {
		if n, ok := s.nodes[from]; ok {
			return []uast.Node{*n}
		}
		return nil
	}

	prev := map[uast.NodeID]uast.NodeID{from: from}
	queue := []uast.NodeID{from}
	depth := map[uast.NodeID]int{from: 0}
	found := false

	for len(queue) > 0 && !found {
		cur := queue[0]
		queue = queue[1:]
		if depth[cur] >= maxDepth {
			continue
		}
		for _, k := range kinds {
			for _, rec := range s.out[k][cur] {
				if _, seen := prev[rec.target]; seen {
					continue
				}
				prev[rec.target] = cur
				depth[rec.target] = depth[cur] + 1
				if rec.target == to {
					found = true
					break
				}
				queue = append(queue, rec.target)
			}
			if found {
				break
			}
		}
	}
	if !found {
		return nil
	}

	var ids []uast.NodeID
	for cur := to; cur != from; cur = prev[cur] {
		ids = append(ids, cur)
	}
	ids = append(ids, from)
	out := make([]uast.Node, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if n, ok := s.nodes[ids[i]]; ok {
			out = append(out, *n)
		}
	}
	return out
}

// InheritanceInfo describes a type's position in the inheritance graph.
type InheritanceInfo struct {
	Node       uast.Node   `json:"node" toon:"node"`
	Supertypes []uast.Node `json:"supertypes,omitempty" toon:"supertypes,omitempty"`
	Subtypes   []uast.Node `json:"subtypes,omitempty" toon:"subtypes,omitempty"`
	Implements []uast.Node `json:"implements,omitempty" toon:"implements,omitempty"`
}

// Inheritance returns supertypes (transitive), direct subtypes, and
// implemented interfaces for a class node.
func (s *Store) Inheritance(id uast.NodeID) (*InheritanceInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	info := &InheritanceInfo{Node: *node}

	// Supertypes: transitive closure over extends.
	visited := map[uast.NodeID]bool{id: true}
	queue := []uast.NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, rec := range s.out[uast.EdgeExtends][cur] {
			if visited[rec.target] {
				continue
			}
			visited[rec.target] = true
			if super, ok := s.nodes[rec.target]; ok {
				info.Supertypes = append(info.Supertypes, *super)
			}
			queue = append(queue, rec.target)
		}
	}

	for _, rec := range s.in[uast.EdgeExtends][id] {
		if sub, ok := s.nodes[rec.source]; ok {
			info.Subtypes = append(info.Subtypes, *sub)
		}
	}
	for _, rec := range s.out[uast.EdgeImplements][id] {
		if iface, ok := s.nodes[rec.target]; ok {
			info.Implements = append(info.Implements, *iface)
		}
	}
	for _, rec := range s.in[uast.EdgeImplements][id] {
		if impl, ok := s.nodes[rec.source]; ok {
			info.Subtypes = append(info.Subtypes, *impl)
		}
	}
	return info, true
}

// FlowDirection selects data-flow traversal direction.
type FlowDirection string

const (
	FlowForward  FlowDirection = "forward"
	FlowBackward FlowDirection = "backward"
)

// DataFlow slices the graph along reads/writes/calls edges from a starting
// node. Forward follows what the node's value reaches; backward follows
// where its value came from.
func (s *Store) DataFlow(id uast.NodeID, dir FlowDirection, maxDepth int) []TransitiveNode {
	kinds := []uast.EdgeKind{uast.EdgeReads, uast.EdgeWrites, uast.EdgeCalls}
	if dir == FlowBackward {
		return s.traverseIn(id, kinds, maxDepth)
	}
	out, _ := s.TransitiveDependencies(id, kinds, maxDepth)
	return out
}

func (s *Store) traverseIn(id uast.NodeID, kinds []uast.EdgeKind, maxDepth int) []TransitiveNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if maxDepth <= 0 {
		maxDepth = 10
	}
	type qitem struct {
		id    uast.NodeID
		depth int
	}
	visited := map[uast.NodeID]bool{id: true}
	queue := []qitem{{id, 0}}
	var out []TransitiveNode
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, k := range kinds {
			for _, rec := range s.in[k][cur.id] {
				if visited[rec.source] {
					continue
				}
				visited[rec.source] = true
				if node, ok := s.nodes[rec.source]; ok {
					out = append(out, TransitiveNode{Node: *node, Depth: cur.depth + 1})
				}
				queue = append(queue, qitem{rec.source, cur.depth + 1})
			}
		}
	}
	return out
}

// FileInfo reports what one file contributed.
type FileInfo struct {
	Path     string            `json:"path" toon:"path"`
	Language string            `json:"language" toon:"language"`
	Hash     string            `json:"hash" toon:"hash"`
	Nodes    int               `json:"nodes" toon:"nodes"`
	Errors   []uast.ParseError `json:"errors,omitempty" toon:"errors,omitempty"`
}

// Files lists every indexed file.
func (s *Store) Files() []FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FileInfo, 0, len(s.files))
	for path, entry := range s.files {
		out = append(out, FileInfo{
			Path:     path,
			Language: entry.language,
			Hash:     entry.hash,
			Nodes:    len(entry.nodes),
			Errors:   entry.errors,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FileHash returns the stored content hash for a path.
func (s *Store) FileHash(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.files[path]
	if !ok {
		return "", false
	}
	return entry.hash, true
}

// Stats summarizes the graph. ByLanguage counts indexed files per
// language, not nodes.
type Stats struct {
	Files       int                   `json:"files" toon:"files"`
	Nodes       int                   `json:"nodes" toon:"nodes"`
	Edges       int                   `json:"edges" toon:"edges"`
	Pending     int                   `json:"pending" toon:"pending"`
	ByKind      map[uast.NodeKind]int `json:"by_kind" toon:"by_kind"`
	ByEdgeKind  map[uast.EdgeKind]int `json:"by_edge_kind" toon:"by_edge_kind"`
	ByLanguage  map[string]int        `json:"by_language" toon:"by_language"`
	ParseErrors int                   `json:"parse_errors" toon:"parse_errors"`
}

// Summary computes graph-wide counts.
func (s *Store) Summary() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Files:      len(s.files),
		Nodes:      len(s.nodes),
		Pending:    len(s.pending),
		ByKind:     make(map[uast.NodeKind]int),
		ByEdgeKind: make(map[uast.EdgeKind]int),
		ByLanguage: make(map[string]int),
	}
	for kind, bm := range s.kindIndex {
		if c := int(bm.GetCardinality()); c > 0 {
			st.ByKind[kind] = c
		}
	}
	for kind, m := range s.out {
		for _, recs := range m {
			st.ByEdgeKind[kind] += len(recs)
			st.Edges += len(recs)
		}
	}
	for _, entry := range s.files {
		st.ByLanguage[entry.language]++
		st.ParseErrors += len(entry.errors)
	}
	return st
}
