package analyzer

import (
	"sort"
	"strings"

	"github.com/codeprism/codeprism/internal/graph"
	"github.com/codeprism/codeprism/pkg/uast"
)

// PatternInstance is one detected design pattern occurrence.
type PatternInstance struct {
	Pattern    string      `json:"pattern" toon:"pattern"`
	Node       uast.Node   `json:"node" toon:"node"`
	Related    []uast.Node `json:"related,omitempty" toon:"related,omitempty"`
	Confidence float64     `json:"confidence" toon:"confidence"`
	Evidence   string      `json:"evidence" toon:"evidence"`
}

// PatternReport lists detected patterns grouped by kind.
type PatternReport struct {
	Instances []PatternInstance `json:"instances" toon:"instances"`
	ByPattern map[string]int    `json:"by_pattern" toon:"by_pattern"`
}

// DetectPatterns looks for common design patterns using graph structure
// and naming. Heuristic by nature; every hit carries a confidence.
func DetectPatterns(store *graph.Store) *PatternReport {
	report := &PatternReport{ByPattern: make(map[string]int)}

	classes := store.NodesByKind(uast.KindClass)
	for _, class := range classes {
		if inst, ok := detectSingleton(store, class); ok {
			report.Instances = append(report.Instances, inst)
		}
		if inst, ok := detectFactory(store, class); ok {
			report.Instances = append(report.Instances, inst)
		}
		if inst, ok := detectObserver(store, class); ok {
			report.Instances = append(report.Instances, inst)
		}
	}
	for _, fn := range store.NodesByKind(uast.KindFunction) {
		if inst, ok := detectFactoryFunction(store, fn); ok {
			report.Instances = append(report.Instances, inst)
		}
	}

	sort.Slice(report.Instances, func(i, j int) bool {
		if report.Instances[i].Pattern != report.Instances[j].Pattern {
			return report.Instances[i].Pattern < report.Instances[j].Pattern
		}
		return report.Instances[i].Node.QualifiedName < report.Instances[j].Node.QualifiedName
	})
	for _, inst := range report.Instances {
		report.ByPattern[inst.Pattern]++
	}
	return report
}

// detectSingleton: a class with an accessor named like getInstance/instance
// alongside the class definition.
func detectSingleton(store *graph.Store, class uast.Node) (PatternInstance, bool) {
	members := membersOf(store, class)
	for _, m := range members {
		name := strings.ToLower(m.Name)
		if name == "getinstance" || name == "get_instance" || name == "instance" || name == "shared" {
			return PatternInstance{
				Pattern:    "singleton",
				Node:       class,
				Related:    []uast.Node{m},
				Confidence: 0.7,
				Evidence:   "instance accessor " + m.Name,
			}, true
		}
	}
	return PatternInstance{}, false
}

// detectFactory: a class whose name or creator methods advertise object
// construction.
func detectFactory(store *graph.Store, class uast.Node) (PatternInstance, bool) {
	if strings.HasSuffix(class.Name, "Factory") || strings.HasSuffix(class.Name, "Builder") {
		return PatternInstance{
			Pattern:    "factory",
			Node:       class,
			Confidence: 0.8,
			Evidence:   "class name " + class.Name,
		}, true
	}
	var creators []uast.Node
	for _, m := range membersOf(store, class) {
		lower := strings.ToLower(m.Name)
		if strings.HasPrefix(lower, "create") || strings.HasPrefix(lower, "build") || strings.HasPrefix(lower, "make") {
			creators = append(creators, m)
		}
	}
	if len(creators) >= 2 {
		return PatternInstance{
			Pattern:    "factory",
			Node:       class,
			Related:    creators,
			Confidence: 0.6,
			Evidence:   "multiple creator methods",
		}, true
	}
	return PatternInstance{}, false
}

// detectObserver: a class carrying subscribe/notify pairs, or one that
// emits events.
func detectObserver(store *graph.Store, class uast.Node) (PatternInstance, bool) {
	var hasSubscribe, hasNotify bool
	var related []uast.Node
	for _, m := range membersOf(store, class) {
		lower := strings.ToLower(m.Name)
		switch {
		case strings.HasPrefix(lower, "subscribe") || strings.HasPrefix(lower, "addlistener") ||
			strings.HasPrefix(lower, "add_listener") || lower == "on":
			hasSubscribe = true
			related = append(related, m)
		case strings.HasPrefix(lower, "notify") || strings.HasPrefix(lower, "emit") ||
			strings.HasPrefix(lower, "publish") || strings.HasPrefix(lower, "dispatch"):
			hasNotify = true
			related = append(related, m)
		}
	}
	if hasSubscribe && hasNotify {
		return PatternInstance{
			Pattern:    "observer",
			Node:       class,
			Related:    related,
			Confidence: 0.75,
			Evidence:   "subscribe and notify members",
		}, true
	}
	return PatternInstance{}, false
}

// detectFactoryFunction: a NewX/make_x free function that other code calls
// to obtain values.
func detectFactoryFunction(store *graph.Store, fn uast.Node) (PatternInstance, bool) {
	name := fn.Name
	isCtor := (strings.HasPrefix(name, "New") && len(name) > 3) ||
		strings.HasPrefix(strings.ToLower(name), "make_") ||
		strings.HasPrefix(strings.ToLower(name), "create_")
	if !isCtor {
		return PatternInstance{}, false
	}
	if len(store.References(fn.ID, uast.EdgeCalls)) == 0 {
		return PatternInstance{}, false
	}
	return PatternInstance{
		Pattern:    "constructor-function",
		Node:       fn,
		Confidence: 0.6,
		Evidence:   "constructor naming with call sites",
	}, true
}

// membersOf returns methods whose qualified name places them inside the
// class.
func membersOf(store *graph.Store, class uast.Node) []uast.Node {
	var out []uast.Node
	prefix := class.QualifiedName + "."
	for _, m := range store.NodesInFile(class.File) {
		if m.Kind != uast.KindMethod && m.Kind != uast.KindFunction {
			continue
		}
		if strings.HasPrefix(m.QualifiedName, prefix) || m.Attributes["receiver"] == class.Name {
			out = append(out, m)
		}
	}
	return out
}
