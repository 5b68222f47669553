package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeprism/codeprism/internal/graph"
	"github.com/codeprism/codeprism/pkg/uast"
)

func symbol(file, lang string, kind uast.NodeKind, qualified string, start uint32) uast.Node {
	name := qualified
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		name = qualified[i+1:]
	}
	return uast.Node{
		ID:            uast.NewNodeID(file, kind, qualified, start),
		Kind:          kind,
		Name:          name,
		QualifiedName: qualified,
		File:          file,
		Language:      lang,
		Span:          uast.Span{StartByte: start, EndByte: start + 10},
	}
}

func applyNodes(t *testing.T, s *graph.Store, file, lang string, nodes []uast.Node, edges []uast.Edge) {
	t.Helper()
	s.ApplyFile(&uast.FileResult{
		Path:        file,
		Language:    lang,
		ContentHash: uast.HashContent([]byte(file)),
		Nodes:       nodes,
		Edges:       edges,
	})
}

func TestFindUnused(t *testing.T) {
	s := graph.NewStore()
	caller := symbol("svc.py", "python", uast.KindFunction, "svc.caller", 10)
	used := symbol("svc.py", "python", uast.KindFunction, "svc.helper_used", 30)
	deadFn := symbol("svc.py", "python", uast.KindFunction, "svc._private_dead", 50)
	deadMethod := symbol("svc.py", "python", uast.KindMethod, "svc.Worker._hidden", 70)
	public := symbol("svc.py", "python", uast.KindFunction, "svc.public_api", 90)
	entry := symbol("svc.py", "python", uast.KindFunction, "svc.main", 110)
	applyNodes(t, s, "svc.py", "python",
		[]uast.Node{caller, used, deadFn, deadMethod, public, entry},
		[]uast.Edge{{Source: caller.ID, Target: used.ID, Kind: uast.EdgeCalls}})

	report := FindUnused(s, 0.8)
	require.Len(t, report.Symbols, 2)
	// Sorted by confidence: plain private function above private method.
	assert.Equal(t, "_private_dead", report.Symbols[0].Node.Name)
	assert.InDelta(t, 0.95, report.Symbols[0].Confidence, 0.001)
	assert.Equal(t, "_hidden", report.Symbols[1].Node.Name)
	assert.InDelta(t, 0.85, report.Symbols[1].Confidence, 0.001)

	// Lowering the floor surfaces the unreferenced public function but
	// still not main.
	relaxed := FindUnused(s, 0.5)
	names := make([]string, 0, len(relaxed.Symbols))
	for _, sym := range relaxed.Symbols {
		names = append(names, sym.Node.Name)
	}
	assert.Contains(t, names, "public_api")
	assert.NotContains(t, names, "main")
	assert.NotContains(t, names, "helper_used")
}

func TestDetectPatterns(t *testing.T) {
	s := graph.NewStore()

	registry := symbol("registry.py", "python", uast.KindClass, "registry.Registry", 10)
	subscribe := symbol("registry.py", "python", uast.KindMethod, "registry.Registry.subscribe", 30)
	notify := symbol("registry.py", "python", uast.KindMethod, "registry.Registry.notify_all", 50)
	config := symbol("registry.py", "python", uast.KindClass, "registry.Config", 70)
	getInstance := symbol("registry.py", "python", uast.KindMethod, "registry.Config.get_instance", 90)
	factory := symbol("registry.py", "python", uast.KindClass, "registry.WidgetFactory", 110)
	applyNodes(t, s, "registry.py", "python",
		[]uast.Node{registry, subscribe, notify, config, getInstance, factory}, nil)

	ctor := symbol("store.go", "go", uast.KindFunction, "NewStore", 10)
	user := symbol("store.go", "go", uast.KindFunction, "openRepo", 40)
	applyNodes(t, s, "store.go", "go", []uast.Node{ctor, user},
		[]uast.Edge{{Source: user.ID, Target: ctor.ID, Kind: uast.EdgeCalls}})

	report := DetectPatterns(s)
	assert.Equal(t, 1, report.ByPattern["observer"])
	assert.Equal(t, 1, report.ByPattern["singleton"])
	assert.Equal(t, 1, report.ByPattern["factory"])
	assert.Equal(t, 1, report.ByPattern["constructor-function"])

	for _, inst := range report.Instances {
		switch inst.Pattern {
		case "observer":
			assert.Equal(t, "Registry", inst.Node.Name)
			assert.Len(t, inst.Related, 2)
		case "singleton":
			assert.Equal(t, "Config", inst.Node.Name)
		case "factory":
			assert.Equal(t, "WidgetFactory", inst.Node.Name)
		case "constructor-function":
			assert.Equal(t, "NewStore", inst.Node.Name)
		}
	}
}

func TestDetectPatternsIgnoresUncalledConstructor(t *testing.T) {
	s := graph.NewStore()
	ctor := symbol("store.go", "go", uast.KindFunction, "NewOrphan", 10)
	applyNodes(t, s, "store.go", "go", []uast.Node{ctor}, nil)

	report := DetectPatterns(s)
	assert.Zero(t, report.ByPattern["constructor-function"])
}

func TestAnalyzeAPISurface(t *testing.T) {
	s := graph.NewStore()
	exported := symbol("api.go", "go", uast.KindFunction, "Exported", 10)
	hidden := symbol("api.go", "go", uast.KindFunction, "unexported", 30)
	runner := symbol("api.go", "go", uast.KindFunction, "runner", 50)
	cfg := symbol("api.go", "go", uast.KindVariable, "Config", 70)
	applyNodes(t, s, "api.go", "go", []uast.Node{exported, hidden, runner, cfg},
		[]uast.Edge{{Source: runner.ID, Target: exported.ID, Kind: uast.EdgeCalls}})

	report := AnalyzeAPISurface(s)
	assert.Equal(t, 2, report.PublicCount)
	assert.Equal(t, 2, report.PrivateCount)
	assert.Equal(t, 1, report.UnusedPublic)
	assert.InDelta(t, 0.5, report.PublicRatio, 0.001)

	require.Len(t, report.Modules, 1)
	mod := report.Modules[0]
	assert.Equal(t, "api.go", mod.File)
	require.Len(t, mod.Symbols, 2)
	assert.Equal(t, "Exported", mod.Symbols[0].Node.Name)
	assert.Equal(t, 1, mod.Symbols[0].RefCount)
	assert.Equal(t, "Config", mod.Symbols[1].Node.Name)
	assert.Zero(t, mod.Symbols[1].RefCount)
}
