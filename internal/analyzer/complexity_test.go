package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestComplexitySimpleFunction(t *testing.T) {
	path := writeFixture(t, "simple.go", `package p

func Simple() int {
	return 42
}
`)
	a := NewComplexityAnalyzer(10)
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.FunctionCount)

	fn := report.Files[0].Functions[0]
	assert.Equal(t, "Simple", fn.Name)
	assert.Equal(t, uint32(1), fn.Cyclomatic)
	assert.Zero(t, fn.Cognitive)
}

func TestComplexityBranchingFunction(t *testing.T) {
	path := writeFixture(t, "branchy.go", `package p

func Branchy(a, b int) int {
	if a > 0 {
		if b > 0 {
			return a + b
		}
		return a
	}
	for i := 0; i < b; i++ {
		if i%2 == 0 && a > i {
			a++
		}
	}
	return b
}
`)
	a := NewComplexityAnalyzer(10)
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.FunctionCount)

	fn := report.Files[0].Functions[0]
	// 1 base + 3 ifs + 1 for + 1 logical operator.
	assert.Equal(t, uint32(6), fn.Cyclomatic)
	// Nested constructs cost more than flat ones.
	assert.Greater(t, fn.Cognitive, uint32(4))
	assert.Equal(t, 2, fn.MaxNesting)
}

func TestComplexityPython(t *testing.T) {
	path := writeFixture(t, "mod.py", `def choose(x):
    if x > 10:
        return "big"
    elif x > 5:
        return "medium"
    else:
        return "small"
`)
	a := NewComplexityAnalyzer(10)
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.FunctionCount)

	fn := report.Files[0].Functions[0]
	assert.Equal(t, "choose", fn.Name)
	// 1 base + if + elif.
	assert.Equal(t, uint32(3), fn.Cyclomatic)
}

func TestComplexityHotspotThreshold(t *testing.T) {
	path := writeFixture(t, "hot.go", `package p

func Hot(xs []int) int {
	n := 0
	for _, x := range xs {
		if x > 0 {
			n++
		}
		if x > 10 {
			n++
		}
		if x > 100 {
			n++
		}
	}
	return n
}
`)
	a := NewComplexityAnalyzer(4)
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	require.Len(t, report.Hotspots, 1)
	assert.Equal(t, "Hot", report.Hotspots[0].Name)
}

func TestComplexityMissingFile(t *testing.T) {
	a := NewComplexityAnalyzer(10)
	_, err := a.AnalyzeFiles(context.Background(), []string{"/nonexistent/file.go"}, nil)
	assert.Error(t, err)
}
