package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityFindings(t *testing.T) {
	path := writeFixture(t, "insecure.py", `import hashlib

API_KEY = "sk-live-abcdef123456"

def lookup(user_id):
    query = "SELECT * FROM users WHERE id = " + user_id
    return db.execute(query)

def digest(data):
    return hashlib.md5(data).hexdigest()

def run(cmd):
    os.system(cmd)
`)
	a := NewSecurityAnalyzer()
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)

	assert.Positive(t, report.ByRule["hardcoded-secret"])
	assert.Positive(t, report.ByRule["sql-string-concat"])
	assert.Positive(t, report.ByRule["weak-hash"])
	assert.Positive(t, report.ByRule["shell-injection"])
	assert.Positive(t, report.BySeverity[SeverityHigh])

	for _, f := range report.Findings {
		assert.Equal(t, path, f.File)
		assert.Positive(t, f.Line)
		assert.NotEmpty(t, f.Snippet)
	}
}

func TestSecurityCleanFile(t *testing.T) {
	path := writeFixture(t, "clean.go", `package p

import "crypto/sha256"

func Digest(data []byte) [32]byte {
	return sha256.Sum256(data)
}
`)
	a := NewSecurityAnalyzer()
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
}

func TestSecuritySkipsComments(t *testing.T) {
	path := writeFixture(t, "commented.go", `package p

// password = "example-only" explains the config format
var x = 1
`)
	a := NewSecurityAnalyzer()
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
}

func TestPerformanceNestedLoops(t *testing.T) {
	path := writeFixture(t, "slow.go", `package p

func Cube(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				total += i * j * k
			}
		}
	}
	return total
}
`)
	a := NewPerformanceAnalyzer()
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	assert.Positive(t, report.ByRule["nested-loops"])
}

func TestPerformanceCallInLoop(t *testing.T) {
	path := writeFixture(t, "nplusone.py", `def load_all(ids):
    out = []
    for user_id in ids:
        out.append(db.query(user_id))
    return out
`)
	a := NewPerformanceAnalyzer()
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	assert.Positive(t, report.ByRule["call-in-loop"])
}

func TestPerformanceStringConcatInLoop(t *testing.T) {
	path := writeFixture(t, "concat.py", `def join_names(names):
    result = ""
    for name in names:
        result += name + ","
    return result
`)
	a := NewPerformanceAnalyzer()
	report, err := a.AnalyzeFiles(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	assert.Positive(t, report.ByRule["string-concat-in-loop"])
}

func TestDuplicateDetection(t *testing.T) {
	block := `	value := compute(input)
	if value < 0 {
		value = -value
	}
	scaled := value * 3
	remainder := scaled % 7
	final := remainder + offset
	log.Printf("result %d", final)
`
	dir := t.TempDir()
	for _, name := range []string{"one.go", "two.go"} {
		content := "package p\n\nfunc handler(input, offset int) {\n" + block + "}\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	a := NewDuplicateAnalyzer(6, 0.8)
	report, err := a.AnalyzeFiles(context.Background(), []string{
		filepath.Join(dir, "one.go"),
		filepath.Join(dir, "two.go"),
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, report.Groups)
	assert.Len(t, report.Groups[0].Instances, 2)
	assert.Positive(t, report.DuplicatedLines)
	assert.Positive(t, report.Ratio)
}

func TestDuplicateNoFalsePositives(t *testing.T) {
	a := NewDuplicateAnalyzer(6, 0.8)
	one := writeFixture(t, "unique1.go", `package p

func Alpha(a int) int {
	x := a * 2
	y := x + 7
	z := y / 3
	w := z - a
	v := w * w
	return v + 1
}
`)
	two := writeFixture(t, "unique2.go", `package p

func Beta(names []string) string {
	longest := ""
	for _, n := range names {
		if len(n) > len(longest) {
			longest = n
		}
	}
	return longest
}
`)
	report, err := a.AnalyzeFiles(context.Background(), []string{one, two}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Groups)
}
