package mothrun

import (
	"fmt"
	"sort"
	"time"

	"github.com/codeprism/codeprism/internal/output"
)

// TestResult is the verdict for one test case.
type TestResult struct {
	Tool       string  `json:"tool" toon:"tool"`
	Test       string  `json:"test" toon:"test"`
	Outcome    Outcome `json:"outcome" toon:"outcome"`
	Detail     string  `json:"detail,omitempty" toon:"detail,omitempty"`
	DurationMS int64   `json:"duration_ms" toon:"duration_ms"`
}

// Report collects the results of one spec run.
type Report struct {
	Spec       string       `json:"spec" toon:"spec"`
	Server     string       `json:"server" toon:"server"`
	Results    []TestResult `json:"results" toon:"results"`
	DurationMS int64        `json:"duration_ms" toon:"duration_ms"`
}

// Passed reports whether every test passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Outcome != OutcomePass {
			return false
		}
	}
	return true
}

// Counts tallies results per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, res := range r.Results {
		counts[res.Outcome]++
	}
	return counts
}

// Renderable builds the printable report: a per-test table plus a
// summary line, ordered as the spec declares the tests.
func (r *Report) Renderable() *output.Report {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, []string{
			res.Tool,
			res.Test,
			string(res.Outcome),
			fmt.Sprintf("%dms", res.DurationMS),
			res.Detail,
		})
	}

	counts := r.Counts()
	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	summary := fmt.Sprintf("%d tests in %s", len(r.Results), (time.Duration(r.DurationMS) * time.Millisecond).String())
	for _, o := range outcomes {
		summary += fmt.Sprintf(", %d %s", counts[Outcome(o)], o)
	}

	return &output.Report{
		Title: fmt.Sprintf("moth: %s", r.Spec),
		Data:  r,
		Sections: []output.Renderable{
			output.NewTable("Results", []string{"Tool", "Test", "Outcome", "Duration", "Detail"}, rows, nil, r.Results),
			&output.Section{Title: "Summary", Content: summary},
		},
	}
}
