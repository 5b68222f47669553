// Package mothrun launches an MCP server described by a mothspec and
// drives its tools through the spec's test cases over stdio.
package mothrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sourcegraph/conc/pool"

	"github.com/codeprism/codeprism/internal/mothspec"
)

// Runner executes one spec against a freshly launched server.
type Runner struct {
	spec *mothspec.Spec
	dir  string
}

// New creates a runner. dir is the working directory for the server
// process; empty means inherit.
func New(spec *mothspec.Spec, dir string) *Runner {
	return &Runner{spec: spec, dir: dir}
}

// Run connects to the server, gates on tools/list, executes every test
// case, and returns the collected report. The returned error covers run
// infrastructure only; test failures are reported through the Report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	session, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	advertised, err := listTools(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	report := &Report{
		Spec:    r.spec.Name,
		Server:  r.spec.Server.Command,
		Results: make([]TestResult, r.spec.TestCount()),
	}

	p := pool.New().WithMaxGoroutines(r.spec.MaxConcurrency)
	idx := 0
	for _, tool := range r.spec.Tools {
		for _, tc := range tool.Tests {
			slot := idx
			idx++
			if !advertised[tool.Name] {
				report.Results[slot] = TestResult{
					Tool:    tool.Name,
					Test:    tc.Name,
					Outcome: OutcomeMissingTool,
					Detail:  fmt.Sprintf("server does not advertise tool %q", tool.Name),
				}
				continue
			}
			p.Go(func() {
				report.Results[slot] = runTest(ctx, session, tool.Name, tc)
			})
		}
	}
	p.Wait()

	report.DurationMS = time.Since(started).Milliseconds()
	return report, nil
}

// connect launches the server process and completes the MCP handshake
// within the spec's startup timeout.
func (r *Runner) connect(ctx context.Context) (*mcp.ClientSession, error) {
	cmd := exec.Command(r.spec.Server.Command, r.spec.Server.Args...)
	cmd.Dir = r.dir
	cmd.Env = os.Environ()
	for k, v := range r.spec.Server.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = os.Stderr

	startCtx, cancel := context.WithTimeout(ctx, time.Duration(r.spec.Server.StartupTimeoutSeconds)*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "moth", Version: "dev"}, nil)
	session, err := client.Connect(startCtx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		if errors.Is(startCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("server did not start within %ds", r.spec.Server.StartupTimeoutSeconds)
		}
		return nil, fmt.Errorf("connect to server: %w", err)
	}
	return session, nil
}

func listTools(ctx context.Context, session *mcp.ClientSession) (map[string]bool, error) {
	advertised := make(map[string]bool)
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, err
		}
		advertised[tool.Name] = true
	}
	return advertised, nil
}

func runTest(ctx context.Context, session *mcp.ClientSession, tool string, tc mothspec.TestCase) TestResult {
	result := TestResult{Tool: tool, Test: tc.Name}

	started := time.Now()
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: tc.Input,
	})
	elapsed := time.Since(started)
	result.DurationMS = elapsed.Milliseconds()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Outcome = OutcomeTimeout
			result.Detail = "call exceeded the run deadline"
		} else {
			result.Outcome = OutcomeTransportError
			result.Detail = err.Error()
		}
		return result
	}

	if res.IsError {
		if tc.Expected.Error {
			result.Outcome = OutcomePass
			return result
		}
		result.Outcome = OutcomeToolError
		result.Detail = resultText(res)
		return result
	}
	if tc.Expected.Error {
		result.Outcome = OutcomeValueMismatch
		result.Detail = "expected the tool to report an error"
		return result
	}

	raw, err := json.Marshal(res)
	if err != nil {
		result.Outcome = OutcomeTransportError
		result.Detail = fmt.Sprintf("encode result: %v", err)
		return result
	}
	envelope, payload := responseDocuments(raw)

	for _, f := range tc.Expected.Fields {
		if fail := evalField(envelope, payload, f); fail != nil {
			result.Outcome = fail.outcome
			result.Detail = fail.detail
			return result
		}
	}

	if tc.Performance != nil && tc.Performance.MaxDurationMS > 0 &&
		elapsed > time.Duration(tc.Performance.MaxDurationMS)*time.Millisecond {
		result.Outcome = OutcomeSlow
		result.Detail = fmt.Sprintf("took %dms, budget %dms", elapsed.Milliseconds(), tc.Performance.MaxDurationMS)
		return result
	}

	result.Outcome = OutcomePass
	return result
}

// resultText joins the text content blocks of a tool result, truncated
// to keep report rows readable.
func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if t, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, t.Text)
		}
	}
	text := strings.Join(parts, " ")
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
