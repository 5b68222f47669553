package mothspec

import (
	"os"
	"path/filepath"
	"testing"
)

const validSpec = `
name: codeprism-smoke
version: "1.0"
capabilities:
  tools: true
server:
  command: codeprism
  args: ["mcp"]
  env:
    CODEPRISM_REPO: .
tools:
  - name: repository_stats
    tests:
      - name: returns totals
        expected:
          fields:
            - path: $.total_files
              field_type: number
              required: true
  - name: search_symbols
    tests:
      - name: finds helper
        input:
          query: helper
          mode: exact
        expected:
          fields:
            - path: $.symbols[0].name
              value: helper
            - path: $.symbols[0].file
              contains: main.go
        performance:
          max_duration_ms: 2000
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidSpec(t *testing.T) {
	spec, err := Load(writeSpec(t, validSpec))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec.Name != "codeprism-smoke" {
		t.Errorf("name = %q", spec.Name)
	}
	if len(spec.Tools) != 2 {
		t.Fatalf("tools = %d, want 2", len(spec.Tools))
	}
	if spec.TestCount() != 2 {
		t.Errorf("TestCount = %d, want 2", spec.TestCount())
	}
	tc := spec.Tools[1].Tests[0]
	if tc.Input["query"] != "helper" {
		t.Errorf("input query = %v", tc.Input["query"])
	}
	if tc.Performance == nil || tc.Performance.MaxDurationMS != 2000 {
		t.Errorf("performance = %+v", tc.Performance)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	spec, err := Load(writeSpec(t, validSpec))
	if err != nil {
		t.Fatal(err)
	}
	if spec.Server.Transport != "stdio" {
		t.Errorf("transport = %q, want stdio", spec.Server.Transport)
	}
	if spec.Server.StartupTimeoutSeconds != DefaultStartupTimeoutSeconds {
		t.Errorf("startup timeout = %d", spec.Server.StartupTimeoutSeconds)
	}
	if spec.MaxConcurrency != DefaultMaxConcurrency {
		t.Errorf("max_concurrency = %d", spec.MaxConcurrency)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing name", `
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
`},
		{"missing command", `
name: x
server: {}
tools:
  - name: t
    tests:
      - name: a
`},
		{"no tools", `
name: x
server:
  command: codeprism
tools: []
`},
		{"unknown top-level key", `
name: x
bogus: true
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
`},
		{"bad transport", `
name: x
server:
  command: codeprism
  transport: http
tools:
  - name: t
    tests:
      - name: a
`},
		{"duplicate tool", `
name: x
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
  - name: t
    tests:
      - name: b
`},
		{"duplicate test", `
name: x
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
      - name: a
`},
		{"assertion without path", `
name: x
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
        expected:
          fields:
            - contains: hi
`},
		{"assertion without check", `
name: x
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
        expected:
          fields:
            - path: $.x
`},
		{"invalid pattern", `
name: x
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
        expected:
          fields:
            - path: $.x
              pattern: "["
`},
		{"bad field_type", `
name: x
server:
  command: codeprism
tools:
  - name: t
    tests:
      - name: a
        expected:
          fields:
            - path: $.x
              field_type: integer
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Errorf("Parse accepted invalid spec")
			}
		})
	}
}

func TestParseNotYAML(t *testing.T) {
	if _, err := Parse([]byte("\t{not yaml")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestFieldAssertionRequiredOnly(t *testing.T) {
	f := FieldAssertion{Path: "$.content", Required: true}
	if err := f.validate(); err != nil {
		t.Errorf("required-only assertion should validate: %v", err)
	}
}
