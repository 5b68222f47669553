package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if f.Colored() {
		t.Error("colors should be disabled when writing to a file")
	}

	if err := f.Output(map[string]int{"files": 3}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["files"] != 3 {
		t.Errorf("files = %d, want 3", decoded["files"])
	}
}

func TestTableRenderText(t *testing.T) {
	table := NewTable("Symbols", []string{"Name", "Kind"}, [][]string{
		{"NewStore", "function"},
		{"Store", "class"},
	}, nil, nil)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Symbols", "NewStore", "Store"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Hotspots", []string{"Function", "Score"}, [][]string{
		{"handleRequest", "0.42"},
	}, []string{"total", "1"}, nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "## Hotspots") {
		t.Errorf("missing markdown title:\n%s", out)
	}
	if !strings.Contains(out, "| Function | Score |") {
		t.Errorf("missing header row:\n%s", out)
	}
	if !strings.Contains(out, "| --- | --- |") {
		t.Errorf("missing separator row:\n%s", out)
	}
	if !strings.Contains(out, "| handleRequest | 0.42 |") {
		t.Errorf("missing data row:\n%s", out)
	}
}

func TestTableRenderDataPrefersWrapped(t *testing.T) {
	raw := map[string]any{"count": 2}
	table := NewTable("", []string{"A"}, [][]string{{"x"}}, nil, raw)
	if got := table.RenderData(); got == nil {
		t.Fatal("RenderData() returned nil")
	} else if m, ok := got.(map[string]any); !ok || m["count"] != 2 {
		t.Errorf("RenderData() = %#v, want wrapped data", got)
	}

	bare := NewTable("", []string{"A"}, [][]string{{"x"}}, nil, nil)
	rows, ok := bare.RenderData().([]map[string]string)
	if !ok || len(rows) != 1 || rows[0]["A"] != "x" {
		t.Errorf("RenderData() = %#v, want synthesized rows", bare.RenderData())
	}
}

func TestSectionNesting(t *testing.T) {
	section := &Section{
		Title:   "Complexity",
		Content: "3 functions over threshold",
		Sections: []Section{
			{Title: "Worst", Content: "parseRequest (cyclomatic 24)"},
		},
	}

	var text bytes.Buffer
	if err := section.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := text.String()
	if !strings.Contains(out, "Complexity\n==========") {
		t.Errorf("top-level underline missing:\n%s", out)
	}
	if !strings.Contains(out, "Worst\n-----") {
		t.Errorf("nested underline missing:\n%s", out)
	}

	var md bytes.Buffer
	if err := section.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(md.String(), "## Complexity") || !strings.Contains(md.String(), "### Worst") {
		t.Errorf("markdown heading levels wrong:\n%s", md.String())
	}
}

func TestReportCombinesSections(t *testing.T) {
	report := &Report{
		Title: "Code Health",
		Sections: []Renderable{
			&Section{Title: "Summary", Content: "12 files indexed"},
			NewTable("Findings", []string{"Rule"}, [][]string{{"weak-hash"}}, nil, nil),
		},
	}

	var buf bytes.Buffer
	if err := report.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"# Code Health", "## Summary", "## Findings"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}

	data, ok := report.RenderData().(map[string]any)
	if !ok {
		t.Fatalf("RenderData() = %#v, want map", report.RenderData())
	}
	if data["title"] != "Code Health" {
		t.Errorf("title = %v", data["title"])
	}
}

func TestMarshalTOON(t *testing.T) {
	out, err := MarshalTOON(map[string]any{"files": 2, "nodes": 10})
	if err != nil {
		t.Fatalf("MarshalTOON() error: %v", err)
	}
	if out == "" {
		t.Error("MarshalTOON() returned empty output")
	}
	if !strings.Contains(out, "files") || !strings.Contains(out, "nodes") {
		t.Errorf("TOON output missing keys:\n%s", out)
	}
}
