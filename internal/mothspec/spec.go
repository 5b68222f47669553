// Package mothspec loads and validates YAML test specifications for MCP
// servers. A spec names a server to launch and, per tool, a list of test
// cases with assertions against the tool's JSON response.
package mothspec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// Defaults applied after loading.
const (
	DefaultStartupTimeoutSeconds = 30
	DefaultMaxConcurrency        = 4
	DefaultTransport             = "stdio"
)

// Spec is one moth test specification file.
type Spec struct {
	Name           string       `yaml:"name" json:"name"`
	Version        string       `yaml:"version,omitempty" json:"version,omitempty"`
	Capabilities   Capabilities `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Server         ServerConfig `yaml:"server" json:"server"`
	MaxConcurrency int          `yaml:"max_concurrency,omitempty" json:"max_concurrency,omitempty"`
	Tools          []ToolSuite  `yaml:"tools" json:"tools"`
}

// Capabilities declares which MCP surfaces the spec exercises.
type Capabilities struct {
	Tools     bool `yaml:"tools,omitempty" json:"tools,omitempty"`
	Prompts   bool `yaml:"prompts,omitempty" json:"prompts,omitempty"`
	Resources bool `yaml:"resources,omitempty" json:"resources,omitempty"`
}

// ServerConfig describes how to launch the server under test.
type ServerConfig struct {
	Command               string            `yaml:"command" json:"command"`
	Args                  []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env                   map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Transport             string            `yaml:"transport,omitempty" json:"transport,omitempty"`
	StartupTimeoutSeconds int               `yaml:"startup_timeout_seconds,omitempty" json:"startup_timeout_seconds,omitempty"`
}

// ToolSuite groups the test cases for one tool.
type ToolSuite struct {
	Name  string     `yaml:"name" json:"name"`
	Tests []TestCase `yaml:"tests" json:"tests"`
}

// TestCase is one tools/call invocation with its assertions.
type TestCase struct {
	Name        string         `yaml:"name" json:"name"`
	Input       map[string]any `yaml:"input,omitempty" json:"input,omitempty"`
	Expected    Expected       `yaml:"expected,omitempty" json:"expected,omitempty"`
	Performance *Performance   `yaml:"performance,omitempty" json:"performance,omitempty"`
}

// Expected holds the assertions evaluated against the response.
type Expected struct {
	Error  bool             `yaml:"error,omitempty" json:"error,omitempty"`
	Fields []FieldAssertion `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// FieldAssertion checks one field of the response JSON, addressed by a
// JSONPath-style path (e.g. $.content[0].text).
type FieldAssertion struct {
	Path      string `yaml:"path" json:"path"`
	Value     any    `yaml:"value,omitempty" json:"value,omitempty"`
	Contains  string `yaml:"contains,omitempty" json:"contains,omitempty"`
	Pattern   string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	FieldType string `yaml:"field_type,omitempty" json:"field_type,omitempty"`
	Required  bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// Performance bounds a test's wall time.
type Performance struct {
	MaxDurationMS int `yaml:"max_duration_ms,omitempty" json:"max_duration_ms,omitempty"`
}

// Load reads, schema-validates, and semantically validates a spec file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	return Parse(data)
}

// Parse validates spec bytes. Validation runs in three passes: JSON schema
// over the raw document, strict YAML decoding into the typed spec, then
// semantic checks the schema can't express.
func Parse(data []byte) (*Spec, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	doc, err := jsonShape(raw)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	spec := &Spec{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(spec); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}

	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

var compiledSchema = func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("mothspec: bad embedded schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("moth.schema.json", doc); err != nil {
		panic(fmt.Sprintf("mothspec: add schema resource: %v", err))
	}
	return c.MustCompile("moth.schema.json")
}()

func validateSchema(doc any) error {
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

// jsonShape converts a yaml-decoded document into the value shapes the
// schema validator expects (string-keyed maps, json numbers).
func jsonShape(v any) (any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("shape document: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("shape document: %w", err)
	}
	return doc, nil
}

func (s *Spec) applyDefaults() {
	if s.Server.Transport == "" {
		s.Server.Transport = DefaultTransport
	}
	if s.Server.StartupTimeoutSeconds <= 0 {
		s.Server.StartupTimeoutSeconds = DefaultStartupTimeoutSeconds
	}
	if s.MaxConcurrency <= 0 {
		s.MaxConcurrency = DefaultMaxConcurrency
	}
}

// Validate performs the semantic checks: unique names, launchable server,
// and well-formed assertions.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("spec name is required")
	}
	if s.Server.Command == "" {
		return fmt.Errorf("server.command is required")
	}
	if s.Server.Transport != DefaultTransport {
		return fmt.Errorf("unsupported transport %q (only stdio)", s.Server.Transport)
	}
	if len(s.Tools) == 0 {
		return fmt.Errorf("at least one tool suite is required")
	}

	toolNames := make(map[string]bool)
	for _, tool := range s.Tools {
		if tool.Name == "" {
			return fmt.Errorf("tool name is required")
		}
		if toolNames[tool.Name] {
			return fmt.Errorf("duplicate tool %q", tool.Name)
		}
		toolNames[tool.Name] = true

		if len(tool.Tests) == 0 {
			return fmt.Errorf("tool %q has no tests", tool.Name)
		}
		testNames := make(map[string]bool)
		for _, tc := range tool.Tests {
			if tc.Name == "" {
				return fmt.Errorf("tool %q has a test without a name", tool.Name)
			}
			if testNames[tc.Name] {
				return fmt.Errorf("tool %q has duplicate test %q", tool.Name, tc.Name)
			}
			testNames[tc.Name] = true

			for _, f := range tc.Expected.Fields {
				if err := f.validate(); err != nil {
					return fmt.Errorf("tool %q test %q: %w", tool.Name, tc.Name, err)
				}
			}
		}
	}
	return nil
}

func (f *FieldAssertion) validate() error {
	if f.Path == "" {
		return fmt.Errorf("field assertion needs a path")
	}
	if f.Value == nil && f.Contains == "" && f.Pattern == "" && f.FieldType == "" && !f.Required {
		return fmt.Errorf("field %q asserts nothing", f.Path)
	}
	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("field %q has invalid pattern: %w", f.Path, err)
		}
	}
	switch f.FieldType {
	case "", "string", "number", "boolean", "array", "object":
	default:
		return fmt.Errorf("field %q has unknown field_type %q", f.Path, f.FieldType)
	}
	return nil
}

// TestCount returns the total number of test cases across all tools.
func (s *Spec) TestCount() int {
	n := 0
	for _, tool := range s.Tools {
		n += len(tool.Tests)
	}
	return n
}
