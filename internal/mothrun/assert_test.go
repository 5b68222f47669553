package mothrun

import (
	"testing"

	"github.com/codeprism/codeprism/internal/mothspec"
)

func TestGjsonPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"$.total_files", "total_files"},
		{"$.symbols[0].name", "symbols.0.name"},
		{"$", ""},
		{"content[0].text", "content.0.text"},
		{"$.by_language.go", "by_language.go"},
	}
	for _, tc := range cases {
		if got := gjsonPath(tc.in); got != tc.want {
			t.Errorf("gjsonPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

const sampleDoc = `{
	"total": 3,
	"ratio": 0.5,
	"indexed": true,
	"symbols": [
		{"name": "helper", "file": "cmd/main.go"},
		{"name": "caller", "file": "cmd/main.go"}
	]
}`

func TestEvalFieldPasses(t *testing.T) {
	cases := []mothspec.FieldAssertion{
		{Path: "$.total", Value: 3},
		{Path: "$.ratio", Value: 0.5},
		{Path: "$.indexed", Value: true},
		{Path: "$.symbols[0].name", Value: "helper"},
		{Path: "$.symbols[1].file", Contains: "main.go"},
		{Path: "$.symbols[0].name", Pattern: "^hel"},
		{Path: "$.total", FieldType: "number"},
		{Path: "$.symbols", FieldType: "array"},
		{Path: "$.symbols[0]", FieldType: "object"},
		{Path: "$.indexed", FieldType: "boolean"},
		{Path: "$.symbols[1]", Required: true},
	}
	for _, f := range cases {
		if fail := evalField(sampleDoc, "", f); fail != nil {
			t.Errorf("evalField(%+v) failed: %s %s", f, fail.outcome, fail.detail)
		}
	}
}

func TestEvalFieldFailures(t *testing.T) {
	cases := []struct {
		f    mothspec.FieldAssertion
		want Outcome
	}{
		{mothspec.FieldAssertion{Path: "$.absent", Required: true}, OutcomeMissingField},
		{mothspec.FieldAssertion{Path: "$.symbols[9].name", Value: "x", Required: true}, OutcomeMissingField},
		{mothspec.FieldAssertion{Path: "$.total", Value: 4}, OutcomeValueMismatch},
		{mothspec.FieldAssertion{Path: "$.symbols[0].name", Contains: "xyz"}, OutcomeValueMismatch},
		{mothspec.FieldAssertion{Path: "$.symbols[0].name", Pattern: "^caller$"}, OutcomePatternMismatch},
		{mothspec.FieldAssertion{Path: "$.total", FieldType: "string"}, OutcomeTypeMismatch},
		{mothspec.FieldAssertion{Path: "$.symbols", FieldType: "object"}, OutcomeTypeMismatch},
	}
	for _, tc := range cases {
		fail := evalField(sampleDoc, "", tc.f)
		if fail == nil {
			t.Errorf("evalField(%+v) passed, want %s", tc.f, tc.want)
			continue
		}
		if fail.outcome != tc.want {
			t.Errorf("evalField(%+v) = %s, want %s", tc.f, fail.outcome, tc.want)
		}
	}
}

// Absent fields only fail required assertions; optional checks on a
// missing path are skipped rather than reported as missing_field.
func TestEvalFieldSkipsOptionalAbsent(t *testing.T) {
	cases := []mothspec.FieldAssertion{
		{Path: "$.absent", Contains: "x"},
		{Path: "$.symbols[9].name", Value: "x"},
		{Path: "$.absent.nested", Pattern: "^a"},
		{Path: "$.absent", FieldType: "string"},
	}
	for _, f := range cases {
		if fail := evalField(sampleDoc, "", f); fail != nil {
			t.Errorf("evalField(%+v) = %s, want pass", f, fail.outcome)
		}
	}
}

const envelopeDoc = `{"content":[{"type":"text","text":"{\"status\": \"success\", \"total\": 3}"}],"isError":false}`

func TestResponseDocumentsExtractsPayload(t *testing.T) {
	envelope, payload := responseDocuments([]byte(envelopeDoc))
	if envelope != envelopeDoc {
		t.Errorf("envelope = %q", envelope)
	}
	if payload != `{"status": "success", "total": 3}` {
		t.Errorf("payload = %q", payload)
	}
}

func TestResponseDocumentsPlainText(t *testing.T) {
	raw := `{"content":[{"type":"text","text":"not json"}],"isError":false}`
	envelope, payload := responseDocuments([]byte(raw))
	if envelope != raw {
		t.Errorf("envelope = %q", envelope)
	}
	if payload != "" {
		t.Errorf("payload = %q, want empty", payload)
	}
	if fail := evalField(envelope, payload, mothspec.FieldAssertion{Path: "$.content[0].text", Contains: "not json"}); fail != nil {
		t.Errorf("envelope assertion failed: %s", fail.detail)
	}
}

// Envelope paths stay addressable even when the text block carries a
// JSON payload, and payload fields resolve as a fallback.
func TestEvalFieldEnvelopeAndPayload(t *testing.T) {
	envelope, payload := responseDocuments([]byte(envelopeDoc))

	cases := []mothspec.FieldAssertion{
		{Path: "$.content[0].text", Pattern: `"status":\s*"success"`, Required: true},
		{Path: "$.content[0].type", Value: "text", Required: true},
		{Path: "$.isError", Value: false, Required: true},
		{Path: "$.status", Value: "success", Required: true},
		{Path: "$.total", Value: 3, Required: true},
	}
	for _, f := range cases {
		if fail := evalField(envelope, payload, f); fail != nil {
			t.Errorf("evalField(%+v) failed: %s %s", f, fail.outcome, fail.detail)
		}
	}

	if fail := evalField(envelope, payload, mothspec.FieldAssertion{Path: "$.nowhere", Required: true}); fail == nil || fail.outcome != OutcomeMissingField {
		t.Errorf("want missing_field for path absent from both documents, got %+v", fail)
	}
}
