package mothrun

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/codeprism/codeprism/internal/mothspec"
)

// Outcome classifies a single test result.
type Outcome string

const (
	OutcomePass            Outcome = "pass"
	OutcomeMissingTool     Outcome = "missing_tool"
	OutcomeMissingField    Outcome = "missing_field"
	OutcomeValueMismatch   Outcome = "value_mismatch"
	OutcomePatternMismatch Outcome = "pattern_mismatch"
	OutcomeTypeMismatch    Outcome = "type_mismatch"
	OutcomeToolError       Outcome = "tool_error"
	OutcomeTransportError  Outcome = "transport_error"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeSlow            Outcome = "slow"
)

func (o Outcome) String() string { return string(o) }

// failure pairs an outcome with a human-readable detail line.
type failure struct {
	outcome Outcome
	detail  string
}

// gjsonPath converts a JSONPath-style assertion path ($.symbols[0].name)
// into gjson syntax (symbols.0.name).
func gjsonPath(p string) string {
	p = strings.TrimPrefix(p, "$.")
	p = strings.TrimPrefix(p, "$")
	p = strings.ReplaceAll(p, "[", ".")
	p = strings.ReplaceAll(p, "]", "")
	return strings.TrimPrefix(p, ".")
}

// evalField checks one assertion against the response. Paths resolve
// against the envelope first and fall back to the extracted payload, so
// specs can address either $.content[0].text or the payload's own
// fields. An absent field fails only when the assertion is required;
// otherwise the remaining checks are skipped. Returns nil when the
// assertion holds.
func evalField(envelope, payload string, f mothspec.FieldAssertion) *failure {
	res := gjson.Get(envelope, gjsonPath(f.Path))
	if !res.Exists() && payload != "" {
		res = gjson.Get(payload, gjsonPath(f.Path))
	}
	if !res.Exists() {
		if f.Required {
			return &failure{OutcomeMissingField, fmt.Sprintf("%s not present in response", f.Path)}
		}
		return nil
	}

	if f.FieldType != "" {
		if got := gjsonTypeName(res); got != f.FieldType {
			return &failure{OutcomeTypeMismatch, fmt.Sprintf("%s is %s, want %s", f.Path, got, f.FieldType)}
		}
	}
	if f.Value != nil {
		want, err := jsonValue(f.Value)
		if err != nil {
			return &failure{OutcomeValueMismatch, fmt.Sprintf("%s: %v", f.Path, err)}
		}
		if !reflect.DeepEqual(res.Value(), want) {
			return &failure{OutcomeValueMismatch, fmt.Sprintf("%s = %s, want %v", f.Path, res.Raw, f.Value)}
		}
	}
	if f.Contains != "" && !strings.Contains(res.String(), f.Contains) {
		return &failure{OutcomeValueMismatch, fmt.Sprintf("%s does not contain %q", f.Path, f.Contains)}
	}
	if f.Pattern != "" {
		// Patterns are compile-checked at spec load time.
		re := regexp.MustCompile(f.Pattern)
		if !re.MatchString(res.String()) {
			return &failure{OutcomePatternMismatch, fmt.Sprintf("%s does not match %q", f.Path, f.Pattern)}
		}
	}
	return nil
}

func gjsonTypeName(res gjson.Result) string {
	switch res.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	default:
		if res.IsArray() {
			return "array"
		}
		return "object"
	}
}

// jsonValue round-trips a yaml-decoded value through JSON so that it
// compares cleanly against gjson's decoded values (float64 numbers,
// string-keyed maps).
func jsonValue(v any) (any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// responseDocuments splits the call result into the documents assertions
// resolve against: the full envelope, and, when the first content block
// is text that parses as a JSON object or array (the common case for
// tools that return structured payloads), that payload too. The payload
// is "" otherwise.
func responseDocuments(raw []byte) (envelope, payload string) {
	envelope = string(bytes.TrimSpace(raw))
	text := gjson.Get(envelope, "content.0.text")
	if text.Exists() {
		trimmed := strings.TrimSpace(text.String())
		if json.Valid([]byte(trimmed)) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
			payload = trimmed
		}
	}
	return envelope, payload
}
