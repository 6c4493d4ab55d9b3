package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/validation"
)

func intPtr(n int) *int         { return &n }
func floatPtr(f float64) *float64 { return &f }

func personSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string"},
			"age":  {Type: "integer", Minimum: floatPtr(0)},
			"tags": {Type: "array", Items: &jsonschema.Schema{Type: "string"}, MinItems: intPtr(1)},
		},
		Required: []string{"name", "age"},
	}
}

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestParseMode(t *testing.T) {
	for _, in := range []string{"tools", "JSON", " json_schema ", "md_json"} {
		if _, err := ParseMode(in); err != nil {
			t.Errorf("ParseMode(%q): %v", in, err)
		}
	}
	if _, err := ParseMode("xml"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if !ModeTools.IsToolCall() || ModeJSON.IsToolCall() {
		t.Error("only tools mode is a tool call")
	}
}

func TestObjectDefaults(t *testing.T) {
	m := Object("Person", personSchema())
	if m.ToolName != DefaultToolName {
		t.Errorf("tool name = %q", m.ToolName)
	}
	if !strings.Contains(m.ToolDescription, "Person") {
		t.Errorf("description = %q", m.ToolDescription)
	}
	m = Object("Person", nil, WithToolName("person"), WithDescription("a person"))
	if m.ToolName != "person" || m.ToolDescription != "a person" {
		t.Errorf("options not applied: %+v", m)
	}
	if m.JSONSchema()["type"] != "object" {
		t.Errorf("nil schema should default to object: %v", m.JSONSchema())
	}
}

func TestScalarAndSequenceUnwrap(t *testing.T) {
	scalar := Scalar("Age", &jsonschema.Schema{Type: "integer"})
	if scalar.UnwrapKey() != ScalarKey {
		t.Fatalf("key = %q", scalar.UnwrapKey())
	}
	if got := scalar.Unwrap(decode(t, `{"value": 5}`)); got != float64(5) {
		t.Errorf("Unwrap = %v", got)
	}
	props := scalar.JSONSchema()["properties"].(map[string]any)
	if _, ok := props["value"]; !ok {
		t.Errorf("scalar schema should wrap under value: %v", scalar.JSONSchema())
	}

	seq := Sequence("Names", &jsonschema.Schema{Type: "string"})
	got, ok := seq.Unwrap(decode(t, `{"list": ["a", "b"]}`)).([]any)
	if !ok || len(got) != 2 {
		t.Errorf("Unwrap = %v", got)
	}
	if obj := Object("P", nil); obj.Unwrap("x") != "x" {
		t.Error("object models return data unchanged")
	}
}

func TestFromJSON(t *testing.T) {
	m, err := FromJSON("Thing", []byte(`{"type":"object","properties":{"id":{"type":"string"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if m.Schema.Properties["id"].Type != "string" {
		t.Errorf("schema not parsed: %+v", m.Schema)
	}
	if _, err := FromJSON("Bad", []byte(`{`)); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidatePartial(t *testing.T) {
	m := Object("Person", personSchema())

	if err := m.ValidatePartial(decode(t, `{}`)); err != nil {
		t.Errorf("empty object should pass partial validation: %v", err)
	}
	if err := m.ValidatePartial(decode(t, `{"name": "Ada", "tags": []}`)); err != nil {
		t.Errorf("missing required and short arrays are allowed: %v", err)
	}
	err := m.ValidatePartial(decode(t, `{"name": 42}`))
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Fatalf("wrong type should fail, got %v", err)
	}
	if len(m.Schema.Required) != 2 {
		t.Error("relaxing must not modify the model's schema")
	}
}

func TestValidateFull(t *testing.T) {
	m := Object("Person", personSchema())

	if err := m.Validate(decode(t, `{"name": "Ada", "age": 36}`)); err != nil {
		t.Errorf("valid object: %v", err)
	}

	err := m.Validate(decode(t, `{"name": "Ada"}`))
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Fatalf("missing required should fail, got %v", err)
	}
	if len(validation.Fields(err)) == 0 {
		t.Error("expected field errors")
	}

	err = m.Validate(decode(t, `{"name": "Ada", "age": -1}`))
	if err == nil {
		t.Fatal("minimum should be enforced")
	}
	app, _ := errors.AsAppError(err)
	if app.Details["phase"] != "final" {
		t.Errorf("phase = %v", app.Details["phase"])
	}
}

func TestValidateTypedValue(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	m := Object("Person", personSchema())
	if err := m.Validate(person{Name: "Ada", Age: 36}); err != nil {
		t.Errorf("typed value should be normalized: %v", err)
	}
}

func TestPrepare(t *testing.T) {
	m := Object("Person", personSchema())
	base := llm.Request{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}}

	tools := m.Prepare(base, ModeTools)
	if tools.Tool == nil || tools.Tool.Name != DefaultToolName || tools.Mode != "tools" {
		t.Errorf("tools request = %+v", tools)
	}

	js := m.Prepare(base, ModeJSONSchema)
	if js.ResponseSchema["type"] != "object" {
		t.Errorf("response schema = %v", js.ResponseSchema)
	}

	md := m.Prepare(base, ModeMdJSON)
	if !strings.Contains(md.SystemPrompt, "```json") || !strings.Contains(md.SystemPrompt, `"name"`) {
		t.Errorf("md_json prompt = %q", md.SystemPrompt)
	}
	if base.SystemPrompt != "" || base.Tool != nil {
		t.Error("Prepare must not modify its input")
	}
}
