package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	sv "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/validation"
)

const resourceName = "response.json"

type fullValidator interface {
	Validate(v any) error
}

// ValidatePartial checks an incomplete object. Members that have not
// arrived yet are not reported.
func (m *ResponseModel) ValidatePartial(data any) error {
	m.partialOnce.Do(func() {
		relaxed, err := relax(m.Schema)
		if err != nil {
			m.partialErr = err
			return
		}
		m.partial, m.partialErr = relaxed.Resolve(nil)
	})
	if m.partialErr != nil {
		return errors.Internal(m.partialErr).WithDetail("schema", m.Name)
	}
	if err := m.partial.Validate(data); err != nil {
		v := validation.New()
		v.AddError("", err.Error())
		return v.Validate().WithDetail("phase", "partial")
	}
	return nil
}

// Validate checks a final object against the full schema.
func (m *ResponseModel) Validate(data any) error {
	m.fullOnce.Do(func() {
		m.full, m.fullErr = compile(m.JSONSchema())
	})
	if m.fullErr != nil {
		return errors.Internal(m.fullErr).WithDetail("schema", m.Name)
	}
	err := m.full.Validate(normalize(data))
	if err == nil {
		return nil
	}
	v := validation.New()
	if verr, ok := err.(*sv.ValidationError); ok {
		collect(v, verr.BasicOutput())
	}
	if !v.HasErrors() {
		v.AddError("", err.Error())
	}
	return v.Validate().WithDetail("phase", "final")
}

func compile(doc map[string]any) (fullValidator, error) {
	c := sv.NewCompiler()
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// collect records leaf errors of a basic output unit tree.
func collect(v *validation.Validator, unit *sv.OutputUnit) {
	if unit == nil {
		return
	}
	for _, e := range unit.Errors {
		if len(e.Errors) > 0 {
			collect(v, &e)
			continue
		}
		if e.Error == nil {
			continue
		}
		field := e.InstanceLocation
		if field == "" {
			field = "/"
		}
		v.AddError(field, fmt.Sprint(e.Error))
	}
}

// normalize round-trips data through encoding/json so typed values (structs,
// int fields) become the generic JSON shapes the validator expects.
func normalize(data any) any {
	switch data.(type) {
	case nil, bool, string, float64, map[string]any, []any:
		return data
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return data
	}
	return out
}

// relax returns a deep copy of s without the keywords that reject objects
// for members that are still streaming.
func relax(s *jsonschema.Schema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out jsonschema.Schema
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	walk(&out, func(n *jsonschema.Schema) {
		n.Required = nil
		n.MinItems = nil
		n.MinProperties = nil
		n.DependentRequired = nil
	})
	return &out, nil
}

func walk(s *jsonschema.Schema, fn func(*jsonschema.Schema)) {
	if s == nil {
		return
	}
	fn(s)
	for _, p := range s.Properties {
		walk(p, fn)
	}
	for _, p := range s.PatternProperties {
		walk(p, fn)
	}
	for _, d := range s.Defs {
		walk(d, fn)
	}
	for _, d := range s.Definitions {
		walk(d, fn)
	}
	for _, list := range [][]*jsonschema.Schema{s.PrefixItems, s.AllOf, s.AnyOf, s.OneOf} {
		for _, c := range list {
			walk(c, fn)
		}
	}
	walk(s.Items, fn)
	walk(s.AdditionalProperties, fn)
	walk(s.If, fn)
	walk(s.Then, fn)
	walk(s.Else, fn)
}
