package mcp

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Object returns an object schema over props. Names in required must be
// present in every call.
func Object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if props == nil {
		props = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func String(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func Integer(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

func Number(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: desc}
}

func Boolean(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc}
}

// Array returns an array schema whose elements match items.
func Array(desc string, items *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: desc, Items: items}
}

// Enum returns a string schema restricted to values.
func Enum(desc string, values ...string) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &jsonschema.Schema{Type: "string", Description: desc, Enum: enum}
}

// Min sets an inclusive lower bound on a numeric schema.
func Min(s *jsonschema.Schema, lo float64) *jsonschema.Schema {
	s.Minimum = &lo
	return s
}

// Between sets inclusive lower and upper bounds on a numeric schema.
func Between(s *jsonschema.Schema, lo, hi float64) *jsonschema.Schema {
	s.Minimum = &lo
	s.Maximum = &hi
	return s
}

// Default sets the value applied when the property is absent. It panics on
// values that cannot be encoded, which only happens with programming errors.
func Default(s *jsonschema.Schema, v any) *jsonschema.Schema {
	data, err := json.Marshal(v)
	if err != nil {
		panic("mcp: unencodable schema default: " + err.Error())
	}
	s.Default = data
	return s
}

// PageProps returns the page and per_page properties shared by list tools.
func PageProps() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"page":     Min(Integer("Page number (default 1)"), 1),
		"per_page": Between(Integer("Results per page (max 100)"), 1, 100),
	}
}

// With merges extra properties into props and returns props.
func With(props map[string]*jsonschema.Schema, extra map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	for k, v := range extra {
		props[k] = v
	}
	return props
}
