package memory

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of the memory file, which is also the shape
// accepted as the message argument.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	item := r.Reflect(&Message{})
	item.Version = ""
	item.ID = ""

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Charlotte memory log",
		Description: "Ordered chat messages; the first entry may be the framing message.",
		Type:        "array",
		Items:       item,
	}
}

// JSONSchema describes the three accepted content shapes.
func (Content) JSONSchema() *jsonschema.Schema {
	textPart := &jsonschema.Schema{Type: "object"}
	return &jsonschema.Schema{
		Description: "Plain text, an object with optional text/image_url, or a list of typed parts.",
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "object"},
			{Type: "array", Items: textPart},
		},
	}
}

// JSONSchemaExtend replaces the reflected byte-slice schema of history_id,
// which is passed through as any JSON scalar.
func (Message) JSONSchemaExtend(s *jsonschema.Schema) {
	if s.Properties == nil {
		return
	}
	s.Properties.Set("history_id", &jsonschema.Schema{
		Description: "Opaque correlation id echoed back in the result line.",
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "number"},
			{Type: "null"},
		},
	})
}
