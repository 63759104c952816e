package quill

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/quillsearch/quill/quill/compiler"
)

// FieldSpec defines a field's configuration.
type FieldSpec struct {
	Type compiler.FieldType `json:"type"`
}

// Schema defines the fields an index knows about and the default field
// set searched by unscoped terms.
type Schema struct {
	Fields   map[string]FieldSpec `json:"fields"`
	Defaults []string             `json:"defaults"`
}

// Field names are plain alphanumeric; the query grammar cannot reference
// anything else.
var validFieldNameRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// NoteSchema returns the schema of the personal note corpus.
func NoteSchema() Schema {
	return Schema{
		Fields: map[string]FieldSpec{
			"id":       {Type: compiler.FieldText},
			"type":     {Type: compiler.FieldText},
			"category": {Type: compiler.FieldText},
			"title":    {Type: compiler.FieldText},
			"tags":     {Type: compiler.FieldText},
			"status":   {Type: compiler.FieldText},
			"body":     {Type: compiler.FieldText},
			"filename": {Type: compiler.FieldText},
			"date":     {Type: compiler.FieldDate},
		},
		Defaults: []string{"title", "body"},
	}
}

// Validate checks if the schema is valid.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return SchemaError("schema must have at least one field")
	}

	for name, spec := range s.Fields {
		if !validFieldNameRe.MatchString(name) {
			return SchemaError(fmt.Sprintf("invalid field name: %s (must be alphanumeric)", name))
		}
		switch spec.Type {
		case compiler.FieldText, compiler.FieldDate:
			// valid
		default:
			return SchemaError(fmt.Sprintf("unknown field type '%s' for field '%s'", spec.Type, name))
		}
	}

	if len(s.Defaults) == 0 {
		return SchemaError("schema must declare at least one default field")
	}
	for _, name := range s.Defaults {
		spec, ok := s.Fields[name]
		if !ok {
			return SchemaError(fmt.Sprintf("default field '%s' is not defined", name))
		}
		if spec.Type != compiler.FieldText {
			return SchemaError(fmt.Sprintf("default field '%s' must be a text field", name))
		}
	}

	return nil
}

// Resolve implements compiler.Schema.
func (s Schema) Resolve(name string) (compiler.FieldHandle, bool) {
	spec, ok := s.Fields[name]
	if !ok {
		return compiler.FieldHandle{}, false
	}
	return compiler.FieldHandle{Name: name, Type: spec.Type}, true
}

// DefaultFields implements compiler.Schema. The order is the declared
// Defaults order, so compiled queries are deterministic.
func (s Schema) DefaultFields() []compiler.FieldHandle {
	handles := make([]compiler.FieldHandle, 0, len(s.Defaults))
	for _, name := range s.Defaults {
		if spec, ok := s.Fields[name]; ok {
			handles = append(handles, compiler.FieldHandle{Name: name, Type: spec.Type})
		}
	}
	return handles
}

// TextFieldsInOrder returns text field names sorted by name. Storage
// adapters use it to lay out full-text columns.
func (s Schema) TextFieldsInOrder() []string {
	var fields []string
	for name, spec := range s.Fields {
		if spec.Type == compiler.FieldText {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// DateFieldsInOrder returns date field names sorted by name.
func (s Schema) DateFieldsInOrder() []string {
	var fields []string
	for name, spec := range s.Fields {
		if spec.Type == compiler.FieldDate {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// ToJSON serializes the schema to JSON.
func (s Schema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// SchemaFromJSON deserializes and validates a schema.
func SchemaFromJSON(b []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return Schema{}, Wrap(ErrSchema, "invalid schema JSON", err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}
