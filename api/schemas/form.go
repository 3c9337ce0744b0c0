package schemas

import "fmt"

// FieldType enumerates the input widgets a declarative form may contain. The
// set is closed: schemas produced by the form architect are validated against
// it before they reach a renderer.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// IsValidFieldType reports whether t is a member of the closed field type set.
func IsValidFieldType(t FieldType) bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldTextarea, FieldSelect, FieldCheckbox:
		return true
	}
	return false
}

// FormField describes a single input in a declarative form.
type FormField struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"` // Choices for select fields.
}

// FormSchema is the declarative form description produced by the form
// architect and consumed by a generic form renderer.
type FormSchema struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	SubmitLabel string      `json:"submitLabel"`
	Fields      []FormField `json:"fields"`
}

// Validate checks structural invariants the form renderer depends on: a
// non-empty title, at least one field, unique field names, known field types,
// and options present on every select field.
func (s *FormSchema) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("form schema is missing a title")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("form schema %q has no fields", s.Title)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, field := range s.Fields {
		if field.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("duplicate field name %q", field.Name)
		}
		seen[field.Name] = struct{}{}
		if !IsValidFieldType(field.Type) {
			return fmt.Errorf("field %q has unknown type %q", field.Name, field.Type)
		}
		if field.Type == FieldSelect && len(field.Options) == 0 {
			return fmt.Errorf("select field %q has no options", field.Name)
		}
	}
	return nil
}
