package domain

import "time"

// FieldType is the closed set of custom-field input types a category may
// declare. Stored strings outside the set parse to FieldUnknown, which
// renders as plain text and skips type validation.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldCheckbox FieldType = "checkbox"
	FieldUnknown  FieldType = "unknown"
)

// ParseFieldType maps a stored string onto the field-type enumeration.
func ParseFieldType(s string) FieldType {
	switch FieldType(s) {
	case FieldText, FieldNumber, FieldSelect, FieldTextarea, FieldCheckbox:
		return FieldType(s)
	default:
		return FieldUnknown
	}
}

// CustomField describes one category-specific input on a listing form.
type CustomField struct {
	Name     string    `json:"name" bson:"name"`
	Label    string    `json:"label" bson:"label"`
	Type     FieldType `json:"type" bson:"type"`
	Required bool      `json:"required" bson:"required"`
	Options  []string  `json:"options,omitempty" bson:"options,omitempty"`
}

// Category is a taxonomy node. ParentID links it into a tree; Slug is the
// URL identifier and must be unique across all categories.
type Category struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	Title        string        `json:"title" bson:"title"`
	Slug         string        `json:"slug" bson:"slug"`
	ParentID     string        `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty" bson:"custom_fields,omitempty"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

// ValidateCustomData checks a listing's custom payload against this
// category's field definitions: required fields must be present and
// non-empty, values must match the declared type, and select values must be
// one of the declared options. Keys without a definition are allowed
// through untouched.
func (c *Category) ValidateCustomData(data map[string]any) error {
	for _, f := range c.CustomFields {
		v, ok := data[f.Name]
		if !ok || v == nil || v == "" {
			if f.Required {
				return &CustomDataError{Field: f.Name, Reason: "required"}
			}
			continue
		}

		switch f.Type {
		case FieldText, FieldTextarea:
			if _, ok := v.(string); !ok {
				return &CustomDataError{Field: f.Name, Reason: "expected text"}
			}
		case FieldNumber:
			switch v.(type) {
			case float64, float32, int, int32, int64:
			default:
				return &CustomDataError{Field: f.Name, Reason: "expected number"}
			}
		case FieldCheckbox:
			if _, ok := v.(bool); !ok {
				return &CustomDataError{Field: f.Name, Reason: "expected boolean"}
			}
		case FieldSelect:
			s, ok := v.(string)
			if !ok {
				return &CustomDataError{Field: f.Name, Reason: "expected option"}
			}
			if !contains(f.Options, s) {
				return &CustomDataError{Field: f.Name, Reason: "not an allowed option"}
			}
		case FieldUnknown:
			// Unrecognized definition: accept anything.
		}
	}
	return nil
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}
