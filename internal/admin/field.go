package admin

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldPassword    FieldType = "password"
	FieldCheckbox    FieldType = "checkbox"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
)

type Option struct {
	Value string
	Label string
}

// Column is one cell of the list view.
type Column[T Model] struct {
	Header string
	Value  func(*T) string
}

// Field is one input of the create/edit form. Get returns the current
// values for display; Set parses submitted values into the record.
type Field[T Model] struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	// Unique names the column that must not hold this value on another record.
	Unique  string
	MaxLen  int
	Get     func(*T) []string
	Set     func(*T, []string) error
	Options func() ([]Option, error)
}

func (f Field[T]) Require() Field[T] {
	f.Required = true
	return f
}

func (f Field[T]) UniqueOn(column string) Field[T] {
	f.Unique = column
	return f
}

func (f Field[T]) Max(n int) Field[T] {
	f.MaxLen = n
	return f
}

func StringField[T Model](name, label string, ptr func(*T) *string) Field[T] {
	return Field[T]{
		Name:  name,
		Label: label,
		Type:  FieldText,
		Get:   func(rec *T) []string { return []string{*ptr(rec)} },
		Set: func(rec *T, vals []string) error {
			*ptr(rec) = strings.TrimSpace(first(vals))
			return nil
		},
	}
}

// OptionalIntField maps an empty input to nil.
func OptionalIntField[T Model](name, label string, ptr func(*T) **int) Field[T] {
	return Field[T]{
		Name:  name,
		Label: label,
		Type:  FieldNumber,
		Get: func(rec *T) []string {
			if p := *ptr(rec); p != nil {
				return []string{strconv.Itoa(*p)}
			}
			return nil
		},
		Set: func(rec *T, vals []string) error {
			raw := strings.TrimSpace(first(vals))
			if raw == "" {
				*ptr(rec) = nil
				return nil
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: not a valid integer value", label)
			}
			*ptr(rec) = &n
			return nil
		},
	}
}

// BoolField is a checkbox; an unchecked box submits nothing.
func BoolField[T Model](name, label string, ptr func(*T) *bool) Field[T] {
	return Field[T]{
		Name:  name,
		Label: label,
		Type:  FieldCheckbox,
		Get: func(rec *T) []string {
			if *ptr(rec) {
				return []string{"y"}
			}
			return nil
		},
		Set: func(rec *T, vals []string) error {
			switch strings.ToLower(first(vals)) {
			case "y", "on", "true", "1":
				*ptr(rec) = true
			default:
				*ptr(rec) = false
			}
			return nil
		},
	}
}

// validate applies the declarative rules before Set runs.
func (f Field[T]) validate(vals []string) string {
	v := strings.TrimSpace(first(vals))
	if f.Required && v == "" && f.Type != FieldMultiSelect {
		return f.Label + " is required."
	}
	if f.Required && f.Type == FieldMultiSelect && len(vals) == 0 {
		return f.Label + " is required."
	}
	if f.MaxLen > 0 && utf8.RuneCountInString(v) > f.MaxLen {
		return fmt.Sprintf("%s must be at most %d characters.", f.Label, f.MaxLen)
	}
	return ""
}

func parseIDs(vals []string) ([]uint, error) {
	ids := make([]uint, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid id %q", v)
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
