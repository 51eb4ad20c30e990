package model

import "fmt"

// Kind defines the attribute types a schema field may declare.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
)

// IsValid checks if the kind is valid.
func (k Kind) IsValid() bool {
	switch k {
	case KindString, KindInt, KindFloat, KindBool, KindTime:
		return true
	}
	return false
}

// Orderable reports whether values of this kind support range comparison.
func (k Kind) Orderable() bool {
	switch k {
	case KindString, KindInt, KindFloat, KindTime:
		return true
	}
	return false
}

// Schema maps attribute names to their declared kinds. Filter and sort
// specifications are validated against it; fields outside the schema
// fail closed.
type Schema map[string]Kind

// NewSchema builds a schema from the given fields, forcing the
// identifier field to be present and string-kinded.
func NewSchema(fields map[string]Kind) Schema {
	s := make(Schema, len(fields)+1)
	for name, kind := range fields {
		s[name] = kind
	}
	s[IDField] = KindString
	return s
}

// Kind returns the declared kind of field.
func (s Schema) Kind(field string) (Kind, bool) {
	k, ok := s[field]
	return k, ok
}

// Has reports whether field is part of the schema.
func (s Schema) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Validate checks structural soundness: a present, string-kinded
// identifier and valid kinds throughout.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: schema has no fields", ErrValidation)
	}
	if k, ok := s[IDField]; !ok || k != KindString {
		return fmt.Errorf("%w: schema must declare %q as %s", ErrValidation, IDField, KindString)
	}
	for name, kind := range s {
		if name == "" {
			return fmt.Errorf("%w: schema field name cannot be empty", ErrValidation)
		}
		if !kind.IsValid() {
			return fmt.Errorf("%w: field %q has unknown kind %q", ErrValidation, name, kind)
		}
	}
	return nil
}
