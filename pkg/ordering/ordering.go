// Package ordering turns a list of (field, direction) pairs into a strict
// total order over records. The unique identifier field is appended as a
// final ascending tiebreaker whenever the caller's spec does not already
// include it, so no two distinct records ever compare equal. That property
// is what keeps cursors well-defined when primary sort keys collide.
package ordering

import (
	"fmt"

	"github.com/quirelab/quire/pkg/model"
)

// Direction specifies sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid checks if the direction is valid. The empty direction is
// accepted as shorthand for ascending; Normalize resolves it.
func (d Direction) IsValid() bool {
	switch d {
	case Asc, Desc, "":
		return true
	}
	return false
}

// Field is a single ordering component.
type Field struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction,omitempty"`
}

// Spec is an ordered list of sort fields, applied left to right.
type Spec []Field

// Normalize returns a copy with empty directions resolved to ascending.
func (s Spec) Normalize() Spec {
	out := make(Spec, len(s))
	for i, f := range s {
		out[i] = f
		if out[i].Direction == "" {
			out[i].Direction = Asc
		}
	}
	return out
}

// Effective returns the spec that actually orders records: the caller's
// fields plus the identifier tiebreaker, unless the caller already sorts
// by it. Fields listed after an explicit identifier can never influence
// the order and are kept as-is.
func (s Spec) Effective() Spec {
	normalized := s.Normalize()
	for _, f := range normalized {
		if f.Field == model.IDField {
			return normalized
		}
	}
	return append(normalized, Field{Field: model.IDField, Direction: Asc})
}

// Validate checks the spec against a schema.
func (s Spec) Validate(schema model.Schema) error {
	for _, f := range s {
		if f.Field == "" {
			return fmt.Errorf("%w: sort field cannot be empty", model.ErrValidation)
		}
		if !schema.Has(f.Field) {
			return fmt.Errorf("%w: unknown sort field %q", model.ErrValidation, f.Field)
		}
		if !f.Direction.IsValid() {
			return fmt.Errorf("%w: sort direction %q must be asc or desc", model.ErrValidation, f.Direction)
		}
	}
	return nil
}
