// Package search scores records against a free-text query over a
// configured set of text fields.
//
// Fields participate by role. A full field holds a complete value, like
// a display name, and is matched for exact equality or substring
// occurrence. A component field holds one piece of a larger logical
// value, like a family name, and is matched for exact equality or a
// leading prefix. Matching is case-insensitive; a record scoring zero
// did not match at all and is excluded from results.
package search

import (
	"fmt"
	"strings"

	"github.com/quirelab/quire/pkg/model"
)

// Relevance weights per match tier. A field scores the single best tier
// it reaches; a record's score sums its fields' contributions.
const (
	WeightExact     = 100
	WeightSubstring = 40
	WeightPrefix    = 25
)

// Role describes how a field's value is matched.
type Role string

const (
	// RoleFull matches exact values and substrings. The empty role means
	// full.
	RoleFull Role = "full"
	// RoleComponent matches exact values and leading prefixes.
	RoleComponent Role = "component"
)

// IsValid checks if the role is valid.
func (r Role) IsValid() bool {
	switch r {
	case RoleFull, RoleComponent, "":
		return true
	}
	return false
}

// Field names one searchable attribute and its matching role.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Role Role   `json:"role,omitempty" yaml:"role,omitempty"`
}

// Config lists the fields a query is scored against. Non-string values
// in those fields are skipped.
type Config struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// Validate checks that every configured field is a text field of the
// schema with a known role.
func (c Config) Validate(schema model.Schema) error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: search config has no fields", model.ErrValidation)
	}
	for _, f := range c.Fields {
		kind, ok := schema.Kind(f.Name)
		if !ok {
			return fmt.Errorf("%w: unknown search field %q", model.ErrValidation, f.Name)
		}
		if kind != model.KindString {
			return fmt.Errorf("%w: search field %q is not a text field", model.ErrValidation, f.Name)
		}
		if !f.Role.IsValid() {
			return fmt.Errorf("%w: search field %q has unknown role %q", model.ErrValidation, f.Name, f.Role)
		}
	}
	return nil
}

// Score returns the weighted relevance of a record for the query, zero
// when no configured field matches.
func Score(query string, r model.Record, cfg Config) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	total := 0
	for _, field := range cfg.Fields {
		value, ok := r[field.Name].(string)
		if !ok {
			continue
		}
		total += fieldScore(q, strings.ToLower(value), field.Role)
	}
	return total
}

// fieldScore grades one field value against the lowercased query,
// returning the best tier only so a single field never stacks tiers.
func fieldScore(q, value string, role Role) int {
	if value == q {
		return WeightExact
	}
	if role == RoleComponent {
		if strings.HasPrefix(value, q) {
			return WeightPrefix
		}
		return 0
	}
	if strings.Contains(value, q) {
		return WeightSubstring
	}
	return 0
}
