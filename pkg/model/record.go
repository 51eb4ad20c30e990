package model

import (
	"errors"
	"fmt"
	"regexp"
)

// IDField is the reserved attribute name holding a record's unique identifier.
const IDField = "id"

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,64}$`)

// CheckRecordID reports whether id is a well-formed record identifier.
func CheckRecordID(id string) bool {
	return idRegex.MatchString(id)
}

// Record is a read-only key-value entity, represents a JSON object.
//
//	"id" field is reserved for the unique record identifier.
//
// The engine never mutates a Record. Callers that keep records in a
// mutable collection hand the engine an immutable snapshot instead
// (see pkg/collection).
type Record map[string]interface{}

func (r Record) GetID() string {
	if id, ok := r[IDField].(string); ok {
		return id
	}
	return ""
}

func (r Record) SetID(newID string) {
	r[IDField] = newID
}

func (r Record) HasKey(key string) bool {
	_, exists := r[key]
	return exists
}

// Clone returns a shallow copy. Attribute values are immutable scalars,
// so a shallow copy is a safe snapshot.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Record) ValidateRecord() error {
	if r == nil {
		return errors.New("record cannot be nil")
	}

	idVal, ok := r[IDField]
	if !ok {
		return errors.New("record field 'id' is required")
	}

	switch idValue := idVal.(type) {
	case string:
		if idValue == "" {
			return errors.New("record field 'id' cannot be empty")
		}
		if !idRegex.MatchString(idValue) {
			return errors.New("invalid 'id' field: must be 1-64 characters of a-z, A-Z, 0-9, _, ., -")
		}
	case int, int32, int64:
		r[IDField] = fmt.Sprintf("%d", idValue)
	default:
		return errors.New("record field 'id' must be a string or integer")
	}

	return nil
}
