package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRecordID(t *testing.T) {
	assert.True(t, CheckRecordID("abc-123_."))
	assert.True(t, CheckRecordID("1"))
	assert.False(t, CheckRecordID(""))
	assert.False(t, CheckRecordID("with space"))
	longID := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-.extra"
	assert.False(t, CheckRecordID(longID))
}

func TestRecord_GettersAndSetters(t *testing.T) {
	r := Record{}

	r.SetID("abc")
	assert.Equal(t, "abc", r.GetID())
	assert.True(t, r.HasKey("id"))
	assert.False(t, r.HasKey("status"))

	invalid := Record{"id": 123}
	assert.Equal(t, "", invalid.GetID())
}

func TestRecord_Clone(t *testing.T) {
	var nilRec Record
	assert.Nil(t, nilRec.Clone())

	r := Record{"id": "1", "status": "ACTIVE"}
	c := r.Clone()
	assert.Equal(t, r, c)

	c["status"] = "INACTIVE"
	assert.Equal(t, "ACTIVE", r["status"])
}

func TestRecord_ValidateRecord(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		var r Record
		assert.Error(t, r.ValidateRecord())
	})

	t.Run("missing id", func(t *testing.T) {
		r := Record{"status": "ACTIVE"}
		assert.Error(t, r.ValidateRecord())
	})

	t.Run("empty id", func(t *testing.T) {
		r := Record{"id": ""}
		assert.Error(t, r.ValidateRecord())
	})

	t.Run("invalid characters", func(t *testing.T) {
		r := Record{"id": "no/slashes"}
		assert.Error(t, r.ValidateRecord())
	})

	t.Run("integer id coerced", func(t *testing.T) {
		r := Record{"id": 42}
		assert.NoError(t, r.ValidateRecord())
		assert.Equal(t, "42", r.GetID())
	})

	t.Run("unsupported id type", func(t *testing.T) {
		r := Record{"id": 1.5}
		assert.Error(t, r.ValidateRecord())
	})

	t.Run("valid", func(t *testing.T) {
		r := Record{"id": "user-1", "status": "ACTIVE"}
		assert.NoError(t, r.ValidateRecord())
	})
}
