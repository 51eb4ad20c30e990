package ordering

import (
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/quirelab/quire/pkg/model"
)

// Key is the tuple of a record's sort-key values under an effective spec,
// identifier last (unless the spec sorts by identifier explicitly).
type Key []interface{}

// Compare orders two records under the effective spec. Fields apply left
// to right; the first pair that distinguishes a and b decides. Returns
// -1, 0 or +1, and 0 only when a and b are the same record.
func (s Spec) Compare(a, b model.Record) int {
	for _, f := range s.Effective() {
		cmp := compareField(f.Field, fieldValue(a, f.Field), fieldValue(b, f.Field))
		if f.Direction == Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

// Sort orders records in place under the effective spec. The comparator
// is total, so the result is deterministic regardless of input order.
func (s Spec) Sort(records []model.Record) {
	eff := s.Effective()
	sort.Slice(records, func(i, j int) bool {
		return eff.compareEffective(records[i], records[j]) < 0
	})
}

// compareEffective is Compare without re-deriving the effective spec,
// for use in sort loops.
func (s Spec) compareEffective(a, b model.Record) int {
	for _, f := range s {
		cmp := compareField(f.Field, fieldValue(a, f.Field), fieldValue(b, f.Field))
		if f.Direction == Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

// Key extracts the record's sort-key tuple under the effective spec.
func (s Spec) Key(r model.Record) Key {
	eff := s.Effective()
	key := make(Key, len(eff))
	for i, f := range eff {
		key[i] = fieldValue(r, f.Field)
	}
	return key
}

// CompareKey orders a decoded key tuple against a record under the
// effective spec. The tuple's arity must equal the effective spec's
// length; callers check that before descending here.
func (s Spec) CompareKey(k Key, r model.Record) int {
	eff := s.Effective()
	for i, f := range eff {
		cmp := compareField(f.Field, model.NormalizeValue(k[i]), fieldValue(r, f.Field))
		if f.Direction == Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

// Fingerprint hashes the effective field/direction sequence into the
// 8-byte context tag cursors carry, so a cursor minted under one sort
// order is recognized when replayed under another.
func (s Spec) Fingerprint() []byte {
	var b strings.Builder
	for _, f := range s.Effective() {
		b.WriteString(f.Field)
		b.WriteByte(':')
		b.WriteString(string(f.Direction))
		b.WriteByte('\n')
	}
	sum := blake3.Sum256([]byte(b.String()))
	return sum[:8]
}

func fieldValue(r model.Record, field string) interface{} {
	return model.NormalizeValue(r[field])
}

// compareField applies the identifier's natural order when comparing the
// id field and the cross-type value order everywhere else.
func compareField(field string, a, b interface{}) int {
	if field == model.IDField {
		as, aOK := a.(string)
		bs, bOK := b.(string)
		if aOK && bOK {
			return model.CompareIDs(as, bs)
		}
	}
	return model.CompareValues(a, b)
}
