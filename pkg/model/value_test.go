package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, nil},
		{"int", 7, int64(7)},
		{"int8", int8(-3), int64(-3)},
		{"int16", int16(300), int64(300)},
		{"int32", int32(-70000), int64(-70000)},
		{"int64", int64(9), int64(9)},
		{"uint", uint(7), int64(7)},
		{"uint8", uint8(255), int64(255)},
		{"uint16", uint16(65535), int64(65535)},
		{"uint32", uint32(4000000000), int64(4000000000)},
		{"uint64 in range", uint64(12), int64(12)},
		{"uint64 overflow", uint64(math.MaxUint64), float64(math.MaxUint64)},
		{"float32", float32(1.5), float64(1.5)},
		{"float64", 2.25, 2.25},
		{"json int", json.Number("42"), int64(42)},
		{"json float", json.Number("4.5"), 4.5},
		{"json garbage", json.Number("x"), "x"},
		{"string", "abc", "abc"},
		{"bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeValue(tt.in))
		})
	}

	ts := time.Unix(100, 0)
	assert.Equal(t, ts, NormalizeValue(ts))
}

func TestIsComparable(t *testing.T) {
	assert.True(t, IsComparable(nil))
	assert.True(t, IsComparable(true))
	assert.True(t, IsComparable(int64(1)))
	assert.True(t, IsComparable(1.5))
	assert.True(t, IsComparable("s"))
	assert.True(t, IsComparable(time.Now()))
	assert.False(t, IsComparable([]string{"s"}))
	assert.False(t, IsComparable(map[string]int{}))
	assert.False(t, IsComparable(7)) // raw int is pre-normalization
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(int64(1))
	assert.True(t, ok)
	assert.Equal(t, KindInt, k)

	k, ok = KindOf(time.Now())
	assert.True(t, ok)
	assert.Equal(t, KindTime, k)

	_, ok = KindOf(nil)
	assert.False(t, ok)
	_, ok = KindOf([]int{1})
	assert.False(t, ok)
}

func TestCompareValues_CrossClass(t *testing.T) {
	// nil < bool < number < string
	ordered := []interface{}{nil, false, true, int64(-5), 2.5, time.Unix(10, 0), "a"}
	for i := range ordered {
		for j := range ordered {
			got := CompareValues(ordered[i], ordered[j])
			switch {
			case i < j:
				assert.Equal(t, -1, got, "expected %v < %v", ordered[i], ordered[j])
			case i > j:
				assert.Equal(t, 1, got, "expected %v > %v", ordered[i], ordered[j])
			default:
				assert.Equal(t, 0, got)
			}
		}
	}
}

func TestCompareValues_Numbers(t *testing.T) {
	assert.Equal(t, 0, CompareValues(int64(3), 3.0))
	assert.Equal(t, -1, CompareValues(int64(3), 3.5))
	assert.Equal(t, 1, CompareValues(4.5, int64(4)))

	// timestamps compare at epoch milliseconds
	early := time.Unix(100, 0)
	late := time.Unix(200, 0)
	assert.Equal(t, -1, CompareValues(early, late))
	assert.Equal(t, 0, CompareValues(early, int64(100_000)))

	// large int64 pairs compare exactly, not through float64
	a := int64(math.MaxInt64)
	b := int64(math.MaxInt64 - 1)
	assert.Equal(t, 1, CompareValues(a, b))
}

func TestCompareStrings(t *testing.T) {
	assert.Equal(t, 0, CompareStrings("Hello", "hello"))
	assert.Equal(t, -1, CompareStrings("apple", "banana"))
	assert.Equal(t, 1, CompareStrings("Banana", "apple"))
	assert.Equal(t, -1, CompareStrings("abc", "abcd"))
	assert.Equal(t, 0, CompareStrings("", ""))
	assert.Equal(t, -1, CompareStrings("", "a"))
}

func TestCompareIDs_Natural(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2", "10", -1},
		{"10", "100", -1},
		{"9", "10", -1},
		{"150", "150", 0},
		{"user-2", "user-10", -1},
		{"user-10", "user-2", 1},
		{"1z", "2", -1},
		{"1z", "10", -1},
		{"a", "b", -1},
		{"abc", "abd", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareIDs(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestCompareIDs_Strict(t *testing.T) {
	// Numeric ties broken by padding, case ties by exact bytes. Distinct
	// identifiers never compare equal.
	assert.Equal(t, -1, CompareIDs("01", "1"))
	assert.Equal(t, 1, CompareIDs("1", "01"))
	assert.NotEqual(t, 0, CompareIDs("A", "a"))
	assert.Equal(t, 0, CompareIDs("a", "a"))
}

func TestCompareIDs_SortOrder(t *testing.T) {
	// Decimal-string identifiers sort numerically under natural order.
	ids := []string{"100", "2", "11", "1", "20", "3"}
	want := []string{"1", "2", "3", "11", "20", "100"}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if CompareIDs(ids[i], ids[j]) > 0 {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	assert.Equal(t, want, ids)
}
