package expr

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// CompareValues orders two canonical values of the same kind. It reports
// false when the values are of different or unordered kinds, and when
// either float is NaN.
func CompareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case int64:
		y, ok := b.(int64)
		return compareOrdered(x, y), ok
	case uint64:
		y, ok := b.(uint64)
		return compareOrdered(x, y), ok
	case float64:
		y, ok := b.(float64)
		if !ok || math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		return compareOrdered(x, y), true
	case string:
		y, ok := b.(string)
		return compareOrdered(x, y), ok
	case rune:
		y, ok := b.(rune)
		return compareOrdered(x, y), ok
	case bool:
		y, ok := b.(bool)
		return compareBool(x, y), ok
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		if !ok {
			return 0, false
		}
		return x.Cmp(y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x[:], y[:]), true
	default:
		return 0, false
	}
}

// EqualValues reports whether two canonical values are equal. Two nils are
// equal; nil never equals a value.
func EqualValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	c, ok := CompareValues(a, b)
	return ok && c == 0
}

// Order is a total order over canonical values used for sorting: nil sorts
// first (a NaN float sorts with nil, the way SQLite stores it), values of
// the same kind use CompareValues, and mismatched kinds fall back to
// their formatted representation.
func Order(a, b any) int {
	a, b = nanAsNil(a), nanAsNil(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := CompareValues(a, b); ok {
		return c
	}
	return compareOrdered(fmt.Sprintf("%T:%v", a, a), fmt.Sprintf("%T:%v", b, b))
}

func nanAsNil(v any) any {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil
	}
	return v
}
