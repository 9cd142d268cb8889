package tree

import "math"

// Equal reports deep structural equality. Object field order is ignored and
// NaN equals NaN, so Equal is suitable for comparing trees, not for the
// evaluator's equality operators.
func Equal(a, b Value) bool {
	a, b = OrNull(a), OrNull(b)
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Number:
		y := b.(Number)
		if math.IsNaN(float64(x)) && math.IsNaN(float64(y)) {
			return true
		}
		return x == y
	case String:
		return x == b.(String)
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y := b.(Object)
		if len(x) != len(y) {
			return false
		}
		for _, f := range x {
			other, ok := y.Get(f.Key)
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	case Operation:
		y := b.(Operation)
		return x.Tag == y.Tag && Equal(x.Args, y.Args)
	}
	return false
}
