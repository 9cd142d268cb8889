package expressions

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/rendis/logictree/pkg/tree"
)

// Value coercions follow the JavaScript abstract operations the rule
// language was defined against (ToBoolean, ToNumber, ToString, parseFloat).

// truthy reports the truthiness of v. Empty arrays are falsy.
func truthy(v tree.Value) bool {
	switch n := tree.OrNull(v).(type) {
	case tree.Null:
		return false
	case tree.Bool:
		return bool(n)
	case tree.Number:
		f := float64(n)
		return f != 0 && !math.IsNaN(f)
	case tree.String:
		return n != ""
	case tree.Array:
		return len(n) > 0
	}
	return true
}

func isObjectLike(v tree.Value) bool {
	switch v.(type) {
	case tree.Array, tree.Object, tree.Operation:
		return true
	}
	return false
}

// toJSString renders v the way String(v) does.
func toJSString(v tree.Value) string {
	switch n := tree.OrNull(v).(type) {
	case tree.Null:
		return "null"
	case tree.Bool:
		if n {
			return "true"
		}
		return "false"
	case tree.Number:
		return tree.FormatNumber(float64(n))
	case tree.String:
		return string(n)
	case tree.Array:
		return joinArray(n, ",")
	}
	return "[object Object]"
}

// joinArray mirrors Array.prototype.join: null elements become empty strings.
func joinArray(arr tree.Array, sep string) string {
	parts := make([]string, len(arr))
	for i, el := range arr {
		if _, isNull := tree.OrNull(el).(tree.Null); isNull {
			continue
		}
		parts[i] = toJSString(el)
	}
	return strings.Join(parts, sep)
}

// toPrimitive reduces arrays and objects to their string form.
func toPrimitive(v tree.Value) tree.Value {
	if isObjectLike(v) {
		return tree.String(toJSString(v))
	}
	return tree.OrNull(v)
}

// toNumber implements Number(v).
func toNumber(v tree.Value) float64 {
	switch n := tree.OrNull(v).(type) {
	case tree.Null:
		return 0
	case tree.Bool:
		if n {
			return 1
		}
		return 0
	case tree.Number:
		return float64(n)
	case tree.String:
		return stringToNumber(string(n))
	case tree.Array:
		return stringToNumber(toJSString(n))
	}
	return math.NaN()
}

func isJSSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func stringToNumber(s string) float64 {
	s = strings.TrimFunc(s, isJSSpace)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(u)
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}
	return parseDecimal(s)
}

// parseFloat implements the global parseFloat: the longest decimal prefix of
// the value's string form, or NaN when there is none.
func parseFloat(v tree.Value) float64 {
	if n, ok := tree.OrNull(v).(tree.Number); ok {
		return float64(n)
	}
	s := strings.TrimLeftFunc(toJSString(v), isJSSpace)

	i := 0
	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if negative {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return parseDecimal(s[:i])
}

func parseDecimal(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// looseEqual implements ==.
func looseEqual(a, b tree.Value) bool {
	a, b = tree.OrNull(a), tree.OrNull(b)
	if a.Kind() == b.Kind() || (isObjectLike(a) && isObjectLike(b)) {
		return strictEqual(a, b)
	}

	_, aNull := a.(tree.Null)
	_, bNull := b.(tree.Null)
	if aNull || bNull {
		return false
	}

	switch {
	case a.Kind() == tree.KindNumber && b.Kind() == tree.KindString:
		return float64(a.(tree.Number)) == stringToNumber(string(b.(tree.String)))
	case a.Kind() == tree.KindString && b.Kind() == tree.KindNumber:
		return stringToNumber(string(a.(tree.String))) == float64(b.(tree.Number))
	case a.Kind() == tree.KindBool:
		return looseEqual(tree.Number(toNumber(a)), b)
	case b.Kind() == tree.KindBool:
		return looseEqual(a, tree.Number(toNumber(b)))
	case isObjectLike(a):
		return looseEqual(toPrimitive(a), b)
	case isObjectLike(b):
		return looseEqual(a, toPrimitive(b))
	}
	return false
}

// strictEqual implements ===, except that arrays and objects compare by
// structure because trees carry no identity.
func strictEqual(a, b tree.Value) bool {
	a, b = tree.OrNull(a), tree.OrNull(b)
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case tree.Null:
		return true
	case tree.Bool:
		return x == b.(tree.Bool)
	case tree.Number:
		return float64(x) == float64(b.(tree.Number))
	case tree.String:
		return x == b.(tree.String)
	case tree.Array:
		y := b.(tree.Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !strictEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case tree.Object:
		y := b.(tree.Object)
		if len(x) != len(y) {
			return false
		}
		for _, f := range x {
			other, ok := y.Get(f.Key)
			if !ok || !strictEqual(f.Value, other) {
				return false
			}
		}
		return true
	case tree.Operation:
		y := b.(tree.Operation)
		return x.Tag == y.Tag && strictEqual(x.Args, y.Args)
	}
	return false
}

// lessThan implements a < b: strings compare by code point when both sides
// are strings, everything else numerically. NaN is never ordered.
func lessThan(a, b tree.Value) bool {
	pa, pb := toPrimitive(a), toPrimitive(b)
	if sa, ok := pa.(tree.String); ok {
		if sb, ok := pb.(tree.String); ok {
			return sa < sb
		}
	}
	return toNumber(pa) < toNumber(pb)
}

// lessOrEqual implements a <= b.
func lessOrEqual(a, b tree.Value) bool {
	pa, pb := toPrimitive(a), toPrimitive(b)
	if sa, ok := pa.(tree.String); ok {
		if sb, ok := pb.(tree.String); ok {
			return sa <= sb
		}
	}
	return toNumber(pa) <= toNumber(pb)
}
