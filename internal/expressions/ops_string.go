package expressions

import (
	"math"
	"strings"

	"github.com/rendis/logictree/pkg/tree"
)

// opCat concatenates string forms; null operands contribute nothing.
func opCat(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, v := range args {
		if _, isNull := v.(tree.Null); isNull {
			continue
		}
		b.WriteString(toJSString(v))
	}
	return tree.String(b.String()), nil
}

// opSubstr extracts [source, start, length?] by character. A negative start
// counts from the end; a negative length drops that many trailing characters.
func opSubstr(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	src := []rune(toJSString(at(args, 0)))
	size := len(src)

	start := clampIndex(toNumber(at(args, 1)), size)
	if start < 0 {
		start = max(size+start, 0)
	}
	start = min(start, size)
	rest := src[start:]

	if len(args) < 3 {
		return tree.String(string(rest)), nil
	}
	length := clampIndex(toNumber(args[2]), size)
	if length < 0 {
		length = max(len(rest)+length, 0)
	}
	length = min(length, len(rest))
	return tree.String(string(rest[:length])), nil
}

// clampIndex truncates f to an integer within [-size-1, size+1]; NaN is 0.
func clampIndex(f float64, size int) int {
	if math.IsNaN(f) {
		return 0
	}
	f = math.Trunc(f)
	limit := float64(size + 1)
	if f > limit {
		return size + 1
	}
	if f < -limit {
		return -(size + 1)
	}
	return int(f)
}
