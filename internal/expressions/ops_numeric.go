package expressions

import (
	"math"

	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// opAdd sums its operands with parseFloat coercion. A single array operand is
// summed element-wise.
func opAdd(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	terms := args
	if len(args) == 1 {
		if arr, ok := args[0].(tree.Array); ok {
			terms = arr
		}
	}

	sum := 0.0
	for _, v := range terms {
		sum += parseFloat(v)
	}
	return tree.Number(sum), nil
}

// opSubtract negates a single operand or subtracts the second from the first.
func opSubtract(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return tree.Number(-toNumber(at(args, 0))), nil
	}
	return tree.Number(toNumber(args[0]) - toNumber(args[1])), nil
}

func opMultiply(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return tree.Number(math.NaN()), nil
	}
	product := parseFloat(args[0])
	for _, v := range args[1:] {
		product *= parseFloat(v)
	}
	return tree.Number(product), nil
}

func opDivide(e *Evaluator, c *call) (tree.Value, error) {
	a, b, err := divisionOperands(e, c)
	if err != nil {
		return nil, err
	}
	return tree.Number(a / b), nil
}

// opModulo keeps the sign of the dividend.
func opModulo(e *Evaluator, c *call) (tree.Value, error) {
	a, b, err := divisionOperands(e, c)
	if err != nil {
		return nil, err
	}
	return tree.Number(math.Mod(a, b)), nil
}

func divisionOperands(e *Evaluator, c *call) (float64, float64, error) {
	args, err := c.all(e)
	if err != nil {
		return 0, 0, err
	}
	a, b := toNumber(at(args, 0)), toNumber(at(args, 1))
	if b == 0 {
		return 0, 0, c.fail(schema.ErrCodeDivisionByZero, "%s by zero", c.tag)
	}
	return a, b, nil
}

func opMin(e *Evaluator, c *call) (tree.Value, error) {
	return extremum(e, c, func(x, best float64) bool { return x < best })
}

func opMax(e *Evaluator, c *call) (tree.Value, error) {
	return extremum(e, c, func(x, best float64) bool { return x > best })
}

// extremum folds operands with Number coercion; any NaN operand wins.
func extremum(e *Evaluator, c *call, better func(x, best float64) bool) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, c.fail(schema.ErrCodeMissingOperand, "%s needs at least one operand", c.tag)
	}

	best := toNumber(args[0])
	for _, v := range args[1:] {
		x := toNumber(v)
		if math.IsNaN(x) {
			return tree.Number(math.NaN()), nil
		}
		if better(x, best) {
			best = x
		}
	}
	return tree.Number(best), nil
}

// lengthOp counts the characters of a number's decimal form: 12345 -> 5.
func lengthOp(args []tree.Value) (tree.Value, error) {
	v := at(args, 0)
	n, ok := v.(tree.Number)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeShapeMismatch,
			"length expects a number, got %s", v.Kind()).
			WithDetails(map[string]any{"tag": "length", "expected": "number", "got": v.Kind().String()})
	}
	return tree.Number(len(tree.FormatNumber(float64(n)))), nil
}
