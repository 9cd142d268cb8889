package expressions

import "github.com/rendis/logictree/pkg/tree"

// opIf walks [cond, then, cond, then, ..., else] and evaluates only the
// selected branch.
func opIf(e *Evaluator, c *call) (tree.Value, error) {
	i := 0
	for ; i+1 < len(c.operands); i += 2 {
		cond, err := c.arg(e, i)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return c.arg(e, i+1)
		}
	}
	if i == len(c.operands)-1 {
		return c.arg(e, i)
	}
	return tree.Null{}, nil
}

// opAnd returns the first falsy operand, or the last one.
func opAnd(e *Evaluator, c *call) (tree.Value, error) {
	var current tree.Value = tree.Null{}
	for i := range c.operands {
		v, err := c.arg(e, i)
		if err != nil {
			return nil, err
		}
		current = v
		if !truthy(current) {
			return current, nil
		}
	}
	return current, nil
}

// opOr returns the first truthy operand, or the last one.
func opOr(e *Evaluator, c *call) (tree.Value, error) {
	var current tree.Value = tree.Null{}
	for i := range c.operands {
		v, err := c.arg(e, i)
		if err != nil {
			return nil, err
		}
		current = v
		if truthy(current) {
			return current, nil
		}
	}
	return current, nil
}

func opNot(e *Evaluator, c *call) (tree.Value, error) {
	v, err := c.arg(e, 0)
	if err != nil {
		return nil, err
	}
	return tree.Bool(!truthy(v)), nil
}

func opTruthy(e *Evaluator, c *call) (tree.Value, error) {
	v, err := c.arg(e, 0)
	if err != nil {
		return nil, err
	}
	return tree.Bool(truthy(v)), nil
}

// binary adapts a two-operand function. Both operands are evaluated first.
func binary(fn func(a, b tree.Value) tree.Value) builtinFunc {
	return func(e *Evaluator, c *call) (tree.Value, error) {
		args, err := c.all(e)
		if err != nil {
			return nil, err
		}
		return fn(at(args, 0), at(args, 1)), nil
	}
}

// between adapts < and <=: two operands compare, three test a < b < c.
func between(less func(a, b tree.Value) bool) builtinFunc {
	return func(e *Evaluator, c *call) (tree.Value, error) {
		args, err := c.all(e)
		if err != nil {
			return nil, err
		}
		if len(args) >= 3 {
			return tree.Bool(less(args[0], args[1]) && less(args[1], args[2])), nil
		}
		return tree.Bool(less(at(args, 0), at(args, 1))), nil
	}
}

// at returns args[i], or Null when the operand is absent.
func at(args []tree.Value, i int) tree.Value {
	if i < len(args) {
		return tree.OrNull(args[i])
	}
	return tree.Null{}
}
