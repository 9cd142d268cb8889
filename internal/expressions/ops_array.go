package expressions

import (
	"strings"

	"github.com/rendis/logictree/pkg/tree"
)

// The body of map, filter and reduce is evaluated once per element with the
// element as the whole context.

func opMap(e *Evaluator, c *call) (tree.Value, error) {
	src, err := c.arg(e, 0)
	if err != nil {
		return nil, err
	}
	arr, ok := src.(tree.Array)
	if !ok {
		return tree.Array{}, nil
	}

	out := make(tree.Array, 0, len(arr))
	for _, el := range arr {
		v, err := c.argIn(e, 1, tree.OrNull(el))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func opFilter(e *Evaluator, c *call) (tree.Value, error) {
	src, err := c.arg(e, 0)
	if err != nil {
		return nil, err
	}
	arr, ok := src.(tree.Array)
	if !ok {
		return tree.Array{}, nil
	}

	out := tree.Array{}
	for _, el := range arr {
		keep, err := c.argIn(e, 1, tree.OrNull(el))
		if err != nil {
			return nil, err
		}
		if truthy(keep) {
			out = append(out, el)
		}
	}
	return out, nil
}

// opReduce folds [source, body, initial?]; the body sees
// {"current": element, "accumulator": acc}.
func opReduce(e *Evaluator, c *call) (tree.Value, error) {
	src, err := c.arg(e, 0)
	if err != nil {
		return nil, err
	}
	var acc tree.Value = tree.Null{}
	if len(c.operands) > 2 {
		if acc, err = c.arg(e, 2); err != nil {
			return nil, err
		}
	}
	arr, ok := src.(tree.Array)
	if !ok {
		return acc, nil
	}

	for _, el := range arr {
		scope := tree.Object{
			{Key: "current", Value: tree.OrNull(el)},
			{Key: "accumulator", Value: acc},
		}
		if acc, err = c.argIn(e, 1, scope); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// opMerge flattens array operands one level.
func opMerge(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	out := tree.Array{}
	for _, v := range args {
		if arr, ok := v.(tree.Array); ok {
			out = append(out, arr...)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// opIn tests array membership (strict equality) or substring containment.
// Any other haystack, including a missing one, contains nothing.
func opIn(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	needle, haystack := at(args, 0), at(args, 1)

	switch h := haystack.(type) {
	case tree.Array:
		for _, el := range h {
			if strictEqual(needle, el) {
				return tree.Bool(true), nil
			}
		}
		return tree.Bool(false), nil
	case tree.String:
		return tree.Bool(strings.Contains(string(h), toJSString(needle))), nil
	}
	return tree.Bool(false), nil
}
