package expressions

import (
	"strings"

	"github.com/rendis/logictree/pkg/tree"
)

// opVar resolves [name, default?] against the context.
func opVar(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	var fallback tree.Value = tree.Null{}
	if len(args) > 1 {
		fallback = tree.OrNull(args[1])
	}
	return lookupVar(c.data, at(args, 0), fallback), nil
}

// lookupVar walks a dot-delimited name through data. Null or "" names return
// the whole context; a segment that does not resolve yields fallback.
func lookupVar(data, name, fallback tree.Value) tree.Value {
	switch n := tree.OrNull(name).(type) {
	case tree.Null:
		return data
	case tree.String:
		if n == "" {
			return data
		}
	}

	current := data
	for _, seg := range strings.Split(toJSString(name), ".") {
		if _, isNull := tree.OrNull(current).(tree.Null); isNull {
			return fallback
		}
		next, ok := dataChild(current, seg)
		if !ok {
			return fallback
		}
		current = next
	}
	return tree.OrNull(current)
}

func dataChild(v tree.Value, seg string) (tree.Value, bool) {
	if arr, ok := v.(tree.Array); ok {
		i, ok := tree.Key(seg).AsIndex()
		if !ok || i >= len(arr) {
			return nil, false
		}
		return arr[i], true
	}
	return tree.Lookup(v, seg)
}

// missingKeys returns the keys whose lookup is Null or "".
func missingKeys(data tree.Value, keys []tree.Value) tree.Array {
	missing := tree.Array{}
	for _, key := range keys {
		v := lookupVar(data, key, tree.Null{})
		switch x := v.(type) {
		case tree.Null:
			missing = append(missing, key)
		case tree.String:
			if x == "" {
				missing = append(missing, key)
			}
		}
	}
	return missing
}

// opMissing lists absent keys. A first operand that is an array is the key list.
func opMissing(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	keys := args
	if len(args) > 0 {
		if arr, ok := args[0].(tree.Array); ok {
			keys = arr
		}
	}
	return missingKeys(c.data, keys), nil
}

// opMissingSome returns [] when at least min keys are present, otherwise the
// missing keys.
func opMissingSome(e *Evaluator, c *call) (tree.Value, error) {
	args, err := c.all(e)
	if err != nil {
		return nil, err
	}
	need := toNumber(at(args, 0))
	options, ok := at(args, 1).(tree.Array)
	if !ok {
		options = tree.Array{at(args, 1)}
	}

	missing := missingKeys(c.data, options)
	if float64(len(options)-len(missing)) >= need {
		return tree.Array{}, nil
	}
	return missing, nil
}
