package tree

// Get resolves path against root. It reports false when a step does not
// resolve: a key that is not the node's tag or field, an index out of range,
// or a step into a scalar.
func Get(root Value, path Path) (Value, bool) {
	cur := OrNull(root)
	for _, step := range path {
		next, ok := child(cur, step)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func child(node Value, step Step) (Value, bool) {
	switch n := node.(type) {
	case Operation:
		if k, ok := step.AsKey(); ok && k == n.Tag {
			return OrNull(n.Args), true
		}
	case Array:
		if i, ok := step.AsIndex(); ok && i < len(n) {
			return OrNull(n[i]), true
		}
	case Object:
		if k, ok := step.AsKey(); ok {
			return n.Get(k)
		}
	}
	return nil, false
}

// Set returns a tree where the node at path is replaced by value. Only the
// nodes along path are rebuilt; root is never modified.
//
// The only growth allowed is appending to an existing array (final index ==
// len) and giving the empty tree its root operation (single key step). Any
// other unresolvable path returns root unchanged.
func Set(root Value, path Path, value Value) Value {
	if out, ok := setAt(OrNull(root), path, OrNull(value)); ok {
		return out
	}
	return root
}

func setAt(node Value, path Path, value Value) (Value, bool) {
	if len(path) == 0 {
		return value, true
	}
	step, rest := path[0], path[1:]

	switch n := node.(type) {
	case Operation:
		k, ok := step.AsKey()
		if !ok || k != n.Tag {
			return nil, false
		}
		args, ok := setAt(OrNull(n.Args), rest, value)
		if !ok {
			return nil, false
		}
		return Operation{Tag: n.Tag, Args: args}, true

	case Array:
		i, ok := step.AsIndex()
		if !ok {
			return nil, false
		}
		if i < len(n) {
			el, ok := setAt(OrNull(n[i]), rest, value)
			if !ok {
				return nil, false
			}
			out := make(Array, len(n))
			copy(out, n)
			out[i] = el
			return out, true
		}
		if i == len(n) && len(rest) == 0 {
			out := make(Array, len(n), len(n)+1)
			copy(out, n)
			return append(out, value), true
		}
		return nil, false

	case Object:
		k, ok := step.AsKey()
		if !ok {
			return nil, false
		}
		if len(n) == 0 {
			if len(rest) != 0 {
				return nil, false
			}
			return Operation{Tag: k, Args: value}, true
		}
		idx := n.index(k)
		if idx < 0 {
			return nil, false
		}
		fv, ok := setAt(n[idx].Value, rest, value)
		if !ok {
			return nil, false
		}
		out := make(Object, len(n))
		copy(out, n)
		out[idx] = Field{Key: k, Value: fv}
		return out, true
	}
	return nil, false
}

// Remove returns a tree without the node at path. Array elements are spliced
// out; removing an operation's tag leaves the empty object; the empty path
// yields the empty tree. An unresolvable path returns root unchanged.
func Remove(root Value, path Path) Value {
	if len(path) == 0 {
		return Empty()
	}
	if out, ok := removeAt(OrNull(root), path); ok {
		return out
	}
	return root
}

func removeAt(node Value, path Path) (Value, bool) {
	step, rest := path[0], path[1:]
	if len(rest) > 0 {
		c, ok := child(node, step)
		if !ok {
			return nil, false
		}
		nc, ok := removeAt(c, rest)
		if !ok {
			return nil, false
		}
		return setAt(node, Path{step}, nc)
	}

	switch n := node.(type) {
	case Operation:
		if k, ok := step.AsKey(); ok && k == n.Tag {
			return Empty(), true
		}
	case Array:
		if i, ok := step.AsIndex(); ok && i < len(n) {
			out := make(Array, 0, len(n)-1)
			out = append(out, n[:i]...)
			return append(out, n[i+1:]...), true
		}
	case Object:
		k, ok := step.AsKey()
		if !ok {
			return nil, false
		}
		idx := n.index(k)
		if idx < 0 {
			return nil, false
		}
		out := make([]Field, 0, len(n)-1)
		out = append(out, n[:idx]...)
		out = append(out, n[idx+1:]...)
		return NewObject(out), true
	}
	return nil, false
}
