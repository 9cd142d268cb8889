package tree

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rendis/logictree/pkg/schema"
)

// Step is one hop of a Path: either a key (an operation tag or an object
// field) or a non-negative array index.
type Step struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a key step.
func Key(k string) Step {
	return Step{key: k}
}

// Index returns an array index step.
func Index(i int) Step {
	return Step{index: i, isIndex: true}
}

// AsIndex returns the array position addressed by the step. Key steps that
// spell a non-negative decimal integer ("0", "12") also address positions.
func (s Step) AsIndex() (int, bool) {
	if s.isIndex {
		return s.index, s.index >= 0
	}
	if s.key == "" {
		return 0, false
	}
	for _, r := range s.key {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(s.key)
	if err != nil {
		return 0, false
	}
	return i, true
}

// AsKey returns the key of a key step.
func (s Step) AsKey() (string, bool) {
	if s.isIndex {
		return "", false
	}
	return s.key, true
}

func (s Step) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// MarshalJSON encodes index steps as numbers and key steps as strings.
func (s Step) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return []byte(strconv.Itoa(s.index)), nil
	}
	return json.Marshal(s.key)
}

// Path locates a subtree from the root. The empty path denotes the whole tree.
type Path []Step

// Append returns a new path extended by steps; p itself is not modified.
func (p Path) Append(steps ...Step) Path {
	out := make(Path, len(p), len(p)+len(steps))
	copy(out, p)
	return append(out, steps...)
}

// Parent splits p into its parent path and final step.
func (p Path) Parent() (Path, Step, bool) {
	if len(p) == 0 {
		return nil, Step{}, false
	}
	return p[:len(p)-1], p[len(p)-1], true
}

// String renders p as a JSON pointer ("/if/0"); the root renders as "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(escapePointer(s.String()))
	}
	return b.String()
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(s string) string {
	return pointerEscaper.Replace(s)
}

// PathFromJSON builds a path from a decoded JSON array: strings become key
// steps, non-negative integers become index steps.
func PathFromJSON(raw []any) (Path, error) {
	p := make(Path, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			p = append(p, Key(v))
		case float64:
			if v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
				return nil, schema.NewErrorf(schema.ErrCodeValidation,
					"path step %d: %v is not a non-negative integer", i, v)
			}
			p = append(p, Index(int(v)))
		case int:
			if v < 0 {
				return nil, schema.NewErrorf(schema.ErrCodeValidation,
					"path step %d: %d is negative", i, v)
			}
			p = append(p, Index(v))
		case json.Number:
			n, err := strconv.Atoi(v.String())
			if err != nil || n < 0 {
				return nil, schema.NewErrorf(schema.ErrCodeValidation,
					"path step %d: %s is not a non-negative integer", i, v.String())
			}
			p = append(p, Index(n))
		default:
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"path step %d: unsupported type %T", i, item)
		}
	}
	return p, nil
}
