// Package catalog is the static registry of known operation tags and their
// shape contracts.
package catalog

import (
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// Category groups operations for display.
type Category string

const (
	CategoryLogic   Category = "logic"
	CategoryData    Category = "data"
	CategoryNumeric Category = "numeric"
	CategoryArray   Category = "array"
	CategoryString  Category = "string"
)

// Arity is the shape hint of an operation's payload.
type Arity string

const (
	ArityUnary         Arity = "unary"
	ArityBinary        Arity = "binary"
	ArityFixed3        Arity = "fixed-3"
	ArityVariadic      Arity = "variadic"
	ArityPair          Arity = "pair"
	ArityScalarOrArray Arity = "scalar-or-array"
	ArityRange         Arity = "range"
)

// Unbounded marks an operation without an operand upper bound.
const Unbounded = -1

// OperationSpec describes one operation tag.
type OperationSpec struct {
	Tag         string   `json:"tag"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Arity       Arity    `json:"arity"`
	MinArgs     int      `json:"min_args"`
	MaxArgs     int      `json:"max_args"`
	Custom      bool     `json:"custom,omitempty"`
}

// Accepts reports whether n operands satisfy the spec's bounds.
func (s OperationSpec) Accepts(n int) bool {
	if n < s.MinArgs {
		return false
	}
	return s.MaxArgs == Unbounded || n <= s.MaxArgs
}

// StringPayload reports whether a bare string is a complete payload for the
// operation (var, missing, missing_some).
func (s OperationSpec) StringPayload() bool {
	return s.Arity == ArityScalarOrArray
}

// DefaultArgs returns the payload a freshly inserted node of this operation
// receives in the builder.
func (s OperationSpec) DefaultArgs() tree.Value {
	switch {
	case s.Tag == "if":
		return tree.Array{tree.Bool(true), tree.String(""), tree.String("")}
	case s.StringPayload():
		return tree.String("")
	default:
		return tree.Array{}
	}
}

// Catalog is an immutable tag -> spec registry. It is safe for concurrent use.
type Catalog struct {
	specs map[string]OperationSpec
	order []string
}

// New builds a catalog from specs, keeping their order for listing.
func New(specs ...OperationSpec) (*Catalog, error) {
	c := &Catalog{
		specs: make(map[string]OperationSpec, len(specs)),
		order: make([]string, 0, len(specs)),
	}
	if err := c.add(specs); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) add(specs []OperationSpec) error {
	for _, s := range specs {
		if s.Tag == "" {
			return schema.NewError(schema.ErrCodeValidation, "operation tag is empty")
		}
		if _, exists := c.specs[s.Tag]; exists {
			return schema.NewErrorf(schema.ErrCodeConflict, "operation %q already registered", s.Tag)
		}
		if s.MaxArgs != Unbounded && s.MaxArgs < s.MinArgs {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"operation %q: max_args %d below min_args %d", s.Tag, s.MaxArgs, s.MinArgs)
		}
		c.specs[s.Tag] = s
		c.order = append(c.order, s.Tag)
	}
	return nil
}

// With returns a copy of c extended with specs. c is left untouched.
func (c *Catalog) With(specs ...OperationSpec) (*Catalog, error) {
	out := &Catalog{
		specs: make(map[string]OperationSpec, len(c.specs)+len(specs)),
		order: make([]string, len(c.order), len(c.order)+len(specs)),
	}
	for k, v := range c.specs {
		out.specs[k] = v
	}
	copy(out.order, c.order)
	if err := out.add(specs); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup returns the spec registered for tag. Lookup is case-sensitive.
func (c *Catalog) Lookup(tag string) (OperationSpec, bool) {
	s, ok := c.specs[tag]
	return s, ok
}

// Len returns the number of registered operations.
func (c *Catalog) Len() int {
	return len(c.order)
}

// List returns every spec in registration order.
func (c *Catalog) List() []OperationSpec {
	out := make([]OperationSpec, 0, len(c.order))
	for _, tag := range c.order {
		out = append(out, c.specs[tag])
	}
	return out
}

// ByCategory returns the specs of one category in registration order.
func (c *Catalog) ByCategory(cat Category) []OperationSpec {
	var out []OperationSpec
	for _, tag := range c.order {
		if s := c.specs[tag]; s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the categories in display order.
func Categories() []Category {
	return []Category{CategoryLogic, CategoryData, CategoryNumeric, CategoryArray, CategoryString}
}

// CategoryLabel is the panel heading of a category.
func CategoryLabel(cat Category) string {
	switch cat {
	case CategoryLogic:
		return "Logic Operations"
	case CategoryData:
		return "Data Operations"
	case CategoryNumeric:
		return "Numeric Operations"
	case CategoryArray:
		return "Array Operations"
	case CategoryString:
		return "String Operations"
	}
	return string(cat)
}
