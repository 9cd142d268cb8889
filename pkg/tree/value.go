// Package tree defines the logic tree value model, its JSON codec, positional
// paths and the copy-on-write path mutator.
package tree

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindOperation
)

var kindNames = [...]string{
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
	KindOperation: "operation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a node of a logic tree or a piece of context data. The set of
// implementations is closed: Null, Bool, Number, String, Array, Object and
// Operation.
type Value interface {
	Kind() Kind
	MarshalJSON() ([]byte, error)
	isValue()
}

// Null is the JSON null literal.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// Number is a JSON number. Integers and decimals share the float64 representation.
type Number float64

// String is a JSON string.
type String string

// Array is an ordered sequence of values.
type Array []Value

// Field is one key/value entry of an Object.
type Field struct {
	Key   string
	Value Value
}

// Object is a JSON object that is not an operation: it has zero fields (the
// empty tree sentinel) or two or more. Field order is the order of the source
// document. A single-field object is always represented as an Operation.
type Object []Field

// Operation is a node with exactly one tag. Args is usually an Array; var,
// missing and missing_some also accept a bare String.
type Operation struct {
	Tag  string
	Args Value
}

func (Null) Kind() Kind      { return KindNull }
func (Bool) Kind() Kind      { return KindBool }
func (Number) Kind() Kind    { return KindNumber }
func (String) Kind() Kind    { return KindString }
func (Array) Kind() Kind     { return KindArray }
func (Object) Kind() Kind    { return KindObject }
func (Operation) Kind() Kind { return KindOperation }

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (Number) isValue()    {}
func (String) isValue()    {}
func (Array) isValue()     {}
func (Object) isValue()    {}
func (Operation) isValue() {}

// Empty returns the empty tree sentinel `{}`: a tree with no root operation yet.
func Empty() Value {
	return Object{}
}

// IsEmpty reports whether v is the empty tree sentinel.
func IsEmpty(v Value) bool {
	o, ok := v.(Object)
	return ok && len(o) == 0
}

// Op builds an operation whose payload is the given operand list.
func Op(tag string, args ...Value) Operation {
	return Operation{Tag: tag, Args: append(Array{}, args...)}
}

// NewObject builds the canonical value for a list of fields: a single field
// becomes an Operation, anything else an Object.
func NewObject(fields []Field) Value {
	if len(fields) == 1 {
		return Operation{Tag: fields[0].Key, Args: OrNull(fields[0].Value)}
	}
	return Object(fields)
}

// OrNull maps a nil Value to Null.
func OrNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// Get returns the value of the named field.
func (o Object) Get(key string) (Value, bool) {
	if i := o.index(key); i >= 0 {
		return o[i].Value, true
	}
	return nil, false
}

// Keys returns the field names in document order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

func (o Object) index(key string) int {
	for i, f := range o {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// Operands returns the operation payload as an operand list. A non-array
// payload is a single operand.
func (op Operation) Operands() []Value {
	if arr, ok := op.Args.(Array); ok {
		return arr
	}
	return []Value{OrNull(op.Args)}
}

// Lookup resolves a field of a data value. Operations are treated as
// one-field objects, which is how single-key objects appear in context data.
func Lookup(v Value, key string) (Value, bool) {
	switch n := v.(type) {
	case Object:
		return n.Get(key)
	case Operation:
		if n.Tag == key {
			return OrNull(n.Args), true
		}
	}
	return nil, false
}
