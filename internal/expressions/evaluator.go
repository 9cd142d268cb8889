package expressions

import (
	"log/slog"

	"github.com/rendis/logictree/pkg/catalog"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// DefaultMaxDepth bounds the nesting depth Apply will descend before giving up
// with RECURSION_LIMIT.
const DefaultMaxDepth = 1000

// OperationFunc implements a custom operation. It receives the operands
// already evaluated, in payload order.
type OperationFunc func(args []tree.Value) (tree.Value, error)

// builtinFunc implements a stock operation. Builtins control operand
// evaluation themselves so that if/and/or and the array operations can be lazy.
type builtinFunc func(e *Evaluator, c *call) (tree.Value, error)

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Catalog resolves operation tags. Defaults to catalog.Default().
	Catalog *catalog.Catalog
	// MaxDepth limits recursion depth.
	MaxDepth int
	// Logger for structured logging.
	Logger *slog.Logger

	custom []customOperation
}

type customOperation struct {
	spec catalog.OperationSpec
	fn   OperationFunc
}

// EvalOption configures an Evaluator.
type EvalOption func(*EvalOptions)

// WithCatalog sets the catalog operation tags are resolved against.
func WithCatalog(c *catalog.Catalog) EvalOption {
	return func(opts *EvalOptions) {
		opts.Catalog = c
	}
}

// WithMaxDepth sets the maximum recursion depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithOperation registers a custom operation. spec is added to the
// evaluator's catalog; registering a tag the catalog already knows fails
// NewEvaluator with CONFLICT.
func WithOperation(spec catalog.OperationSpec, fn OperationFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.custom = append(opts.custom, customOperation{spec: spec, fn: fn})
	}
}

// Evaluator reduces logic trees against a data context. It is immutable after
// construction and safe for concurrent use.
type Evaluator struct {
	catalog  *catalog.Catalog
	maxDepth int
	logger   *slog.Logger
	custom   map[string]OperationFunc
}

// NewEvaluator creates an Evaluator. The stock catalog and the built-in
// length extension are available unless a different catalog is supplied.
func NewEvaluator(opts ...EvalOption) (*Evaluator, error) {
	options := EvalOptions{
		Catalog:  catalog.Default(),
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}

	cat := options.Catalog
	custom := map[string]OperationFunc{"length": lengthOp}
	if len(options.custom) > 0 {
		specs := make([]catalog.OperationSpec, 0, len(options.custom))
		for _, c := range options.custom {
			specs = append(specs, c.spec)
		}
		extended, err := cat.With(specs...)
		if err != nil {
			return nil, err
		}
		cat = extended
		for _, c := range options.custom {
			custom[c.spec.Tag] = c.fn
		}
	}

	return &Evaluator{
		catalog:  cat,
		maxDepth: options.MaxDepth,
		logger:   options.Logger,
		custom:   custom,
	}, nil
}

// Catalog returns the catalog the evaluator resolves tags against, including
// any custom operations.
func (e *Evaluator) Catalog() *catalog.Catalog {
	return e.catalog
}

// Apply evaluates logic against data. data is never modified.
func (e *Evaluator) Apply(logic, data tree.Value) (tree.Value, error) {
	return e.eval(logic, tree.OrNull(data), nil, 0)
}

func (e *Evaluator) eval(node tree.Value, data tree.Value, path tree.Path, depth int) (tree.Value, error) {
	if depth > e.maxDepth {
		e.logger.Debug("evaluation depth limit reached", "path", path.String(), "max_depth", e.maxDepth)
		return nil, schema.NewErrorf(schema.ErrCodeRecursionLimit,
			"tree nesting exceeds %d levels", e.maxDepth).WithPath(path.String())
	}

	switch n := tree.OrNull(node).(type) {
	case tree.Array:
		out := make(tree.Array, len(n))
		for i, el := range n {
			v, err := e.eval(el, data, path.Append(tree.Index(i)), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case tree.Object:
		if len(n) == 0 {
			return nil, schema.NewError(schema.ErrCodeMalformedTree,
				"empty object: expected a single operation key").WithPath(path.String())
		}
		return nil, schema.NewErrorf(schema.ErrCodeMalformedTree,
			"object has %d keys: expected a single operation key", len(n)).WithPath(path.String())
	case tree.Operation:
		return e.apply(n, data, path, depth)
	default:
		return n, nil
	}
}

func (e *Evaluator) apply(op tree.Operation, data tree.Value, path tree.Path, depth int) (tree.Value, error) {
	spec, ok := e.catalog.Lookup(op.Tag)
	if !ok {
		e.logger.Debug("unknown operation", "tag", op.Tag, "path", path.String())
		return nil, schema.NewErrorf(schema.ErrCodeUnknownOperation, "unknown operation %q", op.Tag).
			WithPath(path.String()).
			WithDetails(map[string]any{"tag": op.Tag})
	}

	_, listed := op.Args.(tree.Array)
	c := &call{
		tag:      op.Tag,
		operands: op.Operands(),
		listed:   listed,
		data:     data,
		path:     path,
		depth:    depth,
	}
	if len(c.operands) < spec.MinArgs {
		return nil, c.fail(schema.ErrCodeMissingOperand,
			"%s needs at least %d operands, got %d", op.Tag, spec.MinArgs, len(c.operands))
	}

	if fn, ok := e.custom[op.Tag]; ok {
		args, err := c.all(e)
		if err != nil {
			return nil, err
		}
		out, err := fn(args)
		if err != nil {
			return nil, c.wrap(err)
		}
		return tree.OrNull(out), nil
	}

	fn, ok := builtins[op.Tag]
	if !ok {
		return nil, c.fail(schema.ErrCodeUnknownOperation, "operation %q has no implementation", op.Tag)
	}
	out, err := fn(e, c)
	if err != nil {
		return nil, err
	}
	return tree.OrNull(out), nil
}

// call is one operation invocation: its unevaluated operands and the context
// they are evaluated in.
type call struct {
	tag      string
	operands []tree.Value
	listed   bool
	data     tree.Value
	path     tree.Path
	depth    int
}

func (c *call) operandPath(i int) tree.Path {
	argsPath := c.path.Append(tree.Key(c.tag))
	if !c.listed {
		return argsPath
	}
	return argsPath.Append(tree.Index(i))
}

// arg evaluates operand i in the call's context. Absent operands are Null.
func (c *call) arg(e *Evaluator, i int) (tree.Value, error) {
	if i >= len(c.operands) {
		return tree.Null{}, nil
	}
	return e.eval(c.operands[i], c.data, c.operandPath(i), c.depth+1)
}

// argIn evaluates operand i against a different context (array element scope).
// Absent operands are Null.
func (c *call) argIn(e *Evaluator, i int, data tree.Value) (tree.Value, error) {
	if i >= len(c.operands) {
		return tree.Null{}, nil
	}
	return e.eval(c.operands[i], data, c.operandPath(i), c.depth+1)
}

// all evaluates every operand eagerly.
func (c *call) all(e *Evaluator) ([]tree.Value, error) {
	out := make([]tree.Value, len(c.operands))
	for i := range c.operands {
		v, err := c.arg(e, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *call) fail(code, format string, args ...any) *schema.LogicError {
	return schema.NewErrorf(code, format, args...).WithPath(c.path.String())
}

// wrap locates an error returned by a custom operation at the call's node.
// The returned error is a copy; custom operations may return shared values.
func (c *call) wrap(err error) error {
	if le, ok := err.(*schema.LogicError); ok {
		if le.Path != "" {
			return le
		}
		located := *le
		located.Path = c.path.String()
		return &located
	}
	return schema.NewErrorf(schema.ErrCodeExecution, "%s failed: %s", c.tag, err.Error()).
		WithPath(c.path.String()).
		WithCause(err)
}

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		// logic
		"if":  opIf,
		"and": opAnd,
		"or":  opOr,
		"!":   opNot,
		"!!":  opTruthy,
		"==":  binary(func(a, b tree.Value) tree.Value { return tree.Bool(looseEqual(a, b)) }),
		"!=":  binary(func(a, b tree.Value) tree.Value { return tree.Bool(!looseEqual(a, b)) }),
		"===": binary(func(a, b tree.Value) tree.Value { return tree.Bool(strictEqual(a, b)) }),
		"!==": binary(func(a, b tree.Value) tree.Value { return tree.Bool(!strictEqual(a, b)) }),
		">":   binary(func(a, b tree.Value) tree.Value { return tree.Bool(lessThan(b, a)) }),
		">=":  binary(func(a, b tree.Value) tree.Value { return tree.Bool(lessOrEqual(b, a)) }),
		"<":   between(lessThan),
		"<=":  between(lessOrEqual),

		// data
		"var":          opVar,
		"missing":      opMissing,
		"missing_some": opMissingSome,

		// numeric
		"+":   opAdd,
		"-":   opSubtract,
		"*":   opMultiply,
		"/":   opDivide,
		"%":   opModulo,
		"min": opMin,
		"max": opMax,

		// array
		"map":    opMap,
		"filter": opFilter,
		"reduce": opReduce,
		"merge":  opMerge,
		"in":     opIn,

		// string
		"cat":    opCat,
		"substr": opSubstr,
	}
}
