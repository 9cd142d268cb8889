// Package logic is the engine facade: build and edit logic trees by path,
// validate them and evaluate them against a data context. Every operation is
// pure; an Engine is immutable and safe for concurrent use.
package logic

import (
	"log/slog"
	"sync"

	"github.com/rendis/logictree/internal/expressions"
	"github.com/rendis/logictree/internal/validation"
	"github.com/rendis/logictree/pkg/catalog"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// OperationFunc implements a custom operation over evaluated operands.
type OperationFunc func(args []tree.Value) (tree.Value, error)

// CustomOperation pairs a catalog entry with its implementation.
type CustomOperation struct {
	Spec catalog.OperationSpec
	Fn   OperationFunc
}

// Options configures an Engine. The zero value uses the stock catalog.
type Options struct {
	Catalog    *catalog.Catalog
	MaxDepth   int
	Logger     *slog.Logger
	Operations []CustomOperation
}

// Engine bundles a validator and an evaluator over one catalog.
type Engine struct {
	validator *validation.TreeValidator
	evaluator *expressions.Evaluator
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	var evalOpts []expressions.EvalOption
	if opts.Catalog != nil {
		evalOpts = append(evalOpts, expressions.WithCatalog(opts.Catalog))
	}
	if opts.MaxDepth > 0 {
		evalOpts = append(evalOpts, expressions.WithMaxDepth(opts.MaxDepth))
	}
	if opts.Logger != nil {
		evalOpts = append(evalOpts, expressions.WithLogger(opts.Logger))
	}
	for _, op := range opts.Operations {
		evalOpts = append(evalOpts, expressions.WithOperation(op.Spec, expressions.OperationFunc(op.Fn)))
	}

	ev, err := expressions.NewEvaluator(evalOpts...)
	if err != nil {
		return nil, err
	}
	tv, err := validation.NewTreeValidator(ev.Catalog())
	if err != nil {
		return nil, err
	}
	return &Engine{validator: tv, evaluator: ev}, nil
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns a shared Engine over the stock catalog.
func Default() *Engine {
	defaultOnce.Do(func() {
		e, err := New(Options{})
		if err != nil {
			panic("logic: default engine: " + err.Error())
		}
		defaultEngine = e
	})
	return defaultEngine
}

// Catalog returns the operations this engine knows.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.evaluator.Catalog()
}

// Get returns the subtree at path.
func (e *Engine) Get(root tree.Value, path tree.Path) (tree.Value, bool) {
	return tree.Get(root, path)
}

// Mutate returns a copy of root with the node at path replaced by sub.
// Unresolvable paths leave the tree unchanged.
func (e *Engine) Mutate(root tree.Value, path tree.Path, sub tree.Value) tree.Value {
	return tree.Set(root, path, sub)
}

// RemoveAt returns a copy of root without the node at path.
func (e *Engine) RemoveAt(root tree.Value, path tree.Path) tree.Value {
	return tree.Remove(root, path)
}

// IsValid reports whether root is a well-formed tree of known operations.
func (e *Engine) IsValid(root tree.Value) bool {
	return e.validator.IsValid(root)
}

// Validate returns every issue found in root.
func (e *Engine) Validate(root tree.Value) *schema.ValidationResult {
	return e.validator.Validate(root)
}

// ValidateJSON validates raw JSON text, including syntax.
func (e *Engine) ValidateJSON(raw []byte) *schema.ValidationResult {
	return e.validator.ValidateJSON(raw)
}

// ValidateContext checks a context document against a JSON Schema.
func (e *Engine) ValidateContext(data tree.Value, contextSchema []byte) error {
	return e.validator.ValidateContext(data, contextSchema)
}

// Evaluate applies root to data.
func (e *Engine) Evaluate(root, data tree.Value) (tree.Value, error) {
	return e.evaluator.Apply(root, data)
}

// EvaluateJSON evaluates JSON text against JSON data and returns compact JSON.
// Empty data is treated as null.
func (e *Engine) EvaluateJSON(logic, data []byte) ([]byte, error) {
	root, err := tree.Parse(logic)
	if err != nil {
		return nil, err
	}

	var ctx tree.Value = tree.Null{}
	if len(data) > 0 {
		if ctx, err = tree.Parse(data); err != nil {
			return nil, schema.NewError(schema.ErrCodeParse, "invalid context data").WithCause(err)
		}
	}

	out, err := e.evaluator.Apply(root, ctx)
	if err != nil {
		return nil, err
	}
	return tree.Marshal(out)
}
