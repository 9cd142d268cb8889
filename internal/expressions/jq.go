package expressions

import (
	"context"
	"sync"

	"github.com/itchyny/gojq"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// JQEngine carves evaluation contexts out of larger documents with jq
// queries. Thread-safe: compiled *Code objects are cached and reused across
// goroutines.
type JQEngine struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewJQEngine creates a new jq engine.
func NewJQEngine() *JQEngine {
	return &JQEngine{
		cache: make(map[string]*gojq.Code),
	}
}

// Select runs query against a tree value. A single output is returned as is;
// several outputs are collected into an array; no output is Null.
func (e *JQEngine) Select(ctx context.Context, query string, data tree.Value) (tree.Value, error) {
	results, err := e.run(ctx, query, tree.ToAny(data))
	if err != nil {
		return nil, err
	}

	switch len(results) {
	case 0:
		return tree.Null{}, nil
	case 1:
		return fromJQ(query, results[0])
	default:
		return fromJQ(query, results)
	}
}

func (e *JQEngine) run(ctx context.Context, query string, input any) ([]any, error) {
	if query == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty jq query")
	}

	code, err := e.getOrCompile(query)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, input)
	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeExecution,
				"jq evaluation failed for %q: %s", query, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"query": query})
		}
		results = append(results, val)
	}
	return results, nil
}

func fromJQ(query string, v any) (tree.Value, error) {
	out, err := tree.FromAny(v)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExecution,
			"jq result of %q is not JSON: %s", query, err.Error()).WithCause(err)
	}
	return out, nil
}

// getOrCompile returns a cached compiled code or compiles and caches a new one.
func (e *JQEngine) getOrCompile(query string) (*gojq.Code, error) {
	e.mu.RLock()
	if code, ok := e.cache[query]; ok {
		e.mu.RUnlock()
		return code, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if code, ok := e.cache[query]; ok {
		return code, nil
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq parse error in %q: %s", query, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"query": query})
	}

	code, err := gojq.Compile(parsed,
		// Sandbox: return empty env to block $ENV and env access.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq compile error in %q: %s", query, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"query": query})
	}

	e.cache[query] = code
	return code, nil
}
