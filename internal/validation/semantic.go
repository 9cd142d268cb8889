package validation

import (
	"fmt"

	"github.com/rendis/logictree/pkg/catalog"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// OperationLookup resolves operation tags. *catalog.Catalog satisfies it.
type OperationLookup interface {
	Lookup(tag string) (catalog.OperationSpec, bool)
}

// validateSemantic walks the whole tree and reports malformed objects,
// unknown operations and operand-count mismatches. It never stops early.
func validateSemantic(root tree.Value, ops OperationLookup) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	validateNode(root, nil, ops, result)
	return result
}

func validateNode(node tree.Value, path tree.Path, ops OperationLookup, result *schema.ValidationResult) {
	switch n := node.(type) {
	case tree.Array:
		for i, el := range n {
			validateNode(el, path.Append(tree.Index(i)), ops, result)
		}

	case tree.Object:
		if len(n) == 0 {
			result.AddError(path.String(), schema.ErrCodeMalformedTree,
				"empty object: expected a single operation key")
			return
		}
		result.AddError(path.String(), schema.ErrCodeMalformedTree,
			fmt.Sprintf("object has %d keys: expected a single operation key", len(n)))
		for _, f := range n {
			validateNode(f.Value, path.Append(tree.Key(f.Key)), ops, result)
		}

	case tree.Operation:
		validateOperation(n, path, ops, result)
	}
	// Scalars are always valid.
}

func validateOperation(op tree.Operation, path tree.Path, ops OperationLookup, result *schema.ValidationResult) {
	argsPath := path.Append(tree.Key(op.Tag))

	spec, known := ops.Lookup(op.Tag)
	if !known {
		result.AddError(path.String(), schema.ErrCodeUnknownOperation,
			fmt.Sprintf("unknown operation %q", op.Tag))
		validateNode(op.Args, argsPath, ops, result)
		return
	}

	// A bare string is a complete payload for var, missing and missing_some.
	if _, isString := op.Args.(tree.String); isString && spec.StringPayload() {
		return
	}

	operands := op.Operands()
	if !spec.Accepts(len(operands)) {
		result.AddWarning(path.String(), schema.ErrCodeShapeMismatch,
			fmt.Sprintf("%s expects %s operands, got %d", op.Tag, describeBounds(spec), len(operands)))
	}

	if op.Tag == "missing_some" && len(operands) > 0 {
		switch first := operands[0].(type) {
		case tree.Number, tree.Operation:
		default:
			result.AddWarning(argsPath.Append(tree.Index(0)).String(), schema.ErrCodeShapeMismatch,
				fmt.Sprintf("missing_some expects a minimum count first, got %s", first.Kind()))
		}
	}

	validateNode(op.Args, argsPath, ops, result)
}

func describeBounds(spec catalog.OperationSpec) string {
	switch {
	case spec.MaxArgs == catalog.Unbounded:
		return fmt.Sprintf("at least %d", spec.MinArgs)
	case spec.MinArgs == spec.MaxArgs:
		return fmt.Sprintf("exactly %d", spec.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", spec.MinArgs, spec.MaxArgs)
	}
}
