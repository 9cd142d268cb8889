package validation

import (
	"github.com/rendis/logictree/pkg/catalog"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// TreeValidator orchestrates the validation pipeline:
// 1. Syntax (JSON decoding, raw input only)
// 2. Structural (JSON Schema, raw input only)
// 3. Semantic (operation tags resolved against the catalog, operand shapes)
//
// It holds no mutable state beyond the context schema cache and is safe for
// concurrent use.
type TreeValidator struct {
	jsonSchema *JSONSchemaValidator
	ops        OperationLookup
}

// NewTreeValidator creates a TreeValidator. A nil lookup uses the stock catalog.
func NewTreeValidator(ops OperationLookup) (*TreeValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	if ops == nil {
		ops = catalog.Default()
	}
	return &TreeValidator{jsonSchema: jsv, ops: ops}, nil
}

// Validate runs the semantic stage over an in-memory tree and returns every
// issue found.
func (tv *TreeValidator) Validate(root tree.Value) *schema.ValidationResult {
	if root == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeMalformedTree, "tree is nil")
		return r
	}
	return validateSemantic(root, tv.ops)
}

// IsValid reports whether root has no validation errors. Warnings are allowed.
func (tv *TreeValidator) IsValid(root tree.Value) bool {
	return tv.Validate(root).Valid()
}

// ValidateJSON runs the full pipeline over raw JSON text. Syntax errors
// short-circuit. When the structural stage already reported malformed
// objects, the semantic stage only contributes the remaining issue kinds.
func (tv *TreeValidator) ValidateJSON(raw []byte) *schema.ValidationResult {
	root, err := tree.Parse(raw)
	if err != nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeParse, err.Error())
		return r
	}

	// Stage 2: Structural (JSON Schema).
	result := tv.jsonSchema.ValidateStructure(raw)
	if !result.Valid() && result.HasCode(schema.ErrCodeParse) {
		return result
	}

	// Stage 3: Semantic.
	semantic := validateSemantic(root, tv.ops)
	if result.Valid() {
		result.Merge(semantic)
	} else {
		result.MergeExcept(semantic, schema.ErrCodeMalformedTree)
	}
	return result
}

// ValidateContext delegates to the underlying JSONSchemaValidator.
func (tv *TreeValidator) ValidateContext(data tree.Value, contextSchema []byte) error {
	return tv.jsonSchema.ValidateContext(data, contextSchema)
}

var _ Validator = (*TreeValidator)(nil)
