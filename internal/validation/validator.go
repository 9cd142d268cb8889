package validation

import (
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

// Validator checks logic trees for structural correctness before evaluation.
// Uses JSON Schema Draft 2020-12 for the raw-document stage and for context
// documents.
type Validator interface {
	Validate(root tree.Value) *schema.ValidationResult
	ValidateJSON(raw []byte) *schema.ValidationResult
	ValidateContext(data tree.Value, contextSchema []byte) error
}
