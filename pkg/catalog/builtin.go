package catalog

// builtins lists the stock operations in panel order.
var builtins = []OperationSpec{
	// logic
	{Tag: "if", Name: "if-then-else", Description: "Conditional logic", Category: CategoryLogic, Arity: ArityFixed3, MinArgs: 0, MaxArgs: Unbounded},
	{Tag: "==", Name: "Equal (==)", Description: "Equality comparison", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: "===", Name: "Strict Equal (===)", Description: "Strict equality comparison", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: "!=", Name: "Not Equal (!=)", Description: "Inequality comparison", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: "!==", Name: "Strict Not Equal (!==)", Description: "Strict inequality comparison", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: ">", Name: "Greater Than (>)", Description: "Greater than comparison", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: ">=", Name: "Greater Than or Equal (>=)", Description: "Greater than or equal comparison", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: "<", Name: "Less Than (<)", Description: "Less than comparison; three operands test a < b < c", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 3},
	{Tag: "<=", Name: "Less Than or Equal (<=)", Description: "Less than or equal comparison; three operands test a <= b <= c", Category: CategoryLogic, Arity: ArityBinary, MinArgs: 2, MaxArgs: 3},
	{Tag: "!", Name: "Not (!)", Description: "Logical NOT", Category: CategoryLogic, Arity: ArityUnary, MinArgs: 1, MaxArgs: 1},
	{Tag: "!!", Name: "Boolean Cast (!!)", Description: "Cast to boolean", Category: CategoryLogic, Arity: ArityUnary, MinArgs: 1, MaxArgs: 1},
	{Tag: "and", Name: "Logical AND", Description: "All conditions must be true", Category: CategoryLogic, Arity: ArityVariadic, MinArgs: 1, MaxArgs: Unbounded},
	{Tag: "or", Name: "Logical OR", Description: "At least one condition must be true", Category: CategoryLogic, Arity: ArityVariadic, MinArgs: 1, MaxArgs: Unbounded},

	// data
	{Tag: "var", Name: "Variable", Description: "Access a variable with dot notation; optional default", Category: CategoryData, Arity: ArityScalarOrArray, MinArgs: 0, MaxArgs: 2},
	{Tag: "missing", Name: "Missing", Description: "Keys missing from the data", Category: CategoryData, Arity: ArityScalarOrArray, MinArgs: 0, MaxArgs: Unbounded},
	{Tag: "missing_some", Name: "Missing Some", Description: "Missing keys unless at least N are present", Category: CategoryData, Arity: ArityScalarOrArray, MinArgs: 2, MaxArgs: 2},

	// numeric
	{Tag: "+", Name: "Addition (+)", Description: "Add numbers; a single array operand is summed", Category: CategoryNumeric, Arity: ArityBinary, MinArgs: 0, MaxArgs: Unbounded},
	{Tag: "-", Name: "Subtraction (-)", Description: "Subtract second number from first; one operand negates", Category: CategoryNumeric, Arity: ArityBinary, MinArgs: 1, MaxArgs: 2},
	{Tag: "*", Name: "Multiplication (*)", Description: "Multiply numbers", Category: CategoryNumeric, Arity: ArityBinary, MinArgs: 1, MaxArgs: Unbounded},
	{Tag: "/", Name: "Division (/)", Description: "Divide first number by second number", Category: CategoryNumeric, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: "%", Name: "Modulo (%)", Description: "Remainder after division", Category: CategoryNumeric, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},
	{Tag: "min", Name: "Minimum", Description: "Find minimum value", Category: CategoryNumeric, Arity: ArityVariadic, MinArgs: 1, MaxArgs: Unbounded},
	{Tag: "max", Name: "Maximum", Description: "Find maximum value", Category: CategoryNumeric, Arity: ArityVariadic, MinArgs: 1, MaxArgs: Unbounded},
	{Tag: "length", Name: "Length", Description: "Number of characters in a number's decimal form", Category: CategoryNumeric, Arity: ArityUnary, MinArgs: 1, MaxArgs: 1, Custom: true},

	// array
	{Tag: "map", Name: "Map", Description: "Transform array elements", Category: CategoryArray, Arity: ArityPair, MinArgs: 2, MaxArgs: 2},
	{Tag: "filter", Name: "Filter", Description: "Filter array elements", Category: CategoryArray, Arity: ArityPair, MinArgs: 2, MaxArgs: 2},
	{Tag: "reduce", Name: "Reduce", Description: "Reduce array to single value", Category: CategoryArray, Arity: ArityPair, MinArgs: 2, MaxArgs: 3},
	{Tag: "merge", Name: "Merge", Description: "Combine multiple arrays", Category: CategoryArray, Arity: ArityVariadic, MinArgs: 0, MaxArgs: Unbounded},
	{Tag: "in", Name: "In", Description: "Membership in an array or substring of a string", Category: CategoryArray, Arity: ArityBinary, MinArgs: 2, MaxArgs: 2},

	// string
	{Tag: "cat", Name: "Concatenate", Description: "Join strings together", Category: CategoryString, Arity: ArityVariadic, MinArgs: 0, MaxArgs: Unbounded},
	{Tag: "substr", Name: "Substring", Description: "Extract part of a string", Category: CategoryString, Arity: ArityRange, MinArgs: 1, MaxArgs: 3},
}

var defaultCatalog = mustDefault()

func mustDefault() *Catalog {
	c, err := New(builtins...)
	if err != nil {
		panic("catalog: invalid builtin table: " + err.Error())
	}
	return c
}

// Default returns the stock catalog. The value is shared and immutable.
func Default() *Catalog {
	return defaultCatalog
}

// Lookup resolves tag in the stock catalog.
func Lookup(tag string) (OperationSpec, bool) {
	return defaultCatalog.Lookup(tag)
}
