package expressions

import (
	"testing"

	"github.com/google/cel-go/cel"
	"github.com/rendis/logictree/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func celEval(t *testing.T, env *cel.Env, src string, vars map[string]any) any {
	t.Helper()
	ast, iss := env.Compile(src)
	require.NoError(t, iss.Err(), src)
	prg, err := env.Program(ast)
	require.NoError(t, err)
	out, _, err := prg.Eval(vars)
	require.NoError(t, err)
	return out.Value()
}

// On booleans, and/or/! reduce to ordinary boolean algebra.
func TestApply_AgreesWithCELOnBooleans(t *testing.T) {
	env, err := cel.NewEnv(cel.Variable("a", cel.BoolType), cel.Variable("b", cel.BoolType))
	require.NoError(t, err)

	cases := []struct {
		tag string
		cel string
	}{
		{"and", "a && b"},
		{"or", "a || b"},
		{"!=", "a != b"},
		{"==", "a == b"},
	}
	ev := newEval(t)
	for _, tc := range cases {
		for _, a := range []bool{true, false} {
			for _, b := range []bool{true, false} {
				logic := tree.Op(tc.tag, tree.Op("var", tree.String("a")), tree.Op("var", tree.String("b")))
				data := tree.Object{{Key: "a", Value: tree.Bool(a)}, {Key: "b", Value: tree.Bool(b)}}

				got, err := ev.Apply(logic, data)
				require.NoError(t, err)
				want := celEval(t, env, tc.cel, map[string]any{"a": a, "b": b})
				assert.Equal(t, tree.Bool(want.(bool)), got, "%s(%v, %v)", tc.tag, a, b)
			}
		}
	}

	for _, a := range []bool{true, false} {
		got, err := ev.Apply(tree.Op("!", tree.Bool(a)), tree.Null{})
		require.NoError(t, err)
		want := celEval(t, env, "!a", map[string]any{"a": a, "b": false})
		assert.Equal(t, tree.Bool(want.(bool)), got)
	}
}

func TestApply_AgreesWithCELOnStrings(t *testing.T) {
	env, err := cel.NewEnv(cel.Variable("a", cel.StringType), cel.Variable("b", cel.StringType))
	require.NoError(t, err)

	cases := []struct {
		tag string
		cel string
	}{
		{"cat", "a + b"},
		{"in", "b.contains(a)"},
		{"==", "a == b"},
		{"===", "a == b"},
		{"!==", "a != b"},
	}
	words := []string{"", "log", "logic", "jsonlogic", "héllo"}

	ev := newEval(t)
	for _, tc := range cases {
		for _, a := range words {
			for _, b := range words {
				logic := tree.Op(tc.tag, tree.Op("var", tree.String("a")), tree.Op("var", tree.String("b")))
				data := tree.Object{{Key: "a", Value: tree.String(a)}, {Key: "b", Value: tree.String(b)}}

				got, err := ev.Apply(logic, data)
				require.NoError(t, err)
				want, err := tree.FromAny(celEval(t, env, tc.cel, map[string]any{"a": a, "b": b}))
				require.NoError(t, err)
				assert.Equal(t, want, got, "%s(%q, %q)", tc.tag, a, b)
			}
		}
	}
}
