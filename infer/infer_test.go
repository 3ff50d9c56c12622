package infer

import (
	"testing"

	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/pyrite-lang/pyrite/syntax"
	"github.com/pyrite-lang/pyrite/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv() (*semindex.Scope, *Env) {
	scope := semindex.NewScope("test")
	return scope, NewEnv(scope)
}

func TestLiteralTypes(t *testing.T) {
	_, env := newEnv()

	testCases := []struct {
		name     string
		expr     syntax.Expr
		expected types.Type
	}{
		{"int", &syntax.IntLit{Value: 3}, &types.IntLiteral{Value: 3}},
		{"negative int folds", &syntax.UnaryOp{
			Op:      syntax.UnaryNeg,
			Operand: &syntax.IntLit{Value: 3},
		}, &types.IntLiteral{Value: -3}},
		{"string", &syntax.StringLit{Value: "a"}, &types.StringLiteral{Value: "a"}},
		{"bool", &syntax.BoolLit{Value: true}, &types.BooleanLiteral{Value: true}},
		{"None", &syntax.NoneLit{}, types.None()},
		{"tuple", &syntax.TupleExpr{Elts: []syntax.Expr{
			&syntax.IntLit{Value: 1},
			&syntax.NoneLit{},
		}}, &types.TupleType{Elements: []types.Type{
			&types.IntLiteral{Value: 1},
			types.None(),
		}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := env.ExpressionType(tc.expr)
			assert.True(t, types.Equivalent(tc.expected, got),
				"expected %s, got %s", tc.expected, got)
		})
	}
}

func TestNameResolution(t *testing.T) {
	_, env := newEnv()
	env.Declare("x", types.Instance(types.IntClass))

	got := env.ExpressionType(&syntax.Name{Name: "x"})
	assert.True(t, types.Equivalent(types.Instance(types.IntClass), got))

	// builtins resolve to class literals
	got = env.ExpressionType(&syntax.Name{Name: "str"})
	cls, ok := got.(*types.ClassLiteral)
	require.True(t, ok, "got %s", got)
	assert.Equal(t, types.StrClass, cls.Class)

	// unknown names infer as dynamic, never as an error
	got = env.ExpressionType(&syntax.Name{Name: "missing"})
	_, ok = got.(*types.DynamicType)
	assert.True(t, ok, "got %s", got)
}

func TestEnumMemberAccess(t *testing.T) {
	_, env := newEnv()
	color := &types.Class{
		Name:        "Color",
		Bases:       []*types.Class{types.ObjectClass},
		EnumMembers: []string{"RED"},
	}
	env.DefineClass(color)

	got := env.ExpressionType(&syntax.Attribute{
		Value: &syntax.Name{Name: "Color"},
		Attr:  "RED",
	})
	member, ok := got.(*types.EnumLiteral)
	require.True(t, ok, "got %s", got)
	assert.Equal(t, "RED", member.Member)
}

func TestAttributePlaceType(t *testing.T) {
	_, env := newEnv()
	env.Declare("a.b", types.Instance(types.StrClass))

	got := env.ExpressionType(&syntax.Attribute{
		Value: &syntax.Name{Name: "a"},
		Attr:  "b",
	})
	assert.True(t, types.Equivalent(types.Instance(types.StrClass), got), "got %s", got)
}

func TestCallTypes(t *testing.T) {
	scope, env := newEnv()

	t.Run("calling a class constructs an instance", func(t *testing.T) {
		got := env.ExpressionType(&syntax.Call{
			Func: &syntax.Name{Name: "int"},
		})
		assert.True(t, types.Equivalent(types.Instance(types.IntClass), got), "got %s", got)
	})

	t.Run("a type guard binds to its first argument", func(t *testing.T) {
		env.DefineFunction(&types.FunctionLiteral{
			Name:    "is_str",
			Returns: &types.TypeIsType{Guarded: types.Instance(types.StrClass)},
		})
		arg := &syntax.Name{Name: "x"}
		scope.IndexExpression(arg)
		id, ok := scope.PlaceID(semindex.PlaceExpr{Root: "x"})
		require.True(t, ok)

		got := env.ExpressionType(&syntax.Call{
			Func: &syntax.Name{Name: "is_str"},
			Args: []syntax.Expr{arg},
		})
		guard, ok := got.(*types.TypeIsType)
		require.True(t, ok, "got %s", got)
		assert.True(t, guard.Bound)
		assert.Equal(t, int(id), guard.Place)
	})

	t.Run("a plain function call uses the declared return", func(t *testing.T) {
		env.DefineFunction(&types.FunctionLiteral{
			Name:    "f",
			Returns: types.Instance(types.IntClass),
		})
		got := env.ExpressionType(&syntax.Call{Func: &syntax.Name{Name: "f"}})
		assert.True(t, types.Equivalent(types.Instance(types.IntClass), got), "got %s", got)
	})
}

func TestWalrusType(t *testing.T) {
	_, env := newEnv()
	got := env.ExpressionType(&syntax.Named{
		Target: &syntax.Name{Name: "y"},
		Value:  &syntax.IntLit{Value: 7},
	})
	assert.True(t, types.Equivalent(&types.IntLiteral{Value: 7}, got), "got %s", got)
}
