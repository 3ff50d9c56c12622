package parser

import (
	"testing"

	"github.com/pyrite-lang/pyrite/syntax"
	"github.com/pyrite-lang/pyrite/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpression(t *testing.T) {
	testCases := []struct {
		name  string
		src   string
		check func(t *testing.T, expr syntax.Expr)
	}{{
		name: "name",
		src:  "x",
		check: func(t *testing.T, expr syntax.Expr) {
			name, ok := expr.(*syntax.Name)
			require.True(t, ok)
			assert.Equal(t, "x", name.Name)
		},
	}, {
		name: "isinstance call",
		src:  "isinstance(x, int)",
		check: func(t *testing.T, expr syntax.Expr) {
			call, ok := expr.(*syntax.Call)
			require.True(t, ok)
			assert.Len(t, call.Args, 2)
			assert.Empty(t, call.Keywords)
		},
	}, {
		name: "keyword argument",
		src:  "f(x, key=1)",
		check: func(t *testing.T, expr syntax.Expr) {
			call, ok := expr.(*syntax.Call)
			require.True(t, ok)
			assert.Len(t, call.Args, 1)
			require.Len(t, call.Keywords, 1)
			assert.Equal(t, "key", call.Keywords[0].Name)
		},
	}, {
		name: "is not None",
		src:  "x is not None",
		check: func(t *testing.T, expr syntax.Expr) {
			cmp, ok := expr.(*syntax.Compare)
			require.True(t, ok)
			require.Equal(t, []syntax.CmpOp{syntax.CmpIsNot}, cmp.Ops)
			_, isNone := cmp.Comparators[0].(*syntax.NoneLit)
			assert.True(t, isNone)
		},
	}, {
		name: "not in",
		src:  `x not in ("a", "b")`,
		check: func(t *testing.T, expr syntax.Expr) {
			cmp, ok := expr.(*syntax.Compare)
			require.True(t, ok)
			require.Equal(t, []syntax.CmpOp{syntax.CmpNotIn}, cmp.Ops)
			tuple, isTuple := cmp.Comparators[0].(*syntax.TupleExpr)
			require.True(t, isTuple)
			assert.Len(t, tuple.Elts, 2)
		},
	}, {
		name: "comparison chain",
		src:  "1 <= x < 10",
		check: func(t *testing.T, expr syntax.Expr) {
			cmp, ok := expr.(*syntax.Compare)
			require.True(t, ok)
			assert.Equal(t, []syntax.CmpOp{syntax.CmpLtE, syntax.CmpLt}, cmp.Ops)
			assert.Len(t, cmp.Comparators, 2)
		},
	}, {
		name: "not binds tighter than and",
		src:  "not x and y",
		check: func(t *testing.T, expr syntax.Expr) {
			boolOp, ok := expr.(*syntax.BoolOp)
			require.True(t, ok)
			assert.Equal(t, syntax.BoolAnd, boolOp.Op)
			_, isNot := boolOp.Values[0].(*syntax.UnaryOp)
			assert.True(t, isNot)
		},
	}, {
		name: "and binds tighter than or",
		src:  "a or b and c",
		check: func(t *testing.T, expr syntax.Expr) {
			boolOp, ok := expr.(*syntax.BoolOp)
			require.True(t, ok)
			assert.Equal(t, syntax.BoolOr, boolOp.Op)
			require.Len(t, boolOp.Values, 2)
			inner, isAnd := boolOp.Values[1].(*syntax.BoolOp)
			require.True(t, isAnd)
			assert.Equal(t, syntax.BoolAnd, inner.Op)
		},
	}, {
		name: "attribute and subscript places",
		src:  `a.b[0]["k"].c`,
		check: func(t *testing.T, expr syntax.Expr) {
			attr, ok := expr.(*syntax.Attribute)
			require.True(t, ok)
			assert.Equal(t, "c", attr.Attr)
			sub, ok := attr.Value.(*syntax.Subscript)
			require.True(t, ok)
			_, isStr := sub.Index.(*syntax.StringLit)
			assert.True(t, isStr)
		},
	}, {
		name: "walrus in parentheses",
		src:  "(y := f()) is not None",
		check: func(t *testing.T, expr syntax.Expr) {
			cmp, ok := expr.(*syntax.Compare)
			require.True(t, ok)
			named, ok := cmp.Left.(*syntax.Named)
			require.True(t, ok)
			target, ok := named.Target.(*syntax.Name)
			require.True(t, ok)
			assert.Equal(t, "y", target.Name)
		},
	}, {
		name: "type of comparison",
		src:  "type(x) is int",
		check: func(t *testing.T, expr syntax.Expr) {
			cmp, ok := expr.(*syntax.Compare)
			require.True(t, ok)
			call, ok := cmp.Left.(*syntax.Call)
			require.True(t, ok)
			fn, ok := call.Func.(*syntax.Name)
			require.True(t, ok)
			assert.Equal(t, "type", fn.Name)
		},
	}, {
		name: "negative int literal",
		src:  "x == -3",
		check: func(t *testing.T, expr syntax.Expr) {
			cmp, ok := expr.(*syntax.Compare)
			require.True(t, ok)
			unary, ok := cmp.Comparators[0].(*syntax.UnaryOp)
			require.True(t, ok)
			assert.Equal(t, syntax.UnaryNeg, unary.Op)
		},
	}, {
		name: "escaped string",
		src:  `x == "a\"b"`,
		check: func(t *testing.T, expr syntax.Expr) {
			cmp := expr.(*syntax.Compare)
			lit, ok := cmp.Comparators[0].(*syntax.StringLit)
			require.True(t, ok)
			assert.Equal(t, `a"b`, lit.Value)
		},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := ParseExpression(tc.src)
			require.NoError(t, err)
			tc.check(t, expr)
		})
	}
}

func TestParseExpressionErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"x ==",
		"(x",
		"f(x,",
		"x @ y",
		`"unterminated`,
		"x y",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseExpression(src)
			assert.Error(t, err)
		})
	}
}

func TestParseType(t *testing.T) {
	color := &types.Class{
		Name:        "Color",
		Bases:       []*types.Class{types.ObjectClass},
		EnumMembers: []string{"RED"},
	}
	classes := types.BuiltinClasses()
	classes["Color"] = color

	testCases := []struct {
		src      string
		expected types.Type
	}{
		{"int", types.Instance(types.IntClass)},
		{"None", types.None()},
		{"Any", types.Dynamic()},
		{"Never", types.Never()},
		{"object", types.Object()},
		{"LiteralString", types.LiteralString()},
		{"int | None", types.UnionOf(types.Instance(types.IntClass), types.None())},
		{"Literal[1, 2]", types.UnionOf(&types.IntLiteral{Value: 1}, &types.IntLiteral{Value: 2})},
		{`Literal["a"]`, &types.StringLiteral{Value: "a"}},
		{"Literal[True]", &types.BooleanLiteral{Value: true}},
		{"Literal[-1]", &types.IntLiteral{Value: -1}},
		{"Literal[Color.RED]", &types.EnumLiteral{Class: color, Member: "RED"}},
		{"tuple[int, str]", &types.TupleType{Elements: []types.Type{
			types.Instance(types.IntClass), types.Instance(types.StrClass),
		}}},
		{"type[int]", &types.SubclassOf{Class: types.IntClass}},
		{"type[Any]", &types.SubclassOf{}},
		{"type", types.Instance(types.TypeClass)},
		{"TypeIs[str]", &types.TypeIsType{Guarded: types.Instance(types.StrClass)}},
		{"Color", types.Instance(color)},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			got, err := ParseType(tc.src, classes)
			require.NoError(t, err)
			assert.True(t, types.Equivalent(tc.expected, got),
				"expected %s, got %s", tc.expected, got)
		})
	}

	t.Run("unknown names are errors", func(t *testing.T) {
		_, err := ParseType("Widget", classes)
		assert.Error(t, err)
	})
}
