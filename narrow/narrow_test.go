package narrow

import (
	"sync/atomic"
	"testing"

	"github.com/pyrite-lang/pyrite/infer"
	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/pyrite-lang/pyrite/syntax"
	"github.com/pyrite-lang/pyrite/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func name(s string) *syntax.Name            { return &syntax.Name{Name: s} }
func intLit(v int64) *syntax.IntLit         { return &syntax.IntLit{Value: v} }
func strLit(s string) *syntax.StringLit     { return &syntax.StringLit{Value: s} }
func boolLit(v bool) *syntax.BoolLit        { return &syntax.BoolLit{Value: v} }
func noneLit() *syntax.NoneLit              { return &syntax.NoneLit{} }
func tuple(elts ...syntax.Expr) syntax.Expr { return &syntax.TupleExpr{Elts: elts} }

func compare(left syntax.Expr, op syntax.CmpOp, right syntax.Expr) *syntax.Compare {
	return &syntax.Compare{Left: left, Ops: []syntax.CmpOp{op}, Comparators: []syntax.Expr{right}}
}

func call(fn string, args ...syntax.Expr) *syntax.Call {
	return &syntax.Call{Func: name(fn), Args: args}
}

func not(e syntax.Expr) *syntax.UnaryOp {
	return &syntax.UnaryOp{Op: syntax.UnaryNot, Operand: e}
}

func boolOp(op syntax.BoolOpKind, values ...syntax.Expr) *syntax.BoolOp {
	return &syntax.BoolOp{Op: op, Values: values}
}

type fixture struct {
	scope *semindex.Scope
	env   *infer.Env
	eval  *Evaluator
}

func newFixture() *fixture {
	scope := semindex.NewScope("test")
	env := infer.NewEnv(scope)
	return &fixture{scope: scope, env: env, eval: NewEvaluator(env)}
}

// narrowName evaluates cond under the given polarity and returns the
// constraint it places on a simple name.
func (f *fixture) narrowName(t *testing.T, cond syntax.Expr, positive bool, root string) (types.Type, bool) {
	t.Helper()
	f.scope.IndexExpression(cond)
	id, ok := f.scope.PlaceID(semindex.PlaceExpr{Root: root})
	require.True(t, ok, "place %q not indexed by %s", root, cond)
	predicate := semindex.Predicate{
		Node:       &semindex.ExpressionPredicate{Expr: cond, InScope: f.scope},
		IsPositive: positive,
	}
	return f.eval.Narrow(predicate, id)
}

func assertNarrows(t *testing.T, want, got types.Type) {
	t.Helper()
	assert.True(t, types.Equivalent(want, got), "expected %s, got %s", want, got)
}

func TestNarrowExpressions(t *testing.T) {
	intInstance := types.Instance(types.IntClass)
	strInstance := types.Instance(types.StrClass)
	boolInstance := types.Instance(types.BoolClass)
	literalTrue := &types.BooleanLiteral{Value: true}
	literalFalse := &types.BooleanLiteral{Value: false}

	testCases := []struct {
		name     string
		declared map[string]types.Type
		cond     syntax.Expr
		positive bool
		place    string
		want     types.Type // nil means "no constraint on place"
	}{{
		name:     "truthy name",
		cond:     name("x"),
		positive: true,
		place:    "x",
		want:     types.Negate(types.AlwaysFalsy()),
	}, {
		name:     "falsy name",
		cond:     name("x"),
		positive: false,
		place:    "x",
		want:     types.Negate(types.AlwaysTruthy()),
	}, {
		name:     "not flips polarity",
		cond:     not(name("x")),
		positive: true,
		place:    "x",
		want:     types.Negate(types.AlwaysTruthy()),
	}, {
		name:     "isinstance",
		cond:     call("isinstance", name("x"), name("int")),
		positive: true,
		place:    "x",
		want:     intInstance,
	}, {
		name:     "isinstance on else branch",
		cond:     call("isinstance", name("x"), name("int")),
		positive: false,
		place:    "x",
		want:     types.Negate(intInstance),
	}, {
		name:     "isinstance with tuple classinfo",
		cond:     call("isinstance", name("x"), tuple(name("int"), name("str"))),
		positive: true,
		place:    "x",
		want:     types.UnionOf(intInstance, strInstance),
	}, {
		name: "isinstance with keyword argument",
		cond: &syntax.Call{
			Func:     name("isinstance"),
			Args:     []syntax.Expr{name("x"), name("int")},
			Keywords: []syntax.Keyword{{Name: "obj", Value: name("x")}},
		},
		positive: true,
		place:    "x",
		want:     nil,
	}, {
		name:     "issubclass",
		cond:     call("issubclass", name("x"), name("int")),
		positive: true,
		place:    "x",
		want:     &types.SubclassOf{Class: types.IntClass},
	}, {
		name:     "is None",
		cond:     compare(name("x"), syntax.CmpIs, noneLit()),
		positive: true,
		place:    "x",
		want:     types.None(),
	}, {
		name:     "is None on else branch",
		cond:     compare(name("x"), syntax.CmpIs, noneLit()),
		positive: false,
		place:    "x",
		want:     types.Negate(types.None()),
	}, {
		name:     "is not None",
		cond:     compare(name("x"), syntax.CmpIsNot, noneLit()),
		positive: true,
		place:    "x",
		want:     types.Negate(types.None()),
	}, {
		name:     "is not a non-singleton cannot exclude",
		declared: map[string]types.Type{"y": intInstance},
		cond:     compare(name("x"), syntax.CmpIsNot, name("y")),
		positive: true,
		place:    "x",
		want:     nil,
	}, {
		name:     "equality narrows LiteralString to the literal",
		declared: map[string]types.Type{"x": types.LiteralString()},
		cond:     compare(name("x"), syntax.CmpEq, strLit("a")),
		positive: true,
		place:    "x",
		want:     &types.StringLiteral{Value: "a"},
	}, {
		name:     "bool equal to 1 excludes False",
		declared: map[string]types.Type{"x": boolInstance},
		cond:     compare(name("x"), syntax.CmpEq, intLit(1)),
		positive: true,
		place:    "x",
		want:     types.Negate(literalFalse),
	}, {
		name:     "bool not equal to 0 excludes False",
		declared: map[string]types.Type{"x": boolInstance},
		cond:     compare(name("x"), syntax.CmpNotEq, intLit(0)),
		positive: true,
		place:    "x",
		want:     types.Negate(literalFalse),
	}, {
		name:     "bool compared to an int outside 0 and 1",
		declared: map[string]types.Type{"x": boolInstance},
		cond:     compare(name("x"), syntax.CmpNotEq, intLit(7)),
		positive: true,
		place:    "x",
		want:     nil,
	}, {
		name:     "not equal True also excludes 1",
		cond:     compare(name("x"), syntax.CmpNotEq, boolLit(true)),
		positive: true,
		place:    "x",
		want:     types.Negate(types.UnionOf(literalTrue, &types.IntLiteral{Value: 1})),
	}, {
		name: "equality against a non-single-valued rhs",
		declared: map[string]types.Type{
			"x": intInstance,
			"y": intInstance,
		},
		cond:     compare(name("x"), syntax.CmpEq, name("y")),
		positive: true,
		place:    "x",
		want:     nil,
	}, {
		name: "in tuple",
		declared: map[string]types.Type{
			"x": types.UnionOf(&types.IntLiteral{Value: 1}, &types.IntLiteral{Value: 5}),
		},
		cond:     compare(name("x"), syntax.CmpIn, tuple(intLit(1), intLit(2))),
		positive: true,
		place:    "x",
		want:     types.UnionOf(&types.IntLiteral{Value: 1}, &types.IntLiteral{Value: 2}),
	}, {
		name: "not in tuple",
		declared: map[string]types.Type{
			"x": types.UnionOf(&types.StringLiteral{Value: "a"}, &types.StringLiteral{Value: "b"}),
		},
		cond:     compare(name("x"), syntax.CmpNotIn, tuple(strLit("a"))),
		positive: true,
		place:    "x",
		want:     types.Negate(&types.StringLiteral{Value: "a"}),
	}, {
		name: "in string iterates characters",
		declared: map[string]types.Type{
			"x": &types.StringLiteral{Value: "a"},
		},
		cond:     compare(name("x"), syntax.CmpIn, strLit("abc")),
		positive: true,
		place:    "x",
		want: types.UnionOf(
			&types.StringLiteral{Value: "a"},
			&types.StringLiteral{Value: "b"},
			&types.StringLiteral{Value: "c"},
		),
	}, {
		name:     "hasattr",
		cond:     call("hasattr", name("x"), strLit("foo")),
		positive: true,
		place:    "x",
		want: &types.ProtocolInstance{
			Members: []types.ProtocolMember{{Name: "foo", Type: types.Object()}},
		},
	}, {
		name:     "hasattr with a non-identifier attribute",
		cond:     call("hasattr", name("x"), strLit("not an attr")),
		positive: true,
		place:    "x",
		want:     nil,
	}, {
		name:     "bool call is transparent",
		cond:     call("bool", name("x")),
		positive: true,
		place:    "x",
		want:     types.Negate(types.AlwaysFalsy()),
	}, {
		name:     "type of x is a class",
		cond:     compare(call("type", name("x")), syntax.CmpIs, name("int")),
		positive: true,
		place:    "x",
		want:     intInstance,
	}, {
		name:     "type of x is a class on else branch",
		cond:     compare(call("type", name("x")), syntax.CmpIs, name("int")),
		positive: false,
		place:    "x",
		want:     nil,
	}, {
		name:     "type of x is not a class on else branch",
		cond:     compare(call("type", name("x")), syntax.CmpIsNot, name("int")),
		positive: false,
		place:    "x",
		want:     intInstance,
	}, {
		name: "and combines per place",
		cond: boolOp(syntax.BoolAnd,
			compare(name("x"), syntax.CmpIs, noneLit()),
			call("isinstance", name("y"), name("int"))),
		positive: true,
		place:    "y",
		want:     intInstance,
	}, {
		name: "or unions constraints on a shared place",
		cond: boolOp(syntax.BoolOr,
			compare(name("x"), syntax.CmpIs, noneLit()),
			compare(name("x"), syntax.CmpIs, boolLit(true))),
		positive: true,
		place:    "x",
		want:     types.UnionOf(types.None(), literalTrue),
	}, {
		name: "or widens a one-sided place to object",
		cond: boolOp(syntax.BoolOr,
			compare(name("x"), syntax.CmpIs, noneLit()),
			compare(name("y"), syntax.CmpIs, noneLit())),
		positive: true,
		place:    "x",
		want:     types.Object(),
	}, {
		name: "negated or intersects the negations",
		cond: not(boolOp(syntax.BoolOr,
			compare(name("x"), syntax.CmpIs, noneLit()),
			compare(name("x"), syntax.CmpIs, boolLit(true)))),
		positive: true,
		place:    "x",
		want: types.NewIntersectionBuilder().
			AddNegative(types.None()).
			AddNegative(literalTrue).
			Build(),
	}, {
		name: "statically true operand contributes nothing",
		cond: boolOp(syntax.BoolAnd,
			boolLit(true),
			compare(name("x"), syntax.CmpIs, noneLit())),
		positive: true,
		place:    "x",
		want:     types.None(),
	}, {
		name: "negated comparison chain is not decomposable",
		cond: &syntax.Compare{
			Left:        name("x"),
			Ops:         []syntax.CmpOp{syntax.CmpIs, syntax.CmpIs},
			Comparators: []syntax.Expr{intLit(1), name("y")},
		},
		positive: false,
		place:    "x",
		want:     nil,
	}, {
		name: "ordering comparisons do not narrow",
		cond: compare(name("x"), syntax.CmpLt, intLit(1)),

		positive: true,
		place:    "x",
		want:     nil,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			for key, declared := range tc.declared {
				f.env.Declare(key, declared)
			}
			got, ok := f.narrowName(t, tc.cond, tc.positive, tc.place)
			if tc.want == nil {
				assert.False(t, ok, "expected no constraint, got %s", got)
				return
			}
			require.True(t, ok, "expected %s, got no constraint", tc.want)
			assertNarrows(t, tc.want, got)
		})
	}
}

func TestNarrowTypeGuard(t *testing.T) {
	strInstance := types.Instance(types.StrClass)

	f := newFixture()
	f.env.DefineFunction(&types.FunctionLiteral{
		Name:    "is_str",
		Returns: &types.TypeIsType{Guarded: strInstance},
	})

	cond := call("is_str", name("x"))

	got, ok := f.narrowName(t, cond, true, "x")
	require.True(t, ok)
	assertNarrows(t, strInstance, got)

	got, ok = f.narrowName(t, cond, false, "x")
	require.True(t, ok)
	assertNarrows(t, types.Negate(strInstance), got)
}

func TestNarrowWalrus(t *testing.T) {
	f := newFixture()
	cond := call("isinstance",
		&syntax.Named{Target: name("x"), Value: name("y")},
		name("int"))

	got, ok := f.narrowName(t, cond, true, "x")
	require.True(t, ok)
	assertNarrows(t, types.Instance(types.IntClass), got)
}

func TestNarrowAttributePlace(t *testing.T) {
	f := newFixture()
	attr := &syntax.Attribute{Value: name("obj"), Attr: "field"}
	cond := compare(attr, syntax.CmpIs, noneLit())
	f.scope.IndexExpression(cond)

	id, ok := f.scope.PlaceID(semindex.PlaceExpr{
		Root: "obj",
		Path: []semindex.PlaceSegment{{Kind: semindex.SegmentAttr, Attr: "field"}},
	})
	require.True(t, ok)

	predicate := semindex.Predicate{
		Node:       &semindex.ExpressionPredicate{Expr: cond, InScope: f.scope},
		IsPositive: true,
	}
	got, ok := f.eval.Narrow(predicate, id)
	require.True(t, ok)
	assertNarrows(t, types.None(), got)
}

func TestNarrowEnumEquality(t *testing.T) {
	color := &types.Class{
		Name:        "Color",
		Bases:       []*types.Class{types.ObjectClass},
		EnumMembers: []string{"RED", "GREEN"},
	}

	f := newFixture()
	f.env.DefineClass(color)
	f.env.Declare("x", types.Instance(color))

	// x != Color.RED keeps only the other members
	cond := compare(name("x"), syntax.CmpNotEq,
		&syntax.Attribute{Value: name("Color"), Attr: "RED"})

	got, ok := f.narrowName(t, cond, true, "x")
	require.True(t, ok)
	assertNarrows(t, types.Negate(&types.EnumLiteral{Class: color, Member: "RED"}), got)
}

func TestNarrowPatterns(t *testing.T) {
	intInstance := types.Instance(types.IntClass)
	literalTrue := &types.BooleanLiteral{Value: true}

	testCases := []struct {
		name     string
		pattern  syntax.Pattern
		positive bool
		want     types.Type
	}{{
		name:     "singleton None",
		pattern:  &syntax.MatchSingleton{Value: syntax.SingletonNone},
		positive: true,
		want:     types.None(),
	}, {
		name:     "singleton None on miss",
		pattern:  &syntax.MatchSingleton{Value: syntax.SingletonNone},
		positive: false,
		want:     types.Negate(types.None()),
	}, {
		name:     "singleton True",
		pattern:  &syntax.MatchSingleton{Value: syntax.SingletonTrue},
		positive: true,
		want:     literalTrue,
	}, {
		name:     "value pattern",
		pattern:  &syntax.MatchValue{Value: intLit(42)},
		positive: true,
		want:     &types.IntLiteral{Value: 42},
	}, {
		name:     "irrefutable class pattern",
		pattern:  &syntax.MatchClass{Cls: name("int")},
		positive: true,
		want:     intInstance,
	}, {
		name: "refutable class pattern on miss",
		pattern: &syntax.MatchClass{
			Cls:      name("int"),
			Patterns: []syntax.Pattern{&syntax.MatchValue{Value: intLit(0)}},
		},
		positive: false,
		want:     nil,
	}, {
		name: "or pattern",
		pattern: &syntax.MatchOr{Patterns: []syntax.Pattern{
			&syntax.MatchSingleton{Value: syntax.SingletonNone},
			&syntax.MatchValue{Value: intLit(42)},
		}},
		positive: true,
		want:     types.UnionOf(types.None(), &types.IntLiteral{Value: 42}),
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			subject := name("subject")
			f.scope.IndexExpression(subject)
			f.scope.IndexPattern(tc.pattern)

			predicate := semindex.Predicate{
				Node: &semindex.PatternPredicate{
					Subject: subject,
					Kind:    semindex.ClassifyPattern(tc.pattern),
					InScope: f.scope,
				},
				IsPositive: tc.positive,
			}
			id, ok := f.scope.PlaceID(semindex.PlaceExpr{Root: "subject"})
			require.True(t, ok)

			got, ok := f.eval.Narrow(predicate, id)
			if tc.want == nil {
				assert.False(t, ok, "expected no constraint, got %s", got)
				return
			}
			require.True(t, ok, "expected %s, got no constraint", tc.want)
			assertNarrows(t, tc.want, got)
		})
	}
}

func TestNarrowResultsAreCached(t *testing.T) {
	f := newFixture()
	cond := call("isinstance", name("x"), name("int"))
	f.scope.IndexExpression(cond)
	predicate := semindex.Predicate{
		Node:       &semindex.ExpressionPredicate{Expr: cond, InScope: f.scope},
		IsPositive: true,
	}

	first := f.eval.ConstraintsFor(predicate)
	second := f.eval.ConstraintsFor(predicate)
	assert.True(t, equalConstraints(first, second))
}

// reentrantInference simulates inference consulting the evaluator while the
// evaluator is mid-query, which is how narrowing cycles arise in practice.
type reentrantInference struct {
	inner     *infer.Env
	eval      *Evaluator
	predicate semindex.Predicate
}

func (r *reentrantInference) ExpressionType(expr syntax.Expr) types.Type {
	if r.eval != nil {
		r.eval.ConstraintsFor(r.predicate)
	}
	return r.inner.ExpressionType(expr)
}

func TestNarrowCycleRecovery(t *testing.T) {
	scope := semindex.NewScope("test")
	env := infer.NewEnv(scope)
	inference := &reentrantInference{inner: env}
	eval := NewEvaluator(inference)

	cond := call("isinstance", name("x"), name("int"))
	scope.IndexExpression(cond)
	predicate := semindex.Predicate{
		Node:       &semindex.ExpressionPredicate{Expr: cond, InScope: scope},
		IsPositive: true,
	}
	inference.eval = eval
	inference.predicate = predicate

	id, ok := scope.PlaceID(semindex.PlaceExpr{Root: "x"})
	require.True(t, ok)

	// must terminate and still produce the isinstance constraint
	got, ok := eval.Narrow(predicate, id)
	require.True(t, ok)
	assertNarrows(t, types.Instance(types.IntClass), got)
}

// blockingInference parks the first inference call until released, holding
// one evaluation mid-query so another goroutine can issue the same query
// while it is in flight. Later calls, including those from other
// goroutines, pass straight through.
type blockingInference struct {
	inner   *infer.Env
	entered chan struct{}
	release chan struct{}
	parked  atomic.Bool
}

func (b *blockingInference) ExpressionType(expr syntax.Expr) types.Type {
	if b.parked.CompareAndSwap(false, true) {
		close(b.entered)
		<-b.release
	}
	return b.inner.ExpressionType(expr)
}

func TestNarrowConcurrentSameQuery(t *testing.T) {
	scope := semindex.NewScope("test")
	env := infer.NewEnv(scope)
	inference := &blockingInference{
		inner:   env,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	eval := NewEvaluator(inference)

	cond := call("isinstance", name("x"), name("int"))
	scope.IndexExpression(cond)
	predicate := semindex.Predicate{
		Node:       &semindex.ExpressionPredicate{Expr: cond, InScope: scope},
		IsPositive: true,
	}
	id, ok := scope.PlaceID(semindex.PlaceExpr{Root: "x"})
	require.True(t, ok)

	type answer struct {
		constraint types.Type
		ok         bool
	}
	first := make(chan answer)
	go func() {
		constraint, ok := eval.Narrow(predicate, id)
		first <- answer{constraint, ok}
	}()
	<-inference.entered

	// the first query is parked inside inference. The same query from a
	// second goroutine is not a cycle of the first: it must compute the
	// real constraint rather than be handed a provisional nil.
	got, ok := eval.Narrow(predicate, id)
	require.True(t, ok)
	assertNarrows(t, types.Instance(types.IntClass), got)

	close(inference.release)
	parked := <-first
	require.True(t, parked.ok)
	assertNarrows(t, types.Instance(types.IntClass), parked.constraint)
}

// mutualInference types two names by consulting the evaluator about each
// other's predicates, forming a two-query cycle. The class it reports for
// the classinfo name depends on whether the first query has converged, so
// a constraint cached against a provisional value is visible in the result.
type mutualInference struct {
	inner  *infer.Env
	eval   *Evaluator
	xExpr  syntax.Expr
	clsRef syntax.Expr
	first  semindex.Predicate
	second semindex.Predicate
}

func (m *mutualInference) ExpressionType(expr syntax.Expr) types.Type {
	switch expr {
	case m.xExpr:
		m.eval.ConstraintsFor(m.second)
	case m.clsRef:
		if m.eval.ConstraintsFor(m.first) == nil {
			return &types.ClassLiteral{Class: types.IntClass}
		}
		return &types.ClassLiteral{Class: types.StrClass}
	}
	return m.inner.ExpressionType(expr)
}

func TestNarrowMutualCycleConverges(t *testing.T) {
	scope := semindex.NewScope("test")
	env := infer.NewEnv(scope)
	env.Declare("x", types.Instance(types.IntClass))

	xExpr := name("x")
	condFirst := compare(xExpr, syntax.CmpEq, intLit(1))
	clsRef := name("T")
	condSecond := call("isinstance", name("y"), clsRef)
	scope.IndexExpression(condFirst)
	scope.IndexExpression(condSecond)

	inference := &mutualInference{inner: env, xExpr: xExpr, clsRef: clsRef}
	eval := NewEvaluator(inference)
	inference.eval = eval
	inference.first = semindex.Predicate{
		Node:       &semindex.ExpressionPredicate{Expr: condFirst, InScope: scope},
		IsPositive: true,
	}
	inference.second = semindex.Predicate{
		Node:       &semindex.ExpressionPredicate{Expr: condSecond, InScope: scope},
		IsPositive: true,
	}

	yID, ok := scope.PlaceID(semindex.PlaceExpr{Root: "y"})
	require.True(t, ok)

	require.NotNil(t, eval.ConstraintsFor(inference.first))

	// mid-cycle the isinstance query saw the provisional class; once the
	// cycle converges it must be recomputed against the final state, not
	// served from the cache
	got, ok := eval.Narrow(inference.second, yID)
	require.True(t, ok)
	assertNarrows(t, types.Instance(types.StrClass), got)
}
