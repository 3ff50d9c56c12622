// Package infer is the narrowing engine's boundary to type inference. The
// engine only ever asks for the already-inferred static type of an
// expression; it never infers anything itself.
package infer

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/pyrite-lang/pyrite/internal/log"
	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/pyrite-lang/pyrite/syntax"
	"github.com/pyrite-lang/pyrite/types"
)

var logger = log.DefaultLogger.With("section", "types.infer")

// Types supplies the static type of expressions. Implementations must be
// side-effect-free from the engine's perspective and cacheable by expression
// identity; they may consult the narrowing engine for flow-sensitive name
// types, which is the recursion the engine's cycle recovery exists for.
type Types interface {
	ExpressionType(expr syntax.Expr) types.Type
}

// Env is a declaration-driven implementation of Types: places, classes and
// functions are declared up front, and expressions are typed bottom-up from
// literals and declarations. It stands in for the checker's full inference
// stage in the CLI and in tests.
type Env struct {
	Scope     *semindex.Scope
	declared  map[string]types.Type
	classes   map[string]*types.Class
	functions map[string]*types.FunctionLiteral
	modules   *set.Set[string]
	cache     map[syntax.Expr]types.Type
}

func NewEnv(scope *semindex.Scope) *Env {
	env := &Env{
		Scope:     scope,
		declared:  make(map[string]types.Type),
		classes:   make(map[string]*types.Class),
		functions: make(map[string]*types.FunctionLiteral),
		modules:   set.New[string](0),
		cache:     make(map[syntax.Expr]types.Type),
	}
	for name, class := range types.BuiltinClasses() {
		env.classes[name] = class
	}
	env.functions["isinstance"] = &types.FunctionLiteral{Name: "isinstance", Known: types.KnownIsInstance}
	env.functions["issubclass"] = &types.FunctionLiteral{Name: "issubclass", Known: types.KnownIsSubclass}
	env.functions["hasattr"] = &types.FunctionLiteral{Name: "hasattr", Known: types.KnownHasAttr}
	return env
}

// Declare records the static type of a place, by its canonical key.
func (env *Env) Declare(placeKey string, t types.Type) {
	env.declared[placeKey] = t
}

// DefineClass makes a class name resolvable as a class literal.
func (env *Env) DefineClass(class *types.Class) {
	env.classes[class.Name] = class
}

// DefineFunction makes a function name resolvable as a function literal.
func (env *Env) DefineFunction(fn *types.FunctionLiteral) {
	env.functions[fn.Name] = fn
}

// DefineModule makes a name resolvable as a module literal.
func (env *Env) DefineModule(name string) {
	env.modules.Insert(name)
}

// ExpressionType types an expression bottom-up. Expressions it cannot type
// are Dynamic, never an error.
func (env *Env) ExpressionType(expr syntax.Expr) types.Type {
	if cached, ok := env.cache[expr]; ok {
		return cached
	}
	t := env.expressionType(expr)
	env.cache[expr] = t
	return t
}

func (env *Env) expressionType(expr syntax.Expr) types.Type {
	switch expr := expr.(type) {
	case *syntax.IntLit:
		return &types.IntLiteral{Value: expr.Value}
	case *syntax.StringLit:
		return &types.StringLiteral{Value: expr.Value}
	case *syntax.BytesLit:
		return &types.BytesLiteral{Value: expr.Value}
	case *syntax.BoolLit:
		return &types.BooleanLiteral{Value: expr.Value}
	case *syntax.NoneLit:
		return types.None()
	case *syntax.TupleExpr:
		elements := make([]types.Type, 0, len(expr.Elts))
		for _, e := range expr.Elts {
			elements = append(elements, env.ExpressionType(e))
		}
		return &types.TupleType{Elements: elements}
	case *syntax.UnaryOp:
		return env.unaryType(expr)
	case *syntax.Named:
		return env.ExpressionType(expr.Value)
	case *syntax.Name:
		return env.nameType(expr.Name)
	case *syntax.Attribute:
		return env.attributeType(expr)
	case *syntax.Subscript:
		return env.placeOrDynamic(expr)
	case *syntax.BoolOp:
		// the static type of `a or b` is the union of the operand types;
		// precise per-branch typing is narrowing's job, not ours
		builder := types.NewUnionBuilder()
		for _, v := range expr.Values {
			builder.Add(env.ExpressionType(v))
		}
		return builder.Build()
	case *syntax.Compare:
		return types.Instance(types.BoolClass)
	case *syntax.Call:
		return env.callType(expr)
	default:
		return types.Dynamic()
	}
}

func (env *Env) unaryType(expr *syntax.UnaryOp) types.Type {
	switch expr.Op {
	case syntax.UnaryNot:
		return types.Instance(types.BoolClass)
	case syntax.UnaryNeg:
		if operand, ok := expr.Operand.(*syntax.IntLit); ok {
			return &types.IntLiteral{Value: -operand.Value}
		}
	case syntax.UnaryPos:
		if operand, ok := expr.Operand.(*syntax.IntLit); ok {
			return &types.IntLiteral{Value: operand.Value}
		}
	}
	return types.Dynamic()
}

func (env *Env) nameType(name string) types.Type {
	if t, ok := env.declared[name]; ok {
		return t
	}
	if class, ok := env.classes[name]; ok {
		return &types.ClassLiteral{Class: class}
	}
	if fn, ok := env.functions[name]; ok {
		return fn
	}
	if env.modules.Contains(name) {
		return &types.ModuleLiteral{Name: name}
	}
	logger.Debug("undeclared name, typing as dynamic", "name", name)
	return types.Dynamic()
}

func (env *Env) attributeType(expr *syntax.Attribute) types.Type {
	// enum member access: Color.RED
	if base, ok := expr.Value.(*syntax.Name); ok {
		if class, isClass := env.classes[base.Name]; isClass && class.IsEnum() {
			for _, member := range class.EnumMembers {
				if member == expr.Attr {
					return &types.EnumLiteral{Class: class, Member: expr.Attr}
				}
			}
		}
	}
	return env.placeOrDynamic(expr)
}

func (env *Env) placeOrDynamic(expr syntax.Expr) types.Type {
	place, ok := semindex.PlaceExprOf(expr)
	if !ok {
		return types.Dynamic()
	}
	if t, declared := env.declared[place.Key()]; declared {
		return t
	}
	return types.Dynamic()
}

func (env *Env) callType(expr *syntax.Call) types.Type {
	callee := env.ExpressionType(expr.Func)
	switch callee := callee.(type) {
	case *types.ClassLiteral:
		return types.Instance(callee.Class)
	case *types.FunctionLiteral:
		return env.returnType(callee, expr)
	case *types.CallableType:
		if callee.Return != nil {
			return callee.Return
		}
	}
	return types.Dynamic()
}

// returnType resolves a function literal's declared return type at a call
// site; an unbound TypeIs return binds to the place of the first argument.
func (env *Env) returnType(fn *types.FunctionLiteral, call *syntax.Call) types.Type {
	guard, isGuard := fn.Returns.(*types.TypeIsType)
	if !isGuard {
		if fn.Returns == nil {
			return types.Dynamic()
		}
		return fn.Returns
	}
	if guard.Bound || len(call.Args) == 0 {
		return guard
	}
	place, ok := semindex.PlaceExprOf(call.Args[0])
	if !ok {
		return guard
	}
	id, ok := env.Scope.PlaceID(place)
	if !ok {
		return guard
	}
	return &types.TypeIsType{Guarded: guard.Guarded, Place: int(id), Bound: true}
}
