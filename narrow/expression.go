package narrow

import (
	"unicode"

	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/pyrite-lang/pyrite/syntax"
	"github.com/pyrite-lang/pyrite/types"
)

func (b *builder) expressionConstraints(expr syntax.Expr, positive bool) *Constraints {
	switch expr := expr.(type) {
	case *syntax.Name, *syntax.Attribute, *syntax.Subscript:
		return b.simpleExprConstraints(expr, positive)
	case *syntax.Compare:
		return b.compareConstraints(expr, positive)
	case *syntax.Call:
		return b.callConstraints(expr, positive)
	case *syntax.UnaryOp:
		if expr.Op == syntax.UnaryNot {
			return b.expressionConstraints(expr.Operand, !positive)
		}
		return nil
	case *syntax.BoolOp:
		return b.boolOpConstraints(expr, positive)
	case *syntax.Named:
		return b.simpleExprConstraints(expr.Target, positive)
	default:
		return nil
	}
}

// simpleExprConstraints narrows a place used directly as a condition: a
// truthy branch removes the always-falsy values, a falsy branch the
// always-truthy ones.
func (b *builder) simpleExprConstraints(expr syntax.Expr, positive bool) *Constraints {
	place, ok := semindex.PlaceExprOf(expr)
	if !ok {
		return nil
	}
	var t types.Type
	if positive {
		t = types.Negate(types.AlwaysFalsy())
	} else {
		t = types.Negate(types.AlwaysTruthy())
	}
	return singleConstraint(b.expectPlace(place), t)
}

func isNarrowingTargetCandidate(expr syntax.Expr) bool {
	switch expr.(type) {
	case *syntax.Name, *syntax.Attribute, *syntax.Subscript, *syntax.Call, *syntax.Named:
		return true
	default:
		return false
	}
}

func (b *builder) compareConstraints(expr *syntax.Compare, positive bool) *Constraints {
	candidate := isNarrowingTargetCandidate(expr.Left)
	for _, comparator := range expr.Comparators {
		candidate = candidate || isNarrowingTargetCandidate(comparator)
	}
	if !candidate {
		return nil
	}

	if !positive && len(expr.Comparators) > 1 {
		// The negation of a multi-comparator chain cannot be decomposed per
		// pair: `not (x is 1 is y)` would need the cross-place disjunction
		// `(x is not 1) or (y is not 1)`, which constraints cannot express.
		return nil
	}

	constraints := newConstraints()
	var lastRhsType types.Type

	left := expr.Left
	for i, right := range expr.Comparators {
		op := expr.Ops[i]
		lhsType := lastRhsType
		if lhsType == nil {
			lhsType = b.inference.ExpressionType(left)
		}
		rhsType := b.inference.ExpressionType(right)
		lastRhsType = rhsType

		switch left := left.(type) {
		case *syntax.Name, *syntax.Attribute, *syntax.Subscript, *syntax.Named:
			if place, ok := semindex.PlaceExprOf(left); ok {
				effectiveOp := op
				if !positive {
					effectiveOp = op.Negate()
				}
				if t, ok := b.compareOpConstraint(lhsType, rhsType, effectiveOp); ok {
					constraints = constraints.with(b.expectPlace(place), t)
				}
			}
		case *syntax.Call:
			if t, place, ok := b.typeOfComparisonConstraint(left, rhsType, op, positive); ok {
				constraints = constraints.with(place, t)
			}
		}
		left = right
	}
	return constraints
}

// typeOfComparisonConstraint handles `type(x) is SomeClass` on a comparison
// chain: identity of the dynamic type narrows x to an instance of the class.
func (b *builder) typeOfComparisonConstraint(
	call *syntax.Call,
	rhsType types.Type,
	op syntax.CmpOp,
	positive bool,
) (types.Type, semindex.ScopedPlaceID, bool) {
	if len(call.Keywords) != 0 {
		return nil, 0, false
	}

	var rhsClass *types.Class
	switch rhsType := rhsType.(type) {
	case *types.ClassLiteral:
		rhsClass = rhsType.Class
	case *types.GenericAlias:
		rhsClass = rhsType.Origin
	default:
		return nil, 0, false
	}

	if len(call.Args) != 1 {
		return nil, 0, false
	}
	target, ok := semindex.PlaceExprOf(call.Args[0])
	if !ok {
		return nil, 0, false
	}

	validConstraint := op == syntax.CmpIs
	if !positive {
		validConstraint = op == syntax.CmpIsNot
	}
	if !validConstraint {
		return nil, 0, false
	}

	callee, isClass := b.inference.ExpressionType(call.Func).(*types.ClassLiteral)
	if !isClass || !callee.Class.IsKnown(types.KnownType) {
		return nil, 0, false
	}
	return types.Instance(rhsClass), b.expectPlace(target), true
}

func (b *builder) compareOpConstraint(lhsType, rhsType types.Type, op syntax.CmpOp) (types.Type, bool) {
	switch op {
	case syntax.CmpIsNot:
		if types.IsSingleton(rhsType) {
			return types.NewIntersectionBuilder().AddNegative(rhsType).Build(), true
		}
		// non-singletons cannot be safely excluded by identity
		return nil, false
	case syntax.CmpIs:
		return rhsType, true
	case syntax.CmpEq:
		return b.eqConstraint(lhsType, rhsType)
	case syntax.CmpNotEq:
		return b.neConstraint(lhsType, rhsType)
	case syntax.CmpIn:
		return b.inConstraint(lhsType, rhsType)
	case syntax.CmpNotIn:
		if t, ok := b.inConstraint(lhsType, rhsType); ok {
			return types.Negate(t), true
		}
		return nil, false
	default:
		return nil, false
	}
}

// couldCompareEqual reports whether any two inhabitants of the given types
// may compare equal. Disjoint single-valued types cannot, with one
// exception: booleans alias the integers 0 and 1.
func couldCompareEqual(leftType, rightType types.Type) bool {
	if !types.IsDisjointFrom(leftType, rightType) {
		// overlapping types share inhabitants, and an object compares
		// equal to itself
		return true
	}
	if union, ok := leftType.(*types.UnionType); ok {
		for _, e := range union.Elements {
			if couldCompareEqual(e, rightType) {
				return true
			}
		}
		return false
	}
	if union, ok := rightType.(*types.UnionType); ok {
		for _, e := range union.Elements {
			if couldCompareEqual(leftType, e) {
				return true
			}
		}
		return false
	}
	if b, i, ok := boolIntPair(leftType, rightType); ok {
		return (b && i == 1) || (!b && i == 0)
	}
	return !(types.IsSingleValued(leftType) && types.IsSingleValued(rightType))
}

func boolIntPair(a, b types.Type) (boolValue bool, intValue int64, ok bool) {
	if aBool, isBool := a.(*types.BooleanLiteral); isBool {
		if bInt, isInt := b.(*types.IntLiteral); isInt {
			return aBool.Value, bInt.Value, true
		}
	}
	if bBool, isBool := b.(*types.BooleanLiteral); isBool {
		if aInt, isInt := a.(*types.IntLiteral); isInt {
			return bBool.Value, aInt.Value, true
		}
	}
	return false, 0, false
}

// canNarrowToRhs reports whether lhsType consists only of LiteralString and
// types that cannot compare equal to rhsType, in which case an equality
// check narrows all the way down to rhsType itself.
func canNarrowToRhs(lhsType, rhsType types.Type) bool {
	if union, ok := lhsType.(*types.UnionType); ok {
		for _, e := range union.Elements {
			if !canNarrowToRhs(e, rhsType) {
				return false
			}
		}
		return true
	}
	if _, ok := lhsType.(*types.LiteralStringType); ok {
		// either rhs is a string literal (no other string literal equals
		// it), or it is single-valued and not a string at all
		return true
	}
	return !couldCompareEqual(lhsType, rhsType)
}

// filterToCannotBeEqual keeps just the parts of t that provably cannot
// compare equal to rhsType; bool expands to its two literals and enums to
// their members so individual values can be kept or dropped.
func filterToCannotBeEqual(t, rhsType types.Type) types.Type {
	switch t := t.(type) {
	case *types.UnionType:
		builder := types.NewUnionBuilder()
		for _, e := range t.Elements {
			builder.Add(filterToCannotBeEqual(e, rhsType))
		}
		return builder.Build()
	case *types.NominalInstance:
		if t.Class.IsKnown(types.KnownBool) {
			return types.UnionOf(
				filterToCannotBeEqual(&types.BooleanLiteral{Value: true}, rhsType),
				filterToCannotBeEqual(&types.BooleanLiteral{Value: false}, rhsType),
			)
		}
		if t.Class.IsEnum() {
			builder := types.NewUnionBuilder()
			for _, member := range t.Class.EnumMemberLiterals() {
				builder.Add(filterToCannotBeEqual(member, rhsType))
			}
			return builder.Build()
		}
	}
	if types.IsSingleValued(t) && !couldCompareEqual(t, rhsType) {
		return t
	}
	return types.Never()
}

func (b *builder) eqConstraint(lhsType, rhsType types.Type) (types.Type, bool) {
	// equality only narrows against single-valued types: for anything else
	// a user-defined __eq__ could relate arbitrary values
	if !types.IsSingleValued(rhsType) && !types.IsUnionOfSingleValued(rhsType) {
		return nil, false
	}
	if canNarrowToRhs(lhsType, rhsType) {
		return rhsType, true
	}
	return types.Negate(filterToCannotBeEqual(lhsType, rhsType)), true
}

func (b *builder) neConstraint(lhsType, rhsType types.Type) (types.Type, bool) {
	if lhs, ok := lhsType.(*types.NominalInstance); ok && lhs.Class.IsKnown(types.KnownBool) {
		if rhs, isInt := rhsType.(*types.IntLiteral); isInt {
			switch rhs.Value {
			case 0:
				return types.Negate(&types.BooleanLiteral{Value: false}), true
			case 1:
				return types.Negate(&types.BooleanLiteral{Value: true}), true
			default:
				// a bool never equals an int outside {0, 1}: the test is
				// always true and excludes nothing
				return nil, false
			}
		}
	}
	if rhs, ok := rhsType.(*types.BooleanLiteral); ok {
		alias := int64(0)
		if rhs.Value {
			alias = 1
		}
		return types.Negate(types.UnionOf(rhsType, &types.IntLiteral{Value: alias})), true
	}
	if types.IsSingleValued(rhsType) {
		return types.Negate(rhsType), true
	}
	return nil, false
}

func (b *builder) inConstraint(lhsType, rhsType types.Type) (types.Type, bool) {
	if !types.IsSingleValued(lhsType) && !types.IsUnionOfSingleValued(lhsType) {
		return nil, false
	}
	switch rhsType := rhsType.(type) {
	case *types.TupleType:
		return types.UnionOf(rhsType.Elements...), true
	case *types.StringLiteral:
		builder := types.NewUnionBuilder()
		for _, char := range rhsType.Value {
			builder.Add(&types.StringLiteral{Value: string(char)})
		}
		return builder.Build(), true
	default:
		return nil, false
	}
}

func (b *builder) callConstraints(call *syntax.Call, positive bool) *Constraints {
	calleeType := b.inference.ExpressionType(call.Func)

	switch callee := calleeType.(type) {
	case *types.FunctionLiteral:
		if callee.Known == types.KnownFunctionNone || callee.Known == types.KnownRevealType {
			return b.typeGuardConstraints(call, positive)
		}
		if len(call.Keywords) != 0 || len(call.Args) != 2 {
			return nil
		}
		firstArg, ok := semindex.PlaceExprOf(call.Args[0])
		if !ok {
			return nil
		}
		place := b.expectPlace(firstArg)

		if callee.Known == types.KnownHasAttr {
			return b.hasAttrConstraints(call.Args[1], place, positive)
		}

		var fn classInfoFunction
		switch callee.Known {
		case types.KnownIsInstance:
			fn = classInfoIsInstance
		case types.KnownIsSubclass:
			fn = classInfoIsSubclass
		default:
			return nil
		}
		constraint, ok := fn.constraint(b.inference.ExpressionType(call.Args[1]))
		if !ok {
			return nil
		}
		return singleConstraint(place, types.NegateIf(constraint, !positive))

	case *types.ClassLiteral:
		// bool(E) narrows exactly as E itself would
		if callee.Class.IsKnown(types.KnownBool) &&
			len(call.Args) == 1 && len(call.Keywords) == 0 {
			return b.expressionConstraints(call.Args[0], positive)
		}
		return nil

	default:
		return nil
	}
}

// typeGuardConstraints applies a TypeIs-returning function: when the call
// returns true the guarded place has the guarded type.
func (b *builder) typeGuardConstraints(call *syntax.Call, positive bool) *Constraints {
	guard, ok := b.inference.ExpressionType(call).(*types.TypeIsType)
	if !ok || !guard.Bound {
		return nil
	}
	place := semindex.ScopedPlaceID(guard.Place)
	return singleConstraint(place, types.NegateIf(guard.Guarded, !positive))
}

// hasAttrConstraints narrows to a synthetic protocol with one read-only
// member. hasattr only proves the attribute is readable, so the member type
// is plain object.
func (b *builder) hasAttrConstraints(attrArg syntax.Expr, place semindex.ScopedPlaceID, positive bool) *Constraints {
	attr, ok := b.inference.ExpressionType(attrArg).(*types.StringLiteral)
	if !ok || !isIdentifier(attr.Value) {
		return nil
	}
	constraint := &types.ProtocolInstance{
		Members: []types.ProtocolMember{{Name: attr.Value, Type: types.Object()}},
	}
	return singleConstraint(place, types.NegateIf(constraint, !positive))
}

func (b *builder) boolOpConstraints(expr *syntax.BoolOp, positive bool) *Constraints {
	decidedTruthiness := types.AlwaysTrue
	if expr.Op == syntax.BoolOr {
		decidedTruthiness = types.AlwaysFalse
	}

	// operands whose truthiness statically decides the combinator cannot be
	// "the" operand the branch hinges on, so they contribute no constraint
	subConstraints := make([]*Constraints, 0, len(expr.Values))
	for _, operand := range expr.Values {
		if types.TruthinessOf(b.inference.ExpressionType(operand)) == decidedTruthiness {
			continue
		}
		subConstraints = append(subConstraints, b.expressionConstraints(operand, positive))
	}

	if (expr.Op == syntax.BoolAnd) == positive {
		// every operand holds: intersect per place, skipping operands that
		// contribute nothing
		var aggregation *Constraints
		for _, sub := range subConstraints {
			if sub == nil {
				continue
			}
			if aggregation == nil {
				aggregation = sub
			} else {
				aggregation = mergeAnd(aggregation, sub)
			}
		}
		return aggregation
	}

	// at least one operand holds: a place stays refined only when every
	// operand refines it, and a single unknown operand poisons the union
	if len(subConstraints) == 0 {
		return nil
	}
	first := subConstraints[0]
	if first == nil {
		return nil
	}
	for _, rest := range subConstraints[1:] {
		if rest == nil {
			return nil
		}
		first = mergeOr(first, rest)
	}
	return first
}

// isIdentifier reports whether s is a valid Python identifier, which is what
// hasattr narrowing requires of its attribute name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
