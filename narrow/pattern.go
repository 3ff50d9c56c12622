package narrow

import (
	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/pyrite-lang/pyrite/syntax"
	"github.com/pyrite-lang/pyrite/types"
)

func (b *builder) patternConstraints(node *semindex.PatternPredicate, positive bool) *Constraints {
	result := b.patternKindConstraints(node.Kind, node.Subject, positive)
	return negateAllIf(result, !positive)
}

func (b *builder) patternKindConstraints(
	kind semindex.PatternPredicateKind,
	subject syntax.Expr,
	positive bool,
) *Constraints {
	switch kind := kind.(type) {
	case semindex.SingletonKind:
		place, ok := semindex.PlaceExprOf(subject)
		if !ok {
			return nil
		}
		return singleConstraint(b.expectPlace(place), singletonType(kind.Singleton))

	case semindex.ClassKind:
		if !kind.Irrefutable && !positive {
			// a refutable class pattern may fail for reasons other than the
			// subject's type, so its miss carries no information
			return nil
		}
		place, ok := semindex.PlaceExprOf(subject)
		if !ok {
			return nil
		}
		t, ok := instanceOf(b.inference.ExpressionType(kind.Cls))
		if !ok {
			return nil
		}
		return singleConstraint(b.expectPlace(place), t)

	case semindex.ValueKind:
		place, ok := semindex.PlaceExprOf(subject)
		if !ok {
			return nil
		}
		return singleConstraint(b.expectPlace(place), b.inference.ExpressionType(kind.Value))

	case semindex.OrKind:
		var merged *Constraints
		for _, alternative := range kind.Alternatives {
			sub := b.patternKindConstraints(alternative, subject, positive)
			if sub == nil {
				continue
			}
			if merged == nil {
				merged = sub
			} else {
				merged = mergeOr(merged, sub)
			}
		}
		return merged

	default:
		return nil
	}
}

func singletonType(s syntax.Singleton) types.Type {
	switch s {
	case syntax.SingletonTrue:
		return &types.BooleanLiteral{Value: true}
	case syntax.SingletonFalse:
		return &types.BooleanLiteral{Value: false}
	default:
		return types.None()
	}
}

// instanceOf converts a matched class expression's type to the instance
// type the subject narrows to.
func instanceOf(t types.Type) (types.Type, bool) {
	switch t := t.(type) {
	case *types.ClassLiteral:
		return types.Instance(t.Class), true
	case *types.SubclassOf:
		if t.Class == nil {
			return types.Dynamic(), true
		}
		return types.Instance(t.Class), true
	case *types.GenericAlias:
		return types.Instance(t.Origin), true
	case *types.DynamicType:
		return t, true
	default:
		return nil, false
	}
}
