package narrow

import (
	"github.com/pyrite-lang/pyrite/types"
)

// classInfoFunction distinguishes the two runtime class checks: isinstance
// narrows to instances of the class, issubclass to class objects below it.
type classInfoFunction int

const (
	classInfoIsInstance classInfoFunction = iota
	classInfoIsSubclass
)

func (f classInfoFunction) fromClass(c *types.Class) types.Type {
	if f == classInfoIsSubclass {
		return &types.SubclassOf{Class: c}
	}
	return types.Instance(c)
}

// constraint resolves a classinfo argument to the type the check narrows
// to. Tuples mean "any of these" and resolve to a union; a single
// unresolvable element spoils the whole argument, because a runtime
// TypeError means no narrowing can be trusted.
func (f classInfoFunction) constraint(classinfo types.Type) (types.Type, bool) {
	switch classinfo := classinfo.(type) {
	case *types.TupleType:
		builder := types.NewUnionBuilder()
		for _, element := range classinfo.Elements {
			t, ok := f.constraint(element)
			if !ok {
				return nil, false
			}
			builder.Add(t)
		}
		return builder.Build(), true

	case *types.ClassLiteral:
		if classinfo.Class.IsKnown(types.KnownAny) {
			return nil, false
		}
		return f.fromClass(classinfo.Class), true

	case *types.SubclassOf:
		if classinfo.Class == nil {
			return types.Dynamic(), true
		}
		return f.fromClass(classinfo.Class), true

	case *types.DynamicType:
		return classinfo, true

	case *types.IntersectionType:
		if len(classinfo.Negative) != 0 {
			return nil, false
		}
		builder := types.NewIntersectionBuilder()
		for _, element := range classinfo.Positive {
			t, ok := f.constraint(element)
			if !ok {
				return nil, false
			}
			builder.AddPositive(t)
		}
		return builder.Build(), true

	case *types.UnionType:
		builder := types.NewUnionBuilder()
		for _, element := range classinfo.Elements {
			t, ok := f.constraint(element)
			if !ok {
				return nil, false
			}
			builder.Add(t)
		}
		return builder.Build(), true

	case *types.TypeVarType:
		if classinfo.Bound != nil {
			return f.constraint(classinfo.Bound)
		}
		if len(classinfo.Constraints) != 0 {
			builder := types.NewUnionBuilder()
			for _, c := range classinfo.Constraints {
				t, ok := f.constraint(c)
				if !ok {
					return nil, false
				}
				builder.Add(t)
			}
			return builder.Build(), true
		}
		return nil, false

	default:
		// anything else, generic aliases included, raises TypeError at
		// runtime rather than narrowing
		return nil, false
	}
}
