package types

// Truthiness is the statically-known outcome of bool(x) for all inhabitants
// of a type.
type Truthiness int

const (
	AlwaysFalse Truthiness = iota - 1
	Ambiguous
	AlwaysTrue
)

func (t Truthiness) String() string {
	switch t {
	case AlwaysFalse:
		return "AlwaysFalse"
	case AlwaysTrue:
		return "AlwaysTrue"
	}
	return "Ambiguous"
}

// TruthinessOf computes the truthiness shared by every inhabitant of t, or
// Ambiguous when inhabitants differ (or a __bool__ override is possible).
func TruthinessOf(t Type) Truthiness {
	switch t := t.(type) {
	case *BooleanLiteral:
		if t.Value {
			return AlwaysTrue
		}
		return AlwaysFalse
	case *IntLiteral:
		if t.Value != 0 {
			return AlwaysTrue
		}
		return AlwaysFalse
	case *StringLiteral:
		if t.Value != "" {
			return AlwaysTrue
		}
		return AlwaysFalse
	case *BytesLiteral:
		if len(t.Value) != 0 {
			return AlwaysTrue
		}
		return AlwaysFalse
	case *NominalInstance:
		if t.Class.IsKnown(KnownNoneType) {
			return AlwaysFalse
		}
		// instances may override __bool__ or __len__
		return Ambiguous
	case *TupleType:
		if len(t.Elements) == 0 {
			return AlwaysFalse
		}
		return AlwaysTrue
	case *FunctionLiteral, *ModuleLiteral, *ClassLiteral:
		return AlwaysTrue
	case *AlwaysTruthyType:
		return AlwaysTrue
	case *AlwaysFalsyType:
		return AlwaysFalse
	case *UnionType:
		result := TruthinessOf(t.Elements[0])
		for _, e := range t.Elements[1:] {
			if TruthinessOf(e) != result {
				return Ambiguous
			}
		}
		return result
	case *IntersectionType:
		for _, p := range t.Positive {
			if truth := TruthinessOf(p); truth != Ambiguous {
				return truth
			}
		}
		return Ambiguous
	default:
		return Ambiguous
	}
}

// IsSingleton reports whether t has exactly one runtime inhabitant, compared
// by identity. Note that int and str literals are not singletons: equal
// values may be distinct objects.
func IsSingleton(t Type) bool {
	switch t := t.(type) {
	case *NominalInstance:
		return t.Class.IsKnown(KnownNoneType)
	case *BooleanLiteral, *EnumLiteral, *ClassLiteral, *FunctionLiteral, *ModuleLiteral:
		return true
	default:
		return false
	}
}

// IsSingleValued reports whether all inhabitants of t compare equal to each
// other: singletons plus value literals plus tuples thereof.
func IsSingleValued(t Type) bool {
	if IsSingleton(t) {
		return true
	}
	switch t := t.(type) {
	case *IntLiteral, *StringLiteral, *BytesLiteral:
		return true
	case *TupleType:
		for _, e := range t.Elements {
			if !IsSingleValued(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsUnionOfSingleValued reports whether t is a union whose every element is
// single-valued, or an instance type that expands to one (bool, enums).
func IsUnionOfSingleValued(t Type) bool {
	switch t := t.(type) {
	case *UnionType:
		for _, e := range t.Elements {
			if !IsSingleValued(e) && !IsUnionOfSingleValued(e) {
				return false
			}
		}
		return true
	case *NominalInstance:
		return t.Class.IsKnown(KnownBool) || t.Class.IsEnum()
	default:
		return false
	}
}

// literalClass maps a value-literal type to the class its values inhabit,
// or nil when t is not a value literal.
func literalClass(t Type) *Class {
	switch t := t.(type) {
	case *IntLiteral:
		return IntClass
	case *BooleanLiteral:
		return BoolClass
	case *StringLiteral, *LiteralStringType:
		return StrClass
	case *BytesLiteral:
		return BytesClass
	case *EnumLiteral:
		return t.Class
	case *TupleType:
		return TupleClass
	default:
		return nil
	}
}

// isSubtypeOf is a partial subtyping check: a true result is reliable, a
// false result only means "not provably a subtype". That is all the builders
// and disjointness need for sound simplification.
func isSubtypeOf(sub, super Type) bool {
	if IsNever(sub) || IsObject(super) {
		return true
	}
	if Equivalent(sub, super) {
		return true
	}
	if union, ok := sub.(*UnionType); ok {
		for _, e := range union.Elements {
			if !isSubtypeOf(e, super) {
				return false
			}
		}
		return true
	}
	if union, ok := super.(*UnionType); ok {
		for _, e := range union.Elements {
			if isSubtypeOf(sub, e) {
				return true
			}
		}
		return false
	}
	if inter, ok := sub.(*IntersectionType); ok {
		// the intersection is at most as large as any of its conjuncts
		for _, p := range inter.Positive {
			if isSubtypeOf(p, super) {
				return true
			}
		}
		return false
	}
	if inter, ok := super.(*IntersectionType); ok {
		for _, p := range inter.Positive {
			if !isSubtypeOf(sub, p) {
				return false
			}
		}
		for _, n := range inter.Negative {
			if !IsDisjointFrom(sub, n) {
				return false
			}
		}
		return true
	}

	switch super := super.(type) {
	case *NominalInstance:
		if cls := literalClass(sub); cls != nil {
			return cls.IsSubclassOf(super.Class)
		}
		if sub, ok := sub.(*NominalInstance); ok {
			return sub.Class.IsSubclassOf(super.Class)
		}
		switch sub.(type) {
		case *ClassLiteral, *SubclassOf:
			return TypeClass.IsSubclassOf(super.Class)
		}
		return false
	case *SubclassOf:
		if super.Class == nil {
			return false
		}
		switch sub := sub.(type) {
		case *ClassLiteral:
			return sub.Class.IsSubclassOf(super.Class)
		case *SubclassOf:
			return sub.Class != nil && sub.Class.IsSubclassOf(super.Class)
		}
		return false
	case *AlwaysTruthyType:
		return TruthinessOf(sub) == AlwaysTrue
	case *AlwaysFalsyType:
		return TruthinessOf(sub) == AlwaysFalse
	default:
		return false
	}
}

// IsDisjointFrom reports whether a and b provably share no inhabitants.
// A false result is the conservative answer for pairs the checker cannot
// decide (arbitrary user classes may become related through multiple
// inheritance).
func IsDisjointFrom(a, b Type) bool {
	if IsNever(a) || IsNever(b) {
		return true
	}
	if _, ok := a.(*DynamicType); ok {
		return false
	}
	if _, ok := b.(*DynamicType); ok {
		return false
	}
	if IsObject(a) || IsObject(b) {
		return false
	}
	if union, ok := a.(*UnionType); ok {
		for _, e := range union.Elements {
			if !IsDisjointFrom(e, b) {
				return false
			}
		}
		return true
	}
	if _, ok := b.(*UnionType); ok {
		return IsDisjointFrom(b, a)
	}
	if inter, ok := a.(*IntersectionType); ok {
		for _, p := range inter.Positive {
			if IsDisjointFrom(p, b) {
				return true
			}
		}
		for _, n := range inter.Negative {
			if isSubtypeOf(b, n) {
				return true
			}
		}
		return false
	}
	if _, ok := b.(*IntersectionType); ok {
		return IsDisjointFrom(b, a)
	}
	if _, ok := a.(*AlwaysTruthyType); ok {
		return TruthinessOf(b) == AlwaysFalse
	}
	if _, ok := b.(*AlwaysTruthyType); ok {
		return TruthinessOf(a) == AlwaysFalse
	}
	if _, ok := a.(*AlwaysFalsyType); ok {
		return TruthinessOf(b) == AlwaysTrue
	}
	if _, ok := b.(*AlwaysFalsyType); ok {
		return TruthinessOf(a) == AlwaysTrue
	}
	// structural types can be inhabited by anything with the right members
	if _, ok := a.(*ProtocolInstance); ok {
		return false
	}
	if _, ok := b.(*ProtocolInstance); ok {
		return false
	}
	return disjointAtoms(a, b) || disjointAtoms(b, a)
}

// disjointAtoms handles the variant pairs left over once union, intersection
// and the special sets are peeled off. Only one argument order needs to
// match; IsDisjointFrom tries both.
func disjointAtoms(a, b Type) bool {
	switch a := a.(type) {
	case *NominalInstance:
		if b, ok := b.(*NominalInstance); ok {
			if a.Class.IsSubclassOf(b.Class) || b.Class.IsSubclassOf(a.Class) {
				return false
			}
			return a.Class.isFinalEnough() || b.Class.isFinalEnough()
		}
		switch b.(type) {
		case *ClassLiteral, *SubclassOf:
			return !TypeClass.IsSubclassOf(a.Class) && a.Class.isFinalEnough()
		}
		if cls := literalClass(b); cls != nil {
			// value literals inhabit exactly their class
			return !cls.IsSubclassOf(a.Class)
		}
		return false
	case *IntLiteral:
		if b, ok := b.(*IntLiteral); ok {
			return a.Value != b.Value
		}
		return literalClass(b) != nil || isNonValueAtom(b)
	case *BooleanLiteral:
		if b, ok := b.(*BooleanLiteral); ok {
			return a.Value != b.Value
		}
		return literalClass(b) != nil || isNonValueAtom(b)
	case *StringLiteral:
		switch b := b.(type) {
		case *StringLiteral:
			return a.Value != b.Value
		case *LiteralStringType:
			return false
		}
		return literalClass(b) != nil || isNonValueAtom(b)
	case *LiteralStringType:
		switch b.(type) {
		case *StringLiteral, *LiteralStringType:
			return false
		}
		return literalClass(b) != nil || isNonValueAtom(b)
	case *BytesLiteral:
		if b, ok := b.(*BytesLiteral); ok {
			return string(a.Value) != string(b.Value)
		}
		return literalClass(b) != nil || isNonValueAtom(b)
	case *EnumLiteral:
		if b, ok := b.(*EnumLiteral); ok {
			return a.Class != b.Class || a.Member != b.Member
		}
		return literalClass(b) != nil || isNonValueAtom(b)
	case *TupleType:
		if b, ok := b.(*TupleType); ok {
			if len(a.Elements) != len(b.Elements) {
				return true
			}
			for i := range a.Elements {
				if IsDisjointFrom(a.Elements[i], b.Elements[i]) {
					return true
				}
			}
			return false
		}
		return literalClass(b) != nil || isNonValueAtom(b)
	case *ClassLiteral:
		switch b := b.(type) {
		case *ClassLiteral:
			return a.Class != b.Class
		case *SubclassOf:
			return b.Class != nil && !a.Class.IsSubclassOf(b.Class)
		}
		return literalClass(b) != nil
	case *SubclassOf:
		if b, ok := b.(*SubclassOf); ok {
			if a.Class == nil || b.Class == nil {
				return false
			}
			return !a.Class.IsSubclassOf(b.Class) && !b.Class.IsSubclassOf(a.Class)
		}
		return literalClass(b) != nil
	case *FunctionLiteral:
		if b, ok := b.(*FunctionLiteral); ok {
			return !Equivalent(a, b)
		}
		return literalClass(b) != nil
	case *ModuleLiteral:
		if b, ok := b.(*ModuleLiteral); ok {
			return a.Name != b.Name
		}
		return literalClass(b) != nil
	}
	return false
}

// isNonValueAtom reports whether t is an atom that value literals are
// always disjoint from (class objects, functions, modules).
func isNonValueAtom(t Type) bool {
	switch t.(type) {
	case *ClassLiteral, *SubclassOf, *FunctionLiteral, *ModuleLiteral, *CallableType:
		return true
	default:
		return false
	}
}

// Negate returns the complement of t within object. Negating twice returns
// a type equivalent to t.
func Negate(t Type) Type {
	switch t := t.(type) {
	case *NeverType:
		return Object()
	case *DynamicType:
		// the complement of an unknown set is equally unknown
		return t
	case *NominalInstance:
		if t.Class.IsKnown(KnownObject) {
			return Never()
		}
		return NewIntersectionBuilder().AddNegative(t).Build()
	case *UnionType:
		builder := NewIntersectionBuilder()
		for _, e := range t.Elements {
			builder.AddNegative(e)
		}
		return builder.Build()
	case *IntersectionType:
		builder := NewUnionBuilder()
		for _, p := range t.Positive {
			builder.Add(Negate(p))
		}
		for _, n := range t.Negative {
			builder.Add(n)
		}
		return builder.Build()
	default:
		return NewIntersectionBuilder().AddNegative(t).Build()
	}
}

// NegateIf negates t only when yes holds.
func NegateIf(t Type, yes bool) Type {
	if yes {
		return Negate(t)
	}
	return t
}
