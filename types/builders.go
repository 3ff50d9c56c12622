package types

import "slices"

// UnionBuilder accumulates union elements with eager simplification:
// nested unions flatten, Never disappears, duplicate and subsumed elements
// collapse, and object swallows everything.
type UnionBuilder struct {
	elements  []Type
	sawObject bool
}

func NewUnionBuilder() *UnionBuilder {
	return &UnionBuilder{}
}

func (b *UnionBuilder) Add(t Type) *UnionBuilder {
	switch t := t.(type) {
	case *NeverType:
		return b
	case *UnionType:
		for _, e := range t.Elements {
			b.Add(e)
		}
		return b
	}
	if IsObject(t) {
		b.sawObject = true
		return b
	}
	for _, existing := range b.elements {
		if isSubtypeOf(t, existing) {
			return b
		}
	}
	b.elements = slices.DeleteFunc(b.elements, func(existing Type) bool {
		return isSubtypeOf(existing, t)
	})
	b.elements = append(b.elements, t)
	return b
}

func (b *UnionBuilder) Build() Type {
	if b.sawObject {
		return Object()
	}
	switch len(b.elements) {
	case 0:
		return Never()
	case 1:
		return b.elements[0]
	}
	return &UnionType{Elements: slices.Clone(b.elements)}
}

// UnionOf builds the simplified union of the given elements.
func UnionOf(elements ...Type) Type {
	builder := NewUnionBuilder()
	for _, e := range elements {
		builder.Add(e)
	}
	return builder.Build()
}

// IntersectionBuilder accumulates positive and negative conjuncts. Adding a
// positive union distributes, so the built result is a union of
// intersections; within each intersection, simplification is eager:
// intersecting with object is a no-op, disjoint positives collapse to
// Never, `X & ~X` is Never, and negatives that exclude nothing are dropped.
type IntersectionBuilder struct {
	inners []*intersectionInner
}

type intersectionInner struct {
	positive []Type
	negative []Type
	never    bool
}

func NewIntersectionBuilder() *IntersectionBuilder {
	return &IntersectionBuilder{inners: []*intersectionInner{{}}}
}

func (b *IntersectionBuilder) AddPositive(t Type) *IntersectionBuilder {
	switch t := t.(type) {
	case *UnionType:
		// (A | B) & rest distributes into (A & rest) | (B & rest)
		forked := make([]*intersectionInner, 0, len(b.inners)*len(t.Elements))
		for _, inner := range b.inners {
			for _, e := range t.Elements {
				sub := &IntersectionBuilder{inners: []*intersectionInner{inner.clone()}}
				sub.AddPositive(e)
				forked = append(forked, sub.inners...)
			}
		}
		b.inners = forked
		return b
	case *IntersectionType:
		for _, p := range t.Positive {
			b.AddPositive(p)
		}
		for _, n := range t.Negative {
			b.AddNegative(n)
		}
		return b
	}
	for _, inner := range b.inners {
		inner.addPositiveAtom(t)
	}
	return b
}

func (b *IntersectionBuilder) AddNegative(t Type) *IntersectionBuilder {
	switch t := t.(type) {
	case *NeverType:
		// ~Never excludes nothing
		return b
	case *DynamicType:
		return b.AddPositive(t)
	case *UnionType:
		// ~(A | B) is ~A & ~B
		for _, e := range t.Elements {
			b.AddNegative(e)
		}
		return b
	case *IntersectionType:
		return b.AddPositive(Negate(t))
	}
	if IsObject(t) {
		for _, inner := range b.inners {
			inner.never = true
		}
		return b
	}
	for _, inner := range b.inners {
		inner.addNegativeAtom(t)
	}
	return b
}

func (b *IntersectionBuilder) Build() Type {
	union := NewUnionBuilder()
	for _, inner := range b.inners {
		union.Add(inner.build())
	}
	return union.Build()
}

func (inner *intersectionInner) clone() *intersectionInner {
	return &intersectionInner{
		positive: slices.Clone(inner.positive),
		negative: slices.Clone(inner.negative),
		never:    inner.never,
	}
}

func (inner *intersectionInner) addPositiveAtom(t Type) {
	if inner.never || IsObject(t) {
		return
	}
	if IsNever(t) {
		inner.never = true
		return
	}
	for _, p := range inner.positive {
		if isSubtypeOf(p, t) {
			// t adds nothing on top of a smaller conjunct
			return
		}
	}
	inner.positive = slices.DeleteFunc(inner.positive, func(p Type) bool {
		return isSubtypeOf(t, p)
	})
	inner.positive = append(inner.positive, t)
}

func (inner *intersectionInner) addNegativeAtom(t Type) {
	if inner.never {
		return
	}
	for _, n := range inner.negative {
		if Equivalent(n, t) {
			return
		}
	}
	inner.negative = append(inner.negative, t)
}

func (inner *intersectionInner) build() Type {
	if inner.never {
		return Never()
	}
	positive := inner.positive
	for i, p := range positive {
		for _, q := range positive[i+1:] {
			if IsDisjointFrom(p, q) {
				return Never()
			}
		}
	}
	negative := make([]Type, 0, len(inner.negative))
	for _, n := range inner.negative {
		excluded := false
		subsumed := false
		for _, p := range positive {
			if isSubtypeOf(p, n) {
				// the whole positive part is excluded
				return Never()
			}
			if IsDisjointFrom(p, n) {
				excluded = true
			}
		}
		for _, kept := range negative {
			if Equivalent(kept, n) {
				subsumed = true
			}
		}
		if !excluded && !subsumed {
			negative = append(negative, n)
		}
	}
	switch {
	case len(positive) == 0 && len(negative) == 0:
		return Object()
	case len(positive) == 1 && len(negative) == 0:
		return positive[0]
	}
	return &IntersectionType{Positive: slices.Clone(positive), Negative: negative}
}
