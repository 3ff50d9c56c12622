package narrow

import (
	"iter"
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/pyrite-lang/pyrite/types"
)

// placeIDHasher adapts ScopedPlaceID for immutable maps.
type placeIDHasher struct{}

func (placeIDHasher) Hash(key semindex.ScopedPlaceID) uint32 { return uint32(key) }
func (placeIDHasher) Equal(a, b semindex.ScopedPlaceID) bool { return a == b }

// Constraints maps each narrowed place to the type it must have, assuming
// the predicate held. Absence of a place means "no information about it"
// (an implicit object), never Never. The map is immutable: every merge and
// negation builds a new one, so a returned Constraints can be cached and
// shared freely.
//
// A nil *Constraints is the "cannot determine any refinement" outcome.
type Constraints struct {
	entries *immutable.Map[semindex.ScopedPlaceID, types.Type]
}

func newConstraints() *Constraints {
	return &Constraints{entries: immutable.NewMap[semindex.ScopedPlaceID, types.Type](placeIDHasher{})}
}

func singleConstraint(place semindex.ScopedPlaceID, t types.Type) *Constraints {
	return newConstraints().with(place, t)
}

func (c *Constraints) with(place semindex.ScopedPlaceID, t types.Type) *Constraints {
	return &Constraints{entries: c.entries.Set(place, t)}
}

// Get returns the constraint on place, if the predicate carries one.
func (c *Constraints) Get(place semindex.ScopedPlaceID) (types.Type, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(place)
}

// Len returns the number of constrained places.
func (c *Constraints) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// All iterates over every (place, type) entry.
func (c *Constraints) All() iter.Seq2[semindex.ScopedPlaceID, types.Type] {
	return func(yield func(semindex.ScopedPlaceID, types.Type) bool) {
		if c == nil {
			return
		}
		for itr := c.entries.Iterator(); !itr.Done(); {
			place, t, _ := itr.Next()
			if !yield(place, t) {
				return
			}
		}
	}
}

// String renders constraints for logs and the CLI; places print by id only.
func (c *Constraints) String() string {
	if c == nil {
		return "<none>"
	}
	sb := strings.Builder{}
	sb.WriteString("{")
	first := true
	for place, t := range c.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString("p")
		sb.WriteString(strconv.Itoa(int(place)))
		sb.WriteString(": ")
		sb.WriteString(t.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// mergeAnd combines constraints that must hold simultaneously: per place,
// the intersection of both sides. A place mentioned by only one side keeps
// that side's constraint (the other side is implicitly object).
func mergeAnd(into, from *Constraints) *Constraints {
	result := into
	for place, fromType := range from.All() {
		if intoType, ok := result.Get(place); ok {
			merged := types.NewIntersectionBuilder().
				AddPositive(intoType).
				AddPositive(fromType).
				Build()
			result = result.with(place, merged)
		} else {
			result = result.with(place, fromType)
		}
	}
	return result
}

// mergeOr combines constraints of which at least one holds: only places
// refined on both sides stay refined, as the union of the two refinements.
// A place refined on one side only reverts to object, since the other
// alternative leaves it unconstrained.
func mergeOr(into, from *Constraints) *Constraints {
	result := into
	for place, fromType := range from.All() {
		if intoType, ok := result.Get(place); ok {
			result = result.with(place, types.UnionOf(intoType, fromType))
		} else {
			result = result.with(place, types.Object())
		}
	}
	for place := range into.All() {
		if _, ok := from.Get(place); !ok {
			result = result.with(place, types.Object())
		}
	}
	return result
}

// negateAllIf negates every constraint when yes holds.
func negateAllIf(c *Constraints, yes bool) *Constraints {
	if c == nil || !yes {
		return c
	}
	result := newConstraints()
	for place, t := range c.All() {
		result = result.with(place, types.Negate(t))
	}
	return result
}

// equalConstraints compares two constraint maps entry-wise.
func equalConstraints(a, b *Constraints) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Len() != b.Len() {
		return false
	}
	for place, aType := range a.All() {
		bType, ok := b.Get(place)
		if !ok || !types.Equivalent(aType, bType) {
			return false
		}
	}
	return true
}
