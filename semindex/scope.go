package semindex

import (
	"github.com/pkg/errors"

	"github.com/pyrite-lang/pyrite/syntax"
	"github.com/pyrite-lang/pyrite/util"
)

// ScopedPlaceID identifies a place within one scope's place table. IDs are
// dense and never compared across scopes.
type ScopedPlaceID int

// Scope owns the place table for one lexical scope.
type Scope struct {
	Name   string
	places placeTable
}

func NewScope(name string) *Scope {
	return &Scope{
		Name:   name,
		places: placeTable{byKey: make(map[string]ScopedPlaceID)},
	}
}

type placeTable struct {
	ordered []PlaceExpr
	byKey   map[string]ScopedPlaceID
}

// AddPlace interns a place expression, returning the existing id when the
// same place was added before.
func (s *Scope) AddPlace(place PlaceExpr) ScopedPlaceID {
	key := place.Key()
	if id, ok := s.places.byKey[key]; ok {
		return id
	}
	id := ScopedPlaceID(len(s.places.ordered))
	s.places.ordered = append(s.places.ordered, place)
	s.places.byKey[key] = id
	return id
}

// PlaceID looks a place up without interning it.
func (s *Scope) PlaceID(place PlaceExpr) (ScopedPlaceID, bool) {
	id, ok := s.places.byKey[place.Key()]
	return id, ok
}

// ExpectPlaceID is PlaceID for places the index guarantees to exist: every
// place expression reachable from an indexed predicate has an entry. A miss
// is an internal-consistency fault in the index, not a user error.
func (s *Scope) ExpectPlaceID(place PlaceExpr) ScopedPlaceID {
	id, ok := s.places.byKey[place.Key()]
	if !ok {
		panic(errors.Errorf("place %q has no entry in the place table of scope %q", place, s.Name))
	}
	return id
}

// Place returns the place expression interned under id.
func (s *Scope) Place(id ScopedPlaceID) PlaceExpr {
	return s.places.ordered[int(id)]
}

// PlaceCount returns how many distinct places the scope has seen.
func (s *Scope) PlaceCount() int { return len(s.places.ordered) }

// IndexExpression interns every place expression reachable from expr, so
// that later narrowing lookups cannot miss. This mirrors what full semantic
// indexing of a module would have done for the expression.
func (s *Scope) IndexExpression(expr syntax.Expr) {
	work := &util.Stack[syntax.Expr]{}
	work.Push(expr)
	for {
		expr, ok := work.Pop()
		if !ok {
			return
		}
		if expr == nil {
			continue
		}
		if place, ok := PlaceExprOf(expr); ok {
			s.AddPlace(place)
		}
		switch expr := expr.(type) {
		case *syntax.Attribute:
			work.Push(expr.Value)
		case *syntax.Subscript:
			work.Push(expr.Value)
			work.Push(expr.Index)
		case *syntax.Named:
			work.Push(expr.Target)
			work.Push(expr.Value)
		case *syntax.UnaryOp:
			work.Push(expr.Operand)
		case *syntax.BoolOp:
			for _, v := range expr.Values {
				work.Push(v)
			}
		case *syntax.Compare:
			work.Push(expr.Left)
			for _, c := range expr.Comparators {
				work.Push(c)
			}
		case *syntax.Call:
			work.Push(expr.Func)
			for _, a := range expr.Args {
				work.Push(a)
			}
			for i := range expr.Keywords {
				work.Push(expr.Keywords[i].Value)
			}
		case *syntax.TupleExpr:
			for _, e := range expr.Elts {
				work.Push(e)
			}
		}
	}
}

// IndexPattern interns the places reachable from a pattern's sub-expressions.
func (s *Scope) IndexPattern(pattern syntax.Pattern) {
	switch pattern := pattern.(type) {
	case *syntax.MatchValue:
		s.IndexExpression(pattern.Value)
	case *syntax.MatchClass:
		s.IndexExpression(pattern.Cls)
		for _, sub := range pattern.Patterns {
			s.IndexPattern(sub)
		}
		for _, kw := range pattern.Kwargs {
			s.IndexPattern(kw.Pattern)
		}
	case *syntax.MatchOr:
		for _, sub := range pattern.Patterns {
			s.IndexPattern(sub)
		}
	case *syntax.MatchAs:
		if pattern.Pattern != nil {
			s.IndexPattern(pattern.Pattern)
		}
	case *syntax.MatchSequence:
		for _, sub := range pattern.Patterns {
			s.IndexPattern(sub)
		}
	}
}
