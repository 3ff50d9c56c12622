// Package semindex is the semantic-index boundary of the checker: it assigns
// stable scope-local identifiers to narrowable places (names, attribute
// accesses, subscripts) and classifies the predicates that guard control
// flow. The narrowing engine consumes it read-only.
package semindex

import (
	"strconv"
	"strings"

	"github.com/pyrite-lang/pyrite/syntax"
)

// SegmentKind distinguishes the steps of a place path.
type SegmentKind int

const (
	SegmentAttr SegmentKind = iota
	SegmentIntSub
	SegmentStrSub
)

// PlaceSegment is one step in a place path: `.attr`, `[0]` or `["key"]`.
type PlaceSegment struct {
	Kind  SegmentKind
	Attr  string // SegmentAttr, SegmentStrSub
	Index int64  // SegmentIntSub
}

func (s PlaceSegment) String() string {
	switch s.Kind {
	case SegmentAttr:
		return "." + s.Attr
	case SegmentIntSub:
		return "[" + strconv.FormatInt(s.Index, 10) + "]"
	case SegmentStrSub:
		return "[" + strconv.Quote(s.Attr) + "]"
	}
	return "<unknown segment>"
}

// PlaceExpr identifies a narrowable location: a root name followed by a
// (possibly empty) path of member and literal-subscript segments. Two
// syntactically identical places have equal PlaceExprs.
type PlaceExpr struct {
	Root string
	Path []PlaceSegment
}

func (p PlaceExpr) String() string {
	sb := strings.Builder{}
	sb.WriteString(p.Root)
	for _, seg := range p.Path {
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// Key returns the canonical lookup key for a place within its scope.
func (p PlaceExpr) Key() string { return p.String() }

// PlaceExprOf resolves an expression to the place it refers to. Named
// (walrus) expressions resolve through their target. The second return is
// false for expressions that are not narrowable (calls, literals, arbitrary
// computed subscripts).
func PlaceExprOf(expr syntax.Expr) (PlaceExpr, bool) {
	if named, ok := expr.(*syntax.Named); ok {
		return PlaceExprOf(named.Target)
	}
	return placeExprOf(expr)
}

func placeExprOf(expr syntax.Expr) (PlaceExpr, bool) {
	switch expr := expr.(type) {
	case *syntax.Name:
		return PlaceExpr{Root: expr.Name}, true
	case *syntax.Attribute:
		base, ok := placeExprOf(expr.Value)
		if !ok {
			return PlaceExpr{}, false
		}
		base.Path = append(base.Path, PlaceSegment{Kind: SegmentAttr, Attr: expr.Attr})
		return base, true
	case *syntax.Subscript:
		base, ok := placeExprOf(expr.Value)
		if !ok {
			return PlaceExpr{}, false
		}
		switch index := expr.Index.(type) {
		case *syntax.IntLit:
			base.Path = append(base.Path, PlaceSegment{Kind: SegmentIntSub, Index: index.Value})
			return base, true
		case *syntax.StringLit:
			base.Path = append(base.Path, PlaceSegment{Kind: SegmentStrSub, Attr: index.Value})
			return base, true
		}
		return PlaceExpr{}, false
	default:
		return PlaceExpr{}, false
	}
}
