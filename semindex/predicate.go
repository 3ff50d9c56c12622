package semindex

import "github.com/pyrite-lang/pyrite/syntax"

// Predicate is a boolean-valued program construct plus the branch polarity
// under analysis: IsPositive true asks "what holds when this test passes".
type Predicate struct {
	Node       PredicateNode
	IsPositive bool
}

// Negated returns the same predicate with the opposite polarity.
func (p Predicate) Negated() Predicate {
	return Predicate{Node: p.Node, IsPositive: !p.IsPositive}
}

// PredicateNode is the tagged union over the things that can guard control
// flow. ReturnsNever and StarImport carry no narrowing information.
type PredicateNode interface {
	Scope() *Scope
	predicateNode()
}

// ExpressionPredicate is a plain boolean test: the condition of an if,
// while, assert, or comprehension filter.
type ExpressionPredicate struct {
	Expr    syntax.Expr
	InScope *Scope
}

func (p *ExpressionPredicate) Scope() *Scope  { return p.InScope }
func (p *ExpressionPredicate) predicateNode() {}

// PatternPredicate is one arm of a match statement, classified by kind.
type PatternPredicate struct {
	Subject syntax.Expr
	Kind    PatternPredicateKind
	InScope *Scope
}

func (p *PatternPredicate) Scope() *Scope  { return p.InScope }
func (p *PatternPredicate) predicateNode() {}

// ReturnsNeverPredicate marks a call whose callee never returns; the branch
// after it is unreachable but no place is narrowed.
type ReturnsNeverPredicate struct {
	Call    syntax.Expr
	InScope *Scope
}

func (p *ReturnsNeverPredicate) Scope() *Scope  { return p.InScope }
func (p *ReturnsNeverPredicate) predicateNode() {}

// StarImportPredicate is the placeholder definition a `from m import *`
// introduces; it never narrows.
type StarImportPredicate struct {
	InScope *Scope
}

func (p *StarImportPredicate) Scope() *Scope  { return p.InScope }
func (p *StarImportPredicate) predicateNode() {}

// PatternPredicateKind classifies a match pattern for narrowing purposes.
type PatternPredicateKind interface {
	patternKind()
}

// SingletonKind matches None/True/False by identity.
type SingletonKind struct {
	Singleton syntax.Singleton
}

// ClassKind matches a class pattern. Irrefutable is true when every
// sub-pattern always matches, so the arm can only fail on the isinstance
// check itself.
type ClassKind struct {
	Cls         syntax.Expr
	Irrefutable bool
}

// ValueKind matches by equality against a literal or dotted constant.
type ValueKind struct {
	Value syntax.Expr
}

// OrKind is a `|` pattern over alternatives.
type OrKind struct {
	Alternatives []PatternPredicateKind
}

// UnsupportedKind covers the pattern forms the engine derives nothing from
// (sequence and mapping patterns, captures).
type UnsupportedKind struct{}

func (SingletonKind) patternKind()   {}
func (ClassKind) patternKind()       {}
func (ValueKind) patternKind()       {}
func (OrKind) patternKind()          {}
func (UnsupportedKind) patternKind() {}

// ClassifyPattern maps a syntactic pattern to its narrowing classification.
func ClassifyPattern(pattern syntax.Pattern) PatternPredicateKind {
	switch pattern := pattern.(type) {
	case *syntax.MatchSingleton:
		return SingletonKind{Singleton: pattern.Value}
	case *syntax.MatchClass:
		irrefutable := true
		for _, sub := range pattern.Patterns {
			if !syntax.IsIrrefutable(sub) {
				irrefutable = false
			}
		}
		for _, kw := range pattern.Kwargs {
			if !syntax.IsIrrefutable(kw.Pattern) {
				irrefutable = false
			}
		}
		return ClassKind{Cls: pattern.Cls, Irrefutable: irrefutable}
	case *syntax.MatchValue:
		return ValueKind{Value: pattern.Value}
	case *syntax.MatchOr:
		alternatives := make([]PatternPredicateKind, 0, len(pattern.Patterns))
		for _, sub := range pattern.Patterns {
			alternatives = append(alternatives, ClassifyPattern(sub))
		}
		return OrKind{Alternatives: alternatives}
	case *syntax.MatchAs:
		if pattern.Pattern != nil {
			return ClassifyPattern(pattern.Pattern)
		}
		return UnsupportedKind{}
	default:
		return UnsupportedKind{}
	}
}
