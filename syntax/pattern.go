package syntax

import (
	"encoding/binary"
	"hash/fnv"
)

// All pattern types implement the Pattern interface

// Singleton is the constant of a singleton pattern.
type Singleton int

const (
	SingletonNone Singleton = iota
	SingletonTrue
	SingletonFalse
)

func (s Singleton) String() string {
	switch s {
	case SingletonNone:
		return "None"
	case SingletonTrue:
		return "True"
	case SingletonFalse:
		return "False"
	}
	return "<unknown singleton>"
}

// MatchValue matches against the value of an expression, like `case "x":`
// or `case Color.RED:`.
type MatchValue struct {
	Range
	Value Expr
}

func (p *MatchValue) patternNode() {}

func (p *MatchValue) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("MatchValue")
	arr = binary.LittleEndian.AppendUint64(arr, p.Range.Hash())

	if p.Value != nil {
		arr = binary.LittleEndian.AppendUint64(arr, p.Value.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// MatchSingleton matches None, True or False by identity.
type MatchSingleton struct {
	Range
	Value Singleton
}

func (p *MatchSingleton) patternNode() {}

func (p *MatchSingleton) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("MatchSingleton")
	_, _ = h.Write([]byte(p.Value.String()))
	arr = binary.LittleEndian.AppendUint64(arr, p.Range.Hash())

	_, _ = h.Write(arr)
	return h.Sum64()
}

// MatchClass matches a class pattern like `case Point(x=0, y=0):`.
type MatchClass struct {
	Range
	Cls      Expr
	Patterns []Pattern
	Kwargs   []KwargPattern
}

// KwargPattern is a keyword sub-pattern of a class pattern.
type KwargPattern struct {
	Range
	Name    string
	Pattern Pattern
}

func (p *MatchClass) patternNode() {}

func (p *MatchClass) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("MatchClass")
	arr = binary.LittleEndian.AppendUint64(arr, p.Range.Hash())

	if p.Cls != nil {
		arr = binary.LittleEndian.AppendUint64(arr, p.Cls.Hash())
	}
	for _, sub := range p.Patterns {
		arr = binary.LittleEndian.AppendUint64(arr, sub.Hash())
	}
	for _, kw := range p.Kwargs {
		_, _ = h.Write([]byte(kw.Name))
		if kw.Pattern != nil {
			arr = binary.LittleEndian.AppendUint64(arr, kw.Pattern.Hash())
		}
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// MatchOr is an or-pattern like `case None | 0:`.
type MatchOr struct {
	Range
	Patterns []Pattern
}

func (p *MatchOr) patternNode() {}

func (p *MatchOr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("MatchOr")
	arr = binary.LittleEndian.AppendUint64(arr, p.Range.Hash())

	for _, sub := range p.Patterns {
		arr = binary.LittleEndian.AppendUint64(arr, sub.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// MatchAs is a capture pattern like `case x:` or `case Point() as p:`.
// A MatchAs with no inner pattern always matches.
type MatchAs struct {
	Range
	Pattern Pattern // may be nil
	Name    string  // empty for the wildcard `_`
}

func (p *MatchAs) patternNode() {}

func (p *MatchAs) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("MatchAs")
	_, _ = h.Write([]byte(p.Name))
	arr = binary.LittleEndian.AppendUint64(arr, p.Range.Hash())

	if p.Pattern != nil {
		arr = binary.LittleEndian.AppendUint64(arr, p.Pattern.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// MatchSequence is a sequence pattern like `case [a, b]:`. The narrowing
// engine does not currently derive constraints from it.
type MatchSequence struct {
	Range
	Patterns []Pattern
}

func (p *MatchSequence) patternNode() {}

func (p *MatchSequence) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("MatchSequence")
	arr = binary.LittleEndian.AppendUint64(arr, p.Range.Hash())

	for _, sub := range p.Patterns {
		arr = binary.LittleEndian.AppendUint64(arr, sub.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// IsIrrefutable reports whether a pattern always matches, regardless of the
// subject: a bare capture or wildcard, or an or-pattern with an irrefutable
// alternative.
func IsIrrefutable(p Pattern) bool {
	switch p := p.(type) {
	case *MatchAs:
		return p.Pattern == nil || IsIrrefutable(p.Pattern)
	case *MatchOr:
		for _, sub := range p.Patterns {
			if IsIrrefutable(sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
