package types

import "slices"

// KnownClass marks classes whose identity the checker needs to recognise
// beyond their name, for example because narrowing treats them specially.
type KnownClass int

const (
	KnownClassNone KnownClass = iota
	KnownObject
	KnownBool
	KnownInt
	KnownFloat
	KnownStr
	KnownBytes
	KnownTuple
	KnownType
	KnownNoneType
	// KnownAny is the class placeholder for typing.Any: it can appear as the
	// second argument to isinstance on newer interpreters, but narrowing by
	// it is never safe.
	KnownAny
)

// Class is the checker's view of a class definition: a name, its bases, and
// - for enums - the ordered member names. Classes are compared by pointer
// identity within a run.
type Class struct {
	Name        string
	Bases       []*Class
	Known       KnownClass
	EnumMembers []string // non-nil means the class is an enum
}

func (c *Class) IsKnown(k KnownClass) bool {
	return c != nil && c.Known == k
}

// IsSubclassOf walks the bases transitively. Every class is a subclass of
// itself and of object.
func (c *Class) IsSubclassOf(other *Class) bool {
	if c == nil || other == nil {
		return false
	}
	if c == other || other.Known == KnownObject {
		return true
	}
	for _, base := range c.Bases {
		if base.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

// IsEnum reports whether the class was declared as an enum.
func (c *Class) IsEnum() bool {
	return c != nil && c.EnumMembers != nil
}

// EnumMemberLiterals returns one EnumLiteral per declared member, in
// declaration order, or nil for non-enums.
func (c *Class) EnumMemberLiterals() []Type {
	if !c.IsEnum() {
		return nil
	}
	members := make([]Type, 0, len(c.EnumMembers))
	for _, name := range c.EnumMembers {
		members = append(members, &EnumLiteral{Class: c, Member: name})
	}
	return members
}

func (c *Class) hasEnumMember(name string) bool {
	return c.IsEnum() && slices.Contains(c.EnumMembers, name)
}

// The builtin classes every analysis run shares.
var (
	ObjectClass = &Class{Name: "object", Known: KnownObject}
	TypeClass   = &Class{Name: "type", Bases: []*Class{ObjectClass}, Known: KnownType}
	IntClass    = &Class{Name: "int", Bases: []*Class{ObjectClass}, Known: KnownInt}
	BoolClass   = &Class{Name: "bool", Bases: []*Class{IntClass}, Known: KnownBool}
	FloatClass  = &Class{Name: "float", Bases: []*Class{ObjectClass}, Known: KnownFloat}
	StrClass    = &Class{Name: "str", Bases: []*Class{ObjectClass}, Known: KnownStr}
	BytesClass  = &Class{Name: "bytes", Bases: []*Class{ObjectClass}, Known: KnownBytes}
	TupleClass  = &Class{Name: "tuple", Bases: []*Class{ObjectClass}, Known: KnownTuple}
	NoneClass   = &Class{Name: "NoneType", Bases: []*Class{ObjectClass}, Known: KnownNoneType}
	AnyClass    = &Class{Name: "Any", Bases: []*Class{ObjectClass}, Known: KnownAny}
)

// BuiltinClasses lists the classes above by name, for name resolution in
// collaborators.
func BuiltinClasses() map[string]*Class {
	all := []*Class{
		ObjectClass, TypeClass, IntClass, BoolClass, FloatClass,
		StrClass, BytesClass, TupleClass, NoneClass, AnyClass,
	}
	byName := make(map[string]*Class, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}
	return byName
}

// isFinalEnough reports whether we model the class as having no user
// subclasses that also subclass an unrelated class. Builtin scalar types
// qualify; arbitrary user classes do not, since Python multiple inheritance
// can relate them at runtime.
func (c *Class) isFinalEnough() bool {
	switch c.Known {
	case KnownBool, KnownInt, KnownFloat, KnownStr, KnownBytes, KnownNoneType:
		return true
	}
	return false
}
