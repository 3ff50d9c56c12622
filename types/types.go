package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/pyrite-lang/pyrite/internal/log"
)

var logger = log.DefaultLogger.With("section", "types")

// Type is an element of the checker's type lattice. The set of variants is
// closed: every Type is one of the structs in this file, and operations over
// types dispatch exhaustively (see ops.go).
//
// Types are immutable after construction and are compared for equivalence by
// structural hash, like the AST nodes.
type Type interface {
	fmt.Stringer
	Hash() uint64
	typeNode()
}

// Equivalent compares two types structurally.
func Equivalent(this, that Type) bool {
	return this.Hash() == that.Hash()
}

// hashOf is a nil-tolerant helper for hashing optional child types.
func hashOf(t Type) uint64 {
	if t == nil {
		return 0
	}
	return t.Hash()
}

func hashVariant(name string, parts ...uint64) uint64 {
	h := fnv.New64a()
	arr := []byte(name)
	for _, p := range parts {
		arr = binary.LittleEndian.AppendUint64(arr, p)
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// DynamicType stands for a type the checker cannot or does not track:
// typing.Any, an unresolved import, or an unannotated parameter.
type DynamicType struct{}

func (t *DynamicType) typeNode()      {}
func (t *DynamicType) String() string { return "Any" }
func (t *DynamicType) Hash() uint64   { return hashVariant("Dynamic") }

// NeverType is the bottom of the lattice: no runtime value inhabits it.
type NeverType struct{}

func (t *NeverType) typeNode()      {}
func (t *NeverType) String() string { return "Never" }
func (t *NeverType) Hash() uint64   { return hashVariant("Never") }

// NominalInstance is an instance of a class: `int`, `str`, `Point`.
// An instance of object is the top of the lattice, and an instance of
// NoneType is the type of None.
type NominalInstance struct {
	Class *Class
}

func (t *NominalInstance) typeNode() {}
func (t *NominalInstance) String() string {
	if t.Class.IsKnown(KnownNoneType) {
		return "None"
	}
	return t.Class.Name
}
func (t *NominalInstance) Hash() uint64 {
	return hashVariant("NominalInstance", hashString(t.Class.Name))
}

// ProtocolMember is a single structural member of a ProtocolInstance.
type ProtocolMember struct {
	Name string
	Type Type
}

// ProtocolInstance is a structural type: any object exposing the listed
// members. Narrowing synthesises read-only protocols for hasattr checks.
type ProtocolInstance struct {
	Members []ProtocolMember
}

func (t *ProtocolInstance) typeNode() {}
func (t *ProtocolInstance) String() string {
	names := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		names = append(names, "'"+m.Name+"'")
	}
	return "<Protocol with members " + strings.Join(names, ", ") + ">"
}
func (t *ProtocolInstance) Hash() uint64 {
	parts := make([]uint64, 0, 2*len(t.Members))
	for _, m := range t.Members {
		parts = append(parts, hashString(m.Name), hashOf(m.Type))
	}
	return hashVariant("ProtocolInstance", parts...)
}

// ClassLiteral is the type of a class object itself: the expression `int`
// has type ClassLiteral(int).
type ClassLiteral struct {
	Class *Class
}

func (t *ClassLiteral) typeNode()      {}
func (t *ClassLiteral) String() string { return "<class '" + t.Class.Name + "'>" }
func (t *ClassLiteral) Hash() uint64 {
	return hashVariant("ClassLiteral", hashString(t.Class.Name))
}

// SubclassOf is `type[C]`: the type of class objects that subclass C.
// A nil Class means `type[Any]` (the dynamic form).
type SubclassOf struct {
	Class *Class // nil means dynamic
}

func (t *SubclassOf) typeNode() {}
func (t *SubclassOf) String() string {
	if t.Class == nil {
		return "type[Any]"
	}
	return "type[" + t.Class.Name + "]"
}
func (t *SubclassOf) Hash() uint64 {
	if t.Class == nil {
		return hashVariant("SubclassOf", hashString("Any"))
	}
	return hashVariant("SubclassOf", hashString(t.Class.Name))
}

// GenericAlias is a subscripted class object such as `list[int]`, usable as
// an annotation but not as a runtime classinfo argument.
type GenericAlias struct {
	Origin *Class
	Args   []Type
}

func (t *GenericAlias) typeNode() {}
func (t *GenericAlias) String() string {
	args := make([]string, 0, len(t.Args))
	for _, a := range t.Args {
		args = append(args, a.String())
	}
	return t.Origin.Name + "[" + strings.Join(args, ", ") + "]"
}
func (t *GenericAlias) Hash() uint64 {
	parts := []uint64{hashString(t.Origin.Name)}
	for _, a := range t.Args {
		parts = append(parts, hashOf(a))
	}
	return hashVariant("GenericAlias", parts...)
}

// IntLiteral is the type of a known integer value, `Literal[3]`.
type IntLiteral struct {
	Value int64
}

func (t *IntLiteral) typeNode()      {}
func (t *IntLiteral) String() string { return "Literal[" + strconv.FormatInt(t.Value, 10) + "]" }
func (t *IntLiteral) Hash() uint64 {
	return hashVariant("IntLiteral", uint64(t.Value))
}

// BooleanLiteral is `Literal[True]` or `Literal[False]`.
type BooleanLiteral struct {
	Value bool
}

func (t *BooleanLiteral) typeNode() {}
func (t *BooleanLiteral) String() string {
	if t.Value {
		return "Literal[True]"
	}
	return "Literal[False]"
}
func (t *BooleanLiteral) Hash() uint64 {
	v := uint64(0)
	if t.Value {
		v = 1
	}
	return hashVariant("BooleanLiteral", v)
}

// StringLiteral is the type of a known string value.
type StringLiteral struct {
	Value string
}

func (t *StringLiteral) typeNode()      {}
func (t *StringLiteral) String() string { return "Literal[" + strconv.Quote(t.Value) + "]" }
func (t *StringLiteral) Hash() uint64 {
	return hashVariant("StringLiteral", hashString(t.Value))
}

// BytesLiteral is the type of a known bytes value.
type BytesLiteral struct {
	Value []byte
}

func (t *BytesLiteral) typeNode()      {}
func (t *BytesLiteral) String() string { return "Literal[b" + strconv.Quote(string(t.Value)) + "]" }
func (t *BytesLiteral) Hash() uint64 {
	return hashVariant("BytesLiteral", hashString(string(t.Value)))
}

// EnumLiteral is a single member of an enum class, `Literal[Color.RED]`.
type EnumLiteral struct {
	Class  *Class
	Member string
}

func (t *EnumLiteral) typeNode()      {}
func (t *EnumLiteral) String() string { return "Literal[" + t.Class.Name + "." + t.Member + "]" }
func (t *EnumLiteral) Hash() uint64 {
	return hashVariant("EnumLiteral", hashString(t.Class.Name), hashString(t.Member))
}

// LiteralStringType is `LiteralString`: a string of statically unknown
// content that is still known to be built from literals.
type LiteralStringType struct{}

func (t *LiteralStringType) typeNode()      {}
func (t *LiteralStringType) String() string { return "LiteralString" }
func (t *LiteralStringType) Hash() uint64   { return hashVariant("LiteralString") }

// TupleType is a fixed-size heterogeneous tuple.
type TupleType struct {
	Elements []Type
}

func (t *TupleType) typeNode() {}
func (t *TupleType) String() string {
	if len(t.Elements) == 0 {
		return "tuple[()]"
	}
	elems := make([]string, 0, len(t.Elements))
	for _, e := range t.Elements {
		elems = append(elems, e.String())
	}
	return "tuple[" + strings.Join(elems, ", ") + "]"
}
func (t *TupleType) Hash() uint64 {
	parts := make([]uint64, 0, len(t.Elements))
	for _, e := range t.Elements {
		parts = append(parts, hashOf(e))
	}
	return hashVariant("TupleType", parts...)
}

// UnionType holds two or more alternatives. Always build unions through
// UnionBuilder so nested unions flatten and duplicates collapse.
type UnionType struct {
	Elements []Type
}

func (t *UnionType) typeNode() {}
func (t *UnionType) String() string {
	elems := make([]string, 0, len(t.Elements))
	for _, e := range t.Elements {
		elems = append(elems, e.String())
	}
	return strings.Join(elems, " | ")
}
func (t *UnionType) Hash() uint64 {
	// order-insensitive so that A | B hashes like B | A
	var acc uint64
	for _, e := range t.Elements {
		acc += hashOf(e)
	}
	return hashVariant("UnionType", acc)
}

// IntersectionType holds positive and negative conjuncts:
// Positive[0] & ... & ~Negative[0] & ... . An empty Positive list means
// object. Always build intersections through IntersectionBuilder.
type IntersectionType struct {
	Positive []Type
	Negative []Type
}

func (t *IntersectionType) typeNode() {}
func (t *IntersectionType) String() string {
	parts := make([]string, 0, len(t.Positive)+len(t.Negative))
	for _, p := range t.Positive {
		s := p.String()
		if _, isUnion := p.(*UnionType); isUnion {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	for _, n := range t.Negative {
		s := n.String()
		if _, isUnion := n.(*UnionType); isUnion {
			s = "(" + s + ")"
		}
		parts = append(parts, "~"+s)
	}
	if len(parts) == 0 {
		return "object"
	}
	return strings.Join(parts, " & ")
}
func (t *IntersectionType) Hash() uint64 {
	var pos, neg uint64
	for _, p := range t.Positive {
		pos += hashOf(p)
	}
	for _, n := range t.Negative {
		neg += hashOf(n)
	}
	return hashVariant("IntersectionType", pos, neg)
}

// TypeVarType is a type variable with either an upper bound or a constraint
// set (never both).
type TypeVarType struct {
	Name        string
	Bound       Type   // may be nil
	Constraints []Type // nil unless the typevar is constrained
}

func (t *TypeVarType) typeNode()      {}
func (t *TypeVarType) String() string { return t.Name }
func (t *TypeVarType) Hash() uint64 {
	parts := []uint64{hashString(t.Name), hashOf(t.Bound)}
	for _, c := range t.Constraints {
		parts = append(parts, hashOf(c))
	}
	return hashVariant("TypeVarType", parts...)
}

// CallableType is a minimal callable signature; narrowing never inspects
// parameters beyond displaying them.
type CallableType struct {
	Params []Type
	Return Type
}

func (t *CallableType) typeNode() {}
func (t *CallableType) String() string {
	params := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, p.String())
	}
	ret := "None"
	if t.Return != nil {
		ret = t.Return.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> " + ret
}
func (t *CallableType) Hash() uint64 {
	parts := make([]uint64, 0, len(t.Params)+1)
	for _, p := range t.Params {
		parts = append(parts, hashOf(p))
	}
	parts = append(parts, hashOf(t.Return))
	return hashVariant("CallableType", parts...)
}

// KnownFunction marks functions whose call expressions narrowing treats
// specially.
type KnownFunction int

const (
	KnownFunctionNone KnownFunction = iota
	KnownIsInstance
	KnownIsSubclass
	KnownHasAttr
	KnownRevealType
)

// FunctionLiteral is the type of a specific function object. Returns is the
// declared return type; a TypeIs return marks the function as a type guard.
type FunctionLiteral struct {
	Name    string
	Known   KnownFunction
	Returns Type // may be nil
}

func (t *FunctionLiteral) typeNode()      {}
func (t *FunctionLiteral) String() string { return "def " + t.Name }
func (t *FunctionLiteral) Hash() uint64 {
	return hashVariant("FunctionLiteral", hashString(t.Name), uint64(t.Known), hashOf(t.Returns))
}

// ModuleLiteral is the type of a specific imported module object.
type ModuleLiteral struct {
	Name string
}

func (t *ModuleLiteral) typeNode()      {}
func (t *ModuleLiteral) String() string { return "<module '" + t.Name + "'>" }
func (t *ModuleLiteral) Hash() uint64 {
	return hashVariant("ModuleLiteral", hashString(t.Name))
}

// TypeIsType is the return type of a type-guard function: when the call
// returns True, the argument bound to Place has the Guarded type. Place is
// the scoped place id of the call-site argument; Bound is false while the
// guard is unapplied to a specific call.
type TypeIsType struct {
	Guarded Type
	Place   int
	Bound   bool
}

func (t *TypeIsType) typeNode()      {}
func (t *TypeIsType) String() string { return "TypeIs[" + t.Guarded.String() + "]" }
func (t *TypeIsType) Hash() uint64 {
	b := uint64(0)
	if t.Bound {
		b = 1
	}
	return hashVariant("TypeIsType", hashOf(t.Guarded), uint64(t.Place), b)
}

// AlwaysTruthyType is the set of all objects whose bool() is True;
// AlwaysFalsyType its complement. They only ever appear inside
// intersections produced by truthiness narrowing.
type AlwaysTruthyType struct{}

func (t *AlwaysTruthyType) typeNode()      {}
func (t *AlwaysTruthyType) String() string { return "AlwaysTruthy" }
func (t *AlwaysTruthyType) Hash() uint64   { return hashVariant("AlwaysTruthy") }

type AlwaysFalsyType struct {
}

func (t *AlwaysFalsyType) typeNode()      {}
func (t *AlwaysFalsyType) String() string { return "AlwaysFalsy" }
func (t *AlwaysFalsyType) Hash() uint64   { return hashVariant("AlwaysFalsy") }

// Shared instances for the variants that carry no fields.
var (
	dynamicInstance       = &DynamicType{}
	neverInstance         = &NeverType{}
	objectInstance        = &NominalInstance{Class: ObjectClass}
	noneInstance          = &NominalInstance{Class: NoneClass}
	literalStringInstance = &LiteralStringType{}
	alwaysTruthyInstance  = &AlwaysTruthyType{}
	alwaysFalsyInstance   = &AlwaysFalsyType{}
)

// Dynamic returns the dynamic (Any) type.
func Dynamic() Type { return dynamicInstance }

// Never returns the bottom type.
func Never() Type { return neverInstance }

// Object returns the top of the lattice, an instance of object.
func Object() Type { return objectInstance }

// None returns the type of the None singleton.
func None() Type { return noneInstance }

// LiteralString returns the LiteralString special form.
func LiteralString() Type { return literalStringInstance }

// AlwaysTruthy returns the set of always-truthy objects.
func AlwaysTruthy() Type { return alwaysTruthyInstance }

// AlwaysFalsy returns the set of always-falsy objects.
func AlwaysFalsy() Type { return alwaysFalsyInstance }

// Instance returns the nominal instance type of a class.
func Instance(c *Class) Type {
	switch c.Known {
	case KnownObject:
		return objectInstance
	case KnownNoneType:
		return noneInstance
	}
	return &NominalInstance{Class: c}
}

// IsObject reports whether t is the unconstrained top type.
func IsObject(t Type) bool {
	instance, ok := t.(*NominalInstance)
	return ok && instance.Class.IsKnown(KnownObject)
}

// IsNever reports whether t is the bottom type.
func IsNever(t Type) bool {
	_, ok := t.(*NeverType)
	return ok
}
