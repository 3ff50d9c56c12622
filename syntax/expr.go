package syntax

import (
	"encoding/binary"
	"hash/fnv"
)

// All expression types implement the Expr interface

// Name represents a bare variable reference.
type Name struct {
	Range
	Name string
}

func (e *Name) exprNode() {}

// Hash returns a hash value for the Name, based on its structural characteristics
func (e *Name) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Name")
	_, _ = h.Write([]byte(e.Name))
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	_, _ = h.Write(arr)
	return h.Sum64()
}

// Attribute represents an attribute access like value.attr.
type Attribute struct {
	Range
	Value Expr
	Attr  string
}

func (e *Attribute) exprNode() {}

func (e *Attribute) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Attribute")
	_, _ = h.Write([]byte(e.Attr))
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	if e.Value != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Value.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// Subscript represents an index access like value[index].
type Subscript struct {
	Range
	Value Expr
	Index Expr
}

func (e *Subscript) exprNode() {}

func (e *Subscript) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Subscript")
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	if e.Value != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Value.Hash())
	}
	if e.Index != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Index.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// Named represents a named (walrus) expression like target := value.
type Named struct {
	Range
	Target Expr
	Value  Expr
}

func (e *Named) exprNode() {}

func (e *Named) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Named")
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	if e.Target != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Target.Hash())
	}
	if e.Value != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Value.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// UnaryOp represents a unary operation; only `not` is relevant to narrowing,
// but `-` and `+` appear in literal expressions.
type UnaryOp struct {
	Range
	Op      UnaryOpKind
	Operand Expr
}

func (e *UnaryOp) exprNode() {}

func (e *UnaryOp) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("UnaryOp")
	_, _ = h.Write([]byte(e.Op.String()))
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	if e.Operand != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Operand.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// BoolOp represents an and/or chain with two or more operands.
type BoolOp struct {
	Range
	Op     BoolOpKind
	Values []Expr
}

func (e *BoolOp) exprNode() {}

func (e *BoolOp) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("BoolOp")
	_, _ = h.Write([]byte(e.Op.String()))
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	for _, v := range e.Values {
		arr = binary.LittleEndian.AppendUint64(arr, v.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// Compare represents a (possibly chained) comparison like a < b <= c.
// len(Ops) == len(Comparators), and chained comparisons share intermediate
// operands: the right side of one pair is the left side of the next.
type Compare struct {
	Range
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

func (e *Compare) exprNode() {}

func (e *Compare) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Compare")
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	if e.Left != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Left.Hash())
	}
	for _, op := range e.Ops {
		_, _ = h.Write([]byte(op.String()))
	}
	for _, c := range e.Comparators {
		arr = binary.LittleEndian.AppendUint64(arr, c.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// Keyword is a keyword argument in a call.
type Keyword struct {
	Range
	Name  string
	Value Expr
}

func (k *Keyword) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Keyword")
	_, _ = h.Write([]byte(k.Name))
	arr = binary.LittleEndian.AppendUint64(arr, k.Range.Hash())

	if k.Value != nil {
		arr = binary.LittleEndian.AppendUint64(arr, k.Value.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// Call represents a function call.
type Call struct {
	Range
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

func (e *Call) exprNode() {}

func (e *Call) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Call")
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	if e.Func != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Func.Hash())
	}
	for _, a := range e.Args {
		arr = binary.LittleEndian.AppendUint64(arr, a.Hash())
	}
	for i := range e.Keywords {
		arr = binary.LittleEndian.AppendUint64(arr, (&e.Keywords[i]).Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}

// TupleExpr represents a parenthesised tuple display like (1, 2, 3).
type TupleExpr struct {
	Range
	Elts []Expr
}

func (e *TupleExpr) exprNode() {}

func (e *TupleExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("TupleExpr")
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	for _, el := range e.Elts {
		arr = binary.LittleEndian.AppendUint64(arr, el.Hash())
	}

	_, _ = h.Write(arr)
	return h.Sum64()
}
