package syntax

import (
	"encoding/binary"
	"hash/fnv"
	"strconv"
)

// IntLit is an integer literal.
type IntLit struct {
	Range
	Value int64
}

func (e *IntLit) exprNode() {}

func (e *IntLit) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("IntLit")
	_, _ = h.Write([]byte(strconv.FormatInt(e.Value, 10)))
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	_, _ = h.Write(arr)
	return h.Sum64()
}

// StringLit is a string literal.
type StringLit struct {
	Range
	Value string
}

func (e *StringLit) exprNode() {}

func (e *StringLit) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("StringLit")
	_, _ = h.Write([]byte(e.Value))
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	_, _ = h.Write(arr)
	return h.Sum64()
}

// BytesLit is a bytes literal.
type BytesLit struct {
	Range
	Value []byte
}

func (e *BytesLit) exprNode() {}

func (e *BytesLit) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("BytesLit")
	_, _ = h.Write(e.Value)
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	_, _ = h.Write(arr)
	return h.Sum64()
}

// BoolLit is True or False.
type BoolLit struct {
	Range
	Value bool
}

func (e *BoolLit) exprNode() {}

func (e *BoolLit) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("BoolLit")
	_, _ = h.Write([]byte(strconv.FormatBool(e.Value)))
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	_, _ = h.Write(arr)
	return h.Sum64()
}

// NoneLit is the None literal.
type NoneLit struct {
	Range
}

func (e *NoneLit) exprNode() {}

func (e *NoneLit) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("NoneLit")
	arr = binary.LittleEndian.AppendUint64(arr, e.Range.Hash())

	_, _ = h.Write(arr)
	return h.Sum64()
}
