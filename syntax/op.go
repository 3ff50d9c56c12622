package syntax

// CmpOp is a comparison operator.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNotEq
	CmpLt
	CmpLtE
	CmpGt
	CmpGtE
	CmpIs
	CmpIsNot
	CmpIn
	CmpNotIn
)

func (op CmpOp) String() string {
	switch op {
	case CmpEq:
		return "=="
	case CmpNotEq:
		return "!="
	case CmpLt:
		return "<"
	case CmpLtE:
		return "<="
	case CmpGt:
		return ">"
	case CmpGtE:
		return ">="
	case CmpIs:
		return "is"
	case CmpIsNot:
		return "is not"
	case CmpIn:
		return "in"
	case CmpNotIn:
		return "not in"
	}
	return "<unknown cmp op>"
}

// Negate returns the operator that holds exactly when op does not.
func (op CmpOp) Negate() CmpOp {
	switch op {
	case CmpEq:
		return CmpNotEq
	case CmpNotEq:
		return CmpEq
	case CmpLt:
		return CmpGtE
	case CmpLtE:
		return CmpGt
	case CmpGt:
		return CmpLtE
	case CmpGtE:
		return CmpLt
	case CmpIs:
		return CmpIsNot
	case CmpIsNot:
		return CmpIs
	case CmpIn:
		return CmpNotIn
	case CmpNotIn:
		return CmpIn
	}
	return op
}

// BoolOpKind distinguishes `and` from `or`.
type BoolOpKind int

const (
	BoolAnd BoolOpKind = iota
	BoolOr
)

func (op BoolOpKind) String() string {
	if op == BoolAnd {
		return "and"
	}
	return "or"
}

// UnaryOpKind is the operator of a UnaryOp node.
type UnaryOpKind int

const (
	UnaryNot UnaryOpKind = iota
	UnaryNeg
	UnaryPos
)

func (op UnaryOpKind) String() string {
	switch op {
	case UnaryNot:
		return "not"
	case UnaryNeg:
		return "-"
	case UnaryPos:
		return "+"
	}
	return "<unknown unary op>"
}
