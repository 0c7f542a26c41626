package ast

import "fmt"

// Operator is a unary or binary operator.
type Operator int

const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpOver        // int // int -> rat
	OpExpressOver // rat /// int -> int
	OpRationalize // rat //// int -> rat
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
	OpNot
	OpNegate
)

var operatorLexemes = [...]string{
	OpAdd:         "+",
	OpSubtract:    "-",
	OpMultiply:    "*",
	OpDivide:      "/",
	OpOver:        "//",
	OpExpressOver: "///",
	OpRationalize: "////",
	OpLess:        "<",
	OpLessEq:      "<=",
	OpGreater:     ">",
	OpGreaterEq:   ">=",
	OpEqual:       "==",
	OpNotEqual:    "!=",
	OpAnd:         "&&",
	OpOr:          "||",
	OpNot:         "!",
	OpNegate:      "-",
}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorLexemes) {
		return operatorLexemes[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

func (op Operator) IsArithmetic() bool {
	return op >= OpAdd && op <= OpDivide
}

func (op Operator) IsRationalOp() bool {
	return op >= OpOver && op <= OpRationalize
}

func (op Operator) IsComparison() bool {
	return op >= OpLess && op <= OpNotEqual
}

func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}
