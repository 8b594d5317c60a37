package coverage

import (
	"github.com/roach88/mulcheck/internal/txn"
)

// Corner is the corner-value class of one operand.
type Corner string

const (
	CornerMin   Corner = "min"
	CornerMax   Corner = "max"
	CornerZero  Corner = "zero"
	CornerOnes  Corner = "ones"
	CornerOther Corner = "other"
)

// Corners lists the five operand classes in cross order.
func Corners() []Corner {
	return []Corner{CornerMin, CornerMax, CornerZero, CornerOnes, CornerOther}
}

// ClassifyOperand maps an operand to its corner class.
func ClassifyOperand(v int16) Corner {
	switch v {
	case txn.OperandMin:
		return CornerMin
	case txn.OperandMax:
		return CornerMax
	case txn.OperandZero:
		return CornerZero
	case txn.OperandOnes:
		return CornerOnes
	default:
		return CornerOther
	}
}

// ParityClass says which declared parities were wrong.
type ParityClass string

const (
	ParityBothOK  ParityClass = "both_ok"
	ParityABad    ParityClass = "a_bad"
	ParityBBad    ParityClass = "b_bad"
	ParityBothBad ParityClass = "both_bad"
)

// ParityClasses lists the four parity classes.
func ParityClasses() []ParityClass {
	return []ParityClass{ParityBothOK, ParityABad, ParityBBad, ParityBothBad}
}

// ClassifyParity compares each declared parity with the operand's true
// parity.
func ClassifyParity(t txn.Transaction) ParityClass {
	switch okA, okB := t.ParityAOK(), t.ParityBOK(); {
	case okA && okB:
		return ParityBothOK
	case !okA && okB:
		return ParityABad
	case okA && !okB:
		return ParityBBad
	default:
		return ParityBothBad
	}
}

// Family groups related classes.
type Family string

const (
	FamilySequence Family = "seq"
	FamilyCorner   Family = "corner"
	FamilyParity   Family = "parity"
)

// Class identifiers. Each is "<family>:<name>".
const (
	ClassMultiply      = "seq:multiply"
	ClassResetMultiply = "seq:reset->multiply"
	ClassMultiplyReset = "seq:multiply->reset"
	// ClassReset counts reset visits. It is not a goal.
	ClassReset = "seq:reset"
)

// CornerClass is the identifier of one cell of the corner cross.
func CornerClass(a, b Corner) string {
	return string(FamilyCorner) + ":" + string(a) + "," + string(b)
}

// ParityClassID is the identifier of a parity class.
func ParityClassID(p ParityClass) string {
	return string(FamilyParity) + ":" + string(p)
}

// Goals lists the classes that must all be hit for closure.
func Goals() []string {
	return []string{
		ClassMultiply,
		ClassResetMultiply,
		ClassMultiplyReset,
		CornerClass(CornerMin, CornerMin),
		CornerClass(CornerMax, CornerMax),
		CornerClass(CornerMin, CornerMax),
		CornerClass(CornerMax, CornerMin),
		CornerClass(CornerZero, CornerZero),
		CornerClass(CornerOnes, CornerOnes),
		ParityClassID(ParityBothOK),
		ParityClassID(ParityABad),
		ParityClassID(ParityBBad),
		ParityClassID(ParityBothBad),
	}
}

// Classify returns the classes a completed transaction hits, given the
// operation sampled before it. Pure: no model state is read or written.
func Classify(prev Prev, t txn.Transaction) []string {
	classes := make([]string, 0, 4)
	switch t.Op {
	case txn.OpMultiply:
		classes = append(classes, ClassMultiply)
		if prev == PrevReset {
			classes = append(classes, ClassResetMultiply)
		}
	case txn.OpReset:
		if prev == PrevMultiply {
			classes = append(classes, ClassMultiplyReset)
		}
	}
	classes = append(classes,
		CornerClass(ClassifyOperand(t.A), ClassifyOperand(t.B)),
		ParityClassID(ClassifyParity(t)),
	)
	return classes
}

// Prev is the sequencing history: the operation sampled last.
type Prev uint8

const (
	PrevNone Prev = iota
	PrevMultiply
	PrevReset
)

func prevOf(op txn.Operation) Prev {
	if op == txn.OpReset {
		return PrevReset
	}
	return PrevMultiply
}
