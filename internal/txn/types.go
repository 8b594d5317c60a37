package txn

import (
	"fmt"
	"math/bits"
	"strings"
)

// Operand corner values exercised by the stimulus generator and tracked by
// coverage.
const (
	OperandZero int16 = 0
	OperandMin  int16 = -0x8000 // 0x8000
	OperandMax  int16 = 0x7FFF
	OperandOnes int16 = -1 // 0xFFFF
)

// Operation is what a transaction asks the component to do after both
// operand beats have been presented.
type Operation uint8

const (
	// OpMultiply waits for the product.
	OpMultiply Operation = iota
	// OpReset abandons the operands and resets the component.
	OpReset
)

// String returns the lower-case operation name.
func (o Operation) String() string {
	switch o {
	case OpMultiply:
		return "multiply"
	case OpReset:
		return "reset"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// ParseOperation parses "multiply" or "reset" (case-insensitive).
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiply", "mul":
		return OpMultiply, nil
	case "reset", "rst":
		return OpReset, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operation) UnmarshalText(text []byte) error {
	op, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Transaction is one multiply-or-reset request with its two operands and
// their declared parities. Declared parities may be deliberately wrong.
//
// Seq is assigned by the driver when the transaction is dispatched; zero
// means "not yet dispatched".
type Transaction struct {
	Seq     int64     `json:"seq"`
	A       int16     `json:"a"`
	ParityA bool      `json:"parity_a"`
	B       int16     `json:"b"`
	ParityB bool      `json:"parity_b"`
	Op      Operation `json:"op"`
}

// NewMultiply returns a MULTIPLY transaction with correct declared parities.
func NewMultiply(a, b int16) Transaction {
	return Transaction{A: a, ParityA: OperandParity(a), B: b, ParityB: OperandParity(b), Op: OpMultiply}
}

// WithSeq returns a copy of t stamped with seq.
func (t Transaction) WithSeq(seq int64) Transaction {
	t.Seq = seq
	return t
}

// ParityAOK reports whether the declared parity of A is the true parity.
func (t Transaction) ParityAOK() bool { return OperandParity(t.A) == t.ParityA }

// ParityBOK reports whether the declared parity of B is the true parity.
func (t Transaction) ParityBOK() bool { return OperandParity(t.B) == t.ParityB }

// SameOperands reports whether t and o carry the same operands and
// declared parities, ignoring Seq and Op.
func (t Transaction) SameOperands(o Transaction) bool {
	return t.A == o.A && t.ParityA == o.ParityA && t.B == o.B && t.ParityB == o.ParityB
}

func (t Transaction) String() string {
	return fmt.Sprintf("#%d %s A=%d(p=%d) B=%d(p=%d)", t.Seq, t.Op, t.A, Bit(t.ParityA), t.B, Bit(t.ParityB))
}

// Response is what the component reports for a completed MULTIPLY.
type Response struct {
	Product          int32 `json:"product"`
	ProductParity    bool  `json:"product_parity"`
	InputParityError bool  `json:"input_parity_error"`
}

func (r Response) String() string {
	return fmt.Sprintf("product=%d parity=%d parity_error=%d", r.Product, Bit(r.ProductParity), Bit(r.InputParityError))
}

// OperandParity is the XOR of the 16 bits of v.
func OperandParity(v int16) bool {
	return bits.OnesCount16(uint16(v))&1 == 1
}

// WordParity is the XOR of the 32 bits of v.
func WordParity(v int32) bool {
	return bits.OnesCount32(uint32(v))&1 == 1
}

// Bit converts a signal level to 0 or 1 for display.
func Bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
