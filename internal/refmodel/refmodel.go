// Package refmodel predicts the multiplier's response to a transaction.
//
// Every function is pure: no state, no failure modes. The model is kept
// independent of the component model in package dut so that a bug in one
// is not silently mirrored by the other.
package refmodel

import (
	"math/bits"

	"github.com/roach88/mulcheck/internal/txn"
)

// Product is the signed 32-bit product of two 16-bit operands. The result
// always fits: |(-32768)²| = 2³⁰.
func Product(a, b int16) int32 {
	return int32(a) * int32(b)
}

// ProductParity is the XOR of all 32 bits of Product(a, b).
func ProductParity(a, b int16) bool {
	return xorFold32(uint32(Product(a, b)))
}

// InputParityError reports whether either declared parity disagrees with
// the operand it accompanies. A is checked before B; the result does not
// depend on the order.
func InputParityError(a int16, parityA bool, b int16, parityB bool) bool {
	errA := xorFold16(uint16(a)) != parityA
	errB := xorFold16(uint16(b)) != parityB
	return errA || errB
}

// Predict returns the expected response for a MULTIPLY transaction.
func Predict(t txn.Transaction) txn.Response {
	return txn.Response{
		Product:          Product(t.A, t.B),
		ProductParity:    ProductParity(t.A, t.B),
		InputParityError: InputParityError(t.A, t.ParityA, t.B, t.ParityB),
	}
}

func xorFold16(v uint16) bool {
	return bits.OnesCount16(v)&1 == 1
}

func xorFold32(v uint32) bool {
	return bits.OnesCount32(v)&1 == 1
}
