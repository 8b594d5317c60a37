package stimulus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mulcheck/internal/txn"
)

func TestGenerator_Deterministic(t *testing.T) {
	g1 := NewGenerator(42)
	g2 := NewGenerator(42)
	for i := 0; i < 1000; i++ {
		a, _ := g1.Next()
		b, _ := g2.Next()
		require.Equal(t, a, b, "draw %d", i)
	}
}

func TestGenerator_SeedsDiffer(t *testing.T) {
	g1 := NewGenerator(1)
	g2 := NewGenerator(2)
	same := 0
	for i := 0; i < 100; i++ {
		a, _ := g1.Next()
		b, _ := g2.Next()
		if a == b {
			same++
		}
	}
	assert.Less(t, same, 100)
}

func TestGenerator_NeverExhausted(t *testing.T) {
	g := NewGenerator(7)
	for i := 0; i < 100; i++ {
		_, ok := g.Next()
		require.True(t, ok)
	}
}

// TestGenerator_Distribution checks the weights within generous bounds:
// corners 1/8 each, random 1/2, parity flips 1/8, resets 1/8.
func TestGenerator_Distribution(t *testing.T) {
	const n = 80000
	g := NewGenerator(2024)

	corners := map[int16]int{}
	var flipped, resets int
	for i := 0; i < n; i++ {
		tx, _ := g.Next()
		for _, v := range []int16{tx.A, tx.B} {
			switch v {
			case txn.OperandZero, txn.OperandMin, txn.OperandMax, txn.OperandOnes:
				corners[v]++
			}
		}
		if !tx.ParityAOK() {
			flipped++
		}
		if !tx.ParityBOK() {
			flipped++
		}
		if tx.Op == txn.OpReset {
			resets++
		}
	}

	// 2n operands; each corner expected 2n/8 = 20000, plus a tiny share
	// from the uniform slot.
	for _, v := range []int16{txn.OperandZero, txn.OperandMin, txn.OperandMax, txn.OperandOnes} {
		assert.InDelta(t, 20000, corners[v], 1000, "corner %d", v)
	}
	assert.InDelta(t, 20000, flipped, 1000)
	assert.InDelta(t, 10000, resets, 700)
}

func TestScripted(t *testing.T) {
	a := txn.NewMultiply(1, 2)
	b := txn.Transaction{Op: txn.OpReset}
	s := NewScripted(a, b)
	assert.Equal(t, 2, s.Len())

	got, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, a, got)

	got, ok = s.Next()
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = s.Next()
	assert.False(t, ok)
}
