package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperandParity(t *testing.T) {
	tests := []struct {
		name string
		v    int16
		want bool
	}{
		{"zero", OperandZero, false},
		{"one", 1, true},
		{"three", 3, false},
		{"min", OperandMin, true},
		{"max", OperandMax, true},
		{"ones", OperandOnes, false},
		{"five", 5, false},
		{"minus three", -3, true}, // 0xFFFD has 15 set bits
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OperandParity(tt.v))
		})
	}
}

func TestWordParity(t *testing.T) {
	assert.False(t, WordParity(0))
	assert.True(t, WordParity(1))
	assert.True(t, WordParity(-15), "0xFFFFFFF1 has 29 set bits")
	assert.False(t, WordParity(-1))
}

func TestNewMultiply_CorrectParity(t *testing.T) {
	tx := NewMultiply(5, -3)
	assert.Equal(t, OpMultiply, tx.Op)
	assert.True(t, tx.ParityAOK())
	assert.True(t, tx.ParityBOK())
}

func TestTransaction_SameOperandsIgnoresSeqAndOp(t *testing.T) {
	a := NewMultiply(7, 9).WithSeq(1)
	b := a.WithSeq(42)
	b.Op = OpReset
	assert.True(t, a.SameOperands(b))

	b.ParityB = !b.ParityB
	assert.False(t, a.SameOperands(b))
}

func TestOperation_TextRoundTrip(t *testing.T) {
	for _, op := range []Operation{OpMultiply, OpReset} {
		text, err := op.MarshalText()
		require.NoError(t, err)

		var got Operation
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, op, got)
	}
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation(" RESET ")
	require.NoError(t, err)
	assert.Equal(t, OpReset, op)

	op, err = ParseOperation("mul")
	require.NoError(t, err)
	assert.Equal(t, OpMultiply, op)

	_, err = ParseOperation("divide")
	assert.Error(t, err)
}

func TestTransaction_String(t *testing.T) {
	tx := NewMultiply(5, -3).WithSeq(3)
	assert.Equal(t, "#3 multiply A=5(p=0) B=-3(p=1)", tx.String())
}
