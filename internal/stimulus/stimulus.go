// Package stimulus produces the transactions the driver dispatches.
//
// Generator draws constrained-random transactions; Scripted replays a fixed
// list for directed scenarios. Both implement Source.
package stimulus

import (
	"math/rand/v2"
	"sync"

	"github.com/roach88/mulcheck/internal/txn"
)

// Source yields transactions. ok is false once the source is exhausted.
type Source interface {
	Next() (t txn.Transaction, ok bool)
}

// The selector is an 8-way uniform draw. Slots 0-3 pick a corner value,
// slots 4-7 a uniformly random operand.
const (
	selectorWays = 8

	slotZero = 0
	slotMin  = 1
	slotMax  = 2
	slotOnes = 3

	// 1 in parityFlipOdds declared parities is inverted.
	parityFlipOdds = 8
	// 1 in resetOdds transactions is a RESET.
	resetOdds = 8
)

// Generator draws weighted-random transactions. It holds no state between
// calls beyond its PRNG and never runs dry.
//
// Thread-safety: Next is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed. The same seed always
// yields the same stream.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next draws one transaction. It never returns ok=false.
func (g *Generator) Next() (txn.Transaction, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, pa := g.operand()
	b, pb := g.operand()
	op := txn.OpMultiply
	if g.rng.IntN(resetOdds) == 0 {
		op = txn.OpReset
	}
	return txn.Transaction{A: a, ParityA: pa, B: b, ParityB: pb, Op: op}, true
}

// operand draws a value and its declared parity.
func (g *Generator) operand() (int16, bool) {
	var v int16
	switch g.rng.IntN(selectorWays) {
	case slotZero:
		v = txn.OperandZero
	case slotMin:
		v = txn.OperandMin
	case slotMax:
		v = txn.OperandMax
	case slotOnes:
		v = txn.OperandOnes
	default:
		v = int16(uint16(g.rng.Uint32()))
	}

	parity := txn.OperandParity(v)
	if g.rng.IntN(parityFlipOdds) == 0 {
		parity = !parity
	}
	return v, parity
}

// Scripted replays a fixed list of transactions, then reports exhaustion.
type Scripted struct {
	mu   sync.Mutex
	txns []txn.Transaction
	next int
}

// NewScripted creates a source returning txns in order.
func NewScripted(txns ...txn.Transaction) *Scripted {
	cp := make([]txn.Transaction, len(txns))
	copy(cp, txns)
	return &Scripted{txns: cp}
}

// Next returns the next scripted transaction.
func (s *Scripted) Next() (txn.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.txns) {
		return txn.Transaction{}, false
	}
	t := s.txns[s.next]
	s.next++
	return t, true
}

// Len returns the total number of scripted transactions.
func (s *Scripted) Len() int {
	return len(s.txns)
}
