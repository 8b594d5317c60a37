// Package coverage tracks which equivalence classes of stimulus the run has
// exercised.
//
// Three families are sampled once per completed two-beat transaction:
// operation sequencing, the 5x5 operand corner cross, and the parity
// correctness combination. Thirteen of the classes are goals; closure is
// reached when every goal has been hit. Coverage is observational only and
// never touches the verdict.
package coverage

import (
	"sort"
	"strings"
	"sync"

	"github.com/roach88/mulcheck/internal/txn"
)

// Bin is one class in a coverage snapshot.
type Bin struct {
	Class string `json:"class"`
	Goal  bool   `json:"goal"`
	Hits  int64  `json:"hits"`
}

// Hit reports whether the class was sampled at least once.
func (b Bin) Hit() bool { return b.Hits > 0 }

// Family returns the family prefix of the class.
func (b Bin) Family() Family {
	f, _, _ := strings.Cut(b.Class, ":")
	return Family(f)
}

// Model holds the hit flags and counters.
//
// Hit flags are monotonic. ResetSequence clears only the sequencing
// history; nothing ever clears a flag.
type Model struct {
	mu     sync.Mutex
	goals  map[string]bool
	hits   map[string]int64
	prev   Prev
	closed bool
}

// NewModel creates an empty model with every known class at zero hits.
func NewModel() *Model {
	m := &Model{
		goals: make(map[string]bool),
		hits:  make(map[string]int64),
	}
	for _, g := range Goals() {
		m.goals[g] = true
	}
	for _, c := range []string{ClassMultiply, ClassResetMultiply, ClassMultiplyReset, ClassReset} {
		m.hits[c] = 0
	}
	for _, a := range Corners() {
		for _, b := range Corners() {
			m.hits[CornerClass(a, b)] = 0
		}
	}
	for _, p := range ParityClasses() {
		m.hits[ParityClassID(p)] = 0
	}
	return m
}

// Sample records a completed transaction. It returns true when this sample
// brought the model to closure.
func (m *Model) Sample(t txn.Transaction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range Classify(m.prev, t) {
		m.hits[c]++
	}
	m.prev = prevOf(t.Op)
	return m.updateClosed()
}

// SampleReset records a reset assertion. The sequencing history starts
// over and the reset becomes the previous operation, so the next MULTIPLY
// hits reset->multiply.
func (m *Model) SampleReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits[ClassReset]++
	m.prev = PrevReset
	return m.updateClosed()
}

// ResetSequence forgets the sequencing history without sampling.
func (m *Model) ResetSequence() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev = PrevNone
}

func (m *Model) updateClosed() bool {
	if m.closed {
		return false
	}
	for g := range m.goals {
		if m.hits[g] == 0 {
			return false
		}
	}
	m.closed = true
	return true
}

// Closed reports whether every goal class has been hit.
func (m *Model) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GoalsHit returns the number of goals hit and the number of goals.
func (m *Model) GoalsHit() (hit, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for g := range m.goals {
		if m.hits[g] > 0 {
			hit++
		}
	}
	return hit, len(m.goals)
}

// Percent is the share of goals hit, rounded down to a whole percent.
func (m *Model) Percent() int {
	hit, total := m.GoalsHit()
	return hit * 100 / total
}

// Hits returns the hit count of one class.
func (m *Model) Hits(class string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[class]
}

// Missing returns the goals not yet hit, sorted.
func (m *Model) Missing() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for g := range m.goals {
		if m.hits[g] == 0 {
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot returns every class sorted by identifier.
func (m *Model) Snapshot() []Bin {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Bin, 0, len(m.hits))
	for c, n := range m.hits {
		out = append(out, Bin{Class: c, Goal: m.goals[c], Hits: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}
