package scoreboard

import (
	"sync"

	"github.com/roach88/mulcheck/internal/txn"
)

// Queue is a thread-safe FIFO of outstanding transactions.
//
// INVARIANT: Len equals the number of enqueued MULTIPLY transactions not
// yet matched to a response and not discarded by Clear.
type Queue struct {
	mu    sync.Mutex
	items []txn.Transaction

	enqueued int64
	dequeued int64
	dropped  int64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{items: make([]txn.Transaction, 0, 8)}
}

// Enqueue appends t at the tail.
func (q *Queue) Enqueue(t txn.Transaction) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, t)
	q.enqueued++
}

// TryDequeue removes and returns the head (oldest) transaction.
// Returns (txn.Transaction{}, false) if the queue is empty.
func (q *Queue) TryDequeue() (txn.Transaction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return txn.Transaction{}, false
	}
	t := q.items[0]
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	q.dequeued++
	return t, true
}

// Clear discards every outstanding transaction and returns how many were
// dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = q.items[:0]
	q.dropped += int64(n)
	return n
}

// Len returns the number of outstanding transactions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the outstanding transactions, oldest first.
func (q *Queue) Snapshot() []txn.Transaction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]txn.Transaction, len(q.items))
	copy(out, q.items)
	return out
}

// QueueStats are lifetime counters.
type QueueStats struct {
	Enqueued int64 `json:"enqueued"`
	Dequeued int64 `json:"dequeued"`
	Dropped  int64 `json:"dropped"`
}

// Stats returns lifetime counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{Enqueued: q.enqueued, Dequeued: q.dequeued, Dropped: q.dropped}
}
