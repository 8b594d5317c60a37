package scoreboard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mulcheck/internal/txn"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 3; i++ {
		q.Enqueue(txn.NewMultiply(int16(i), 1).WithSeq(i))
	}

	for i := int64(1); i <= 3; i++ {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, got.Seq)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(txn.NewMultiply(1, 1))
	q.Enqueue(txn.NewMultiply(2, 2))

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Clear(), "clearing an empty queue drops nothing")

	q.Enqueue(txn.NewMultiply(3, 3).WithSeq(9))
	got, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, int64(9), got.Seq)

	assert.Equal(t, QueueStats{Enqueued: 3, Dequeued: 1, Dropped: 2}, q.Stats())
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue(txn.NewMultiply(1, 1).WithSeq(1))

	snap := q.Snapshot()
	snap[0].Seq = 99

	got, _ := q.TryDequeue()
	assert.Equal(t, int64(1), got.Seq)
}

func TestQueue_ThreadSafe(t *testing.T) {
	q := NewQueue()
	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.Enqueue(txn.NewMultiply(1, 1))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
	n := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, producers*perProducer, n)
}
