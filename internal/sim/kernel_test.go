package sim

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestKernel_PhaseOrdering(t *testing.T) {
	k := NewKernel(NewClock(0))
	var log []string

	record := func(name string, edge Edge) ProcessFunc {
		return func(ctx context.Context, p *Process) error {
			for i := 0; i < 3; i++ {
				if err := p.Wait(ctx, edge); err != nil {
					return err
				}
				log = append(log, fmt.Sprintf("%d:%s:%s", p.Clock().Cycle(), edge, name))
			}
			return nil
		}
	}

	// Registration order deliberately puts the falling process first.
	k.Spawn("late", record("late", Falling))
	k.Spawn("a", record("a", Rising))
	k.Spawn("b", record("b", Rising))

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []string{
		"1:rising:a", "1:rising:b", "1:falling:late",
		"2:rising:a", "2:rising:b", "2:falling:late",
		"3:rising:a", "3:rising:b", "3:falling:late",
	}, log)
	assert.Equal(t, StopAllDone, k.StopReason())
}

func TestKernel_StopFinishesCurrentPhase(t *testing.T) {
	k := NewKernel(NewClock(0))
	var sawFalling []int64

	k.Spawn("stopper", func(ctx context.Context, p *Process) error {
		for {
			if err := p.WaitFalling(ctx); err != nil {
				return err
			}
			if p.Clock().Cycle() == 5 {
				p.Kernel().Stop("budget exhausted")
			}
		}
	})
	k.Spawn("observer", func(ctx context.Context, p *Process) error {
		for {
			if err := p.WaitFalling(ctx); err != nil {
				return err
			}
			sawFalling = append(sawFalling, p.Clock().Cycle())
		}
	})

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, sawFalling, "observer must see the edge on which stop was requested")
	assert.Equal(t, "budget exhausted", k.StopReason())
	assert.Equal(t, int64(5), k.Clock().Cycle())
}

func TestKernel_FirstStopReasonWins(t *testing.T) {
	k := NewKernel(NewClock(0))
	k.Stop("first")
	k.Stop("second")
	assert.Equal(t, "first", k.StopReason())
}

func TestKernel_ProcessErrorAborts(t *testing.T) {
	k := NewKernel(NewClock(0))
	boom := errors.New("boom")

	k.Spawn("ticker", func(ctx context.Context, p *Process) error {
		for {
			if err := p.WaitRising(ctx); err != nil {
				return err
			}
		}
	})
	k.Spawn("failing", func(ctx context.Context, p *Process) error {
		for i := 0; i < 2; i++ {
			if err := p.WaitRising(ctx); err != nil {
				return err
			}
		}
		return boom
	})

	err := k.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "process failing at cycle 2")
}

func TestKernel_ContextCancel(t *testing.T) {
	k := NewKernel(NewClock(0))
	k.Spawn("forever", func(ctx context.Context, p *Process) error {
		for {
			if err := p.WaitRising(ctx); err != nil {
				return err
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := k.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKernel_TimeZeroRunsBeforeFirstEdge(t *testing.T) {
	k := NewKernel(NewClock(0))
	var startCycle int64 = -1

	k.Spawn("init", func(ctx context.Context, p *Process) error {
		startCycle = p.Clock().Cycle()
		return nil
	})

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, int64(0), startCycle)
	assert.Equal(t, int64(0), k.Clock().Edges(), "no edge needed when every process finished at time zero")
}

func TestKernel_RunTwice(t *testing.T) {
	k := NewKernel(NewClock(0))
	require.NoError(t, k.Run(context.Background()))
	assert.Error(t, k.Run(context.Background()))
}

func TestProcess_InvalidEdge(t *testing.T) {
	k := NewKernel(NewClock(0))
	k.Spawn("bad", func(ctx context.Context, p *Process) error {
		return p.Wait(ctx, Edge(0))
	})

	err := k.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid wait edge")
}
