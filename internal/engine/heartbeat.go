package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/sim"
)

// heartbeat logs progress every interval cycles.
func (b *bench) heartbeat(interval int64) sim.ProcessFunc {
	return func(ctx context.Context, p *sim.Process) error {
		for {
			if err := p.WaitRising(ctx); err != nil {
				return err
			}
			cycle := p.Clock().Cycle()
			if cycle%interval != 0 {
				continue
			}
			b.logger.Info("heartbeat",
				zap.Int64("cycle", cycle),
				zap.Int64("dispatched", b.driver.Dispatched()),
				zap.Int("outstanding", b.scoreboard.Outstanding()),
				zap.Int("coverage_pct", b.coverage.Percent()),
			)
		}
	}
}
