package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mulcheck/internal/engine"
	"github.com/roach88/mulcheck/internal/stimulus"
	"github.com/roach88/mulcheck/internal/txn"
)

// RunTimeout bounds every bench run started from a test.
const RunTimeout = 30 * time.Second

// RunBench runs the bench to completion under the run ID id and fails the
// test if the run errors. Extra options are applied after the run ID.
func RunBench(t testing.TB, s engine.Settings, id string, opts ...engine.Option) *engine.Report {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	all := append([]engine.Option{engine.WithRunIDGenerator(engine.NewFixedGenerator(id))}, opts...)
	r, err := engine.New(s, all...).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

// RunScript runs s with a scripted source replaying txns. The budget is
// cleared so the script alone decides the length of the run.
func RunScript(t testing.TB, s engine.Settings, id string, txns ...txn.Transaction) *engine.Report {
	t.Helper()
	s.Transactions = 0
	return RunBench(t, s, id, engine.WithSource(func() stimulus.Source {
		return stimulus.NewScripted(txns...)
	}))
}
