package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/config"
	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/engine"
	"github.com/roach88/mulcheck/internal/scoreboard"
	"github.com/roach88/mulcheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath    string
	Seed          uint64
	Transactions  int64
	StopOnClosure bool
	Fault         string
	Latency       int
	Diagnostics   string
	Color         string
	Database      string

	// RunIDGenerator overrides run IDs (for testing). If nil, defaults to
	// UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the verification bench",
		Long: `Run the verification bench with constrained-random stimulus.

Settings come from the defaults, then the --config file, then flags that
were set explicitly. With --db the finished run is appended to the run
history database.

Exit codes:
  0 - PASSED
  1 - FAILED
  2 - Configuration or command error
  3 - Protocol error (the bench lost track of the handshake)

Examples:
  mulcheck run
  mulcheck run --seed 7 --transactions 5000
  mulcheck run --transactions 0 --stop-on-closure
  mulcheck run --config bench.cue --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "bench configuration file (.cue or .json)")
	f.Uint64Var(&opts.Seed, "seed", engine.DefaultSeed, "stimulus seed")
	f.Int64VarP(&opts.Transactions, "transactions", "n", engine.DefaultTransactions, "transaction budget, 0 for none")
	f.BoolVar(&opts.StopOnClosure, "stop-on-closure", false, "stop once every coverage goal is hit")
	f.StringVar(&opts.Fault, "fault", string(dut.FaultNone), "inject a component fault")
	f.IntVar(&opts.Latency, "latency", dut.DefaultLatency, "component latency in cycles")
	f.StringVar(&opts.Diagnostics, "diagnostics", string(scoreboard.DiagMismatch), "diagnostic mode (mismatch|all|quiet)")
	f.StringVar(&opts.Color, "color", string(config.ColorAuto), "colour the report (auto|always|never)")
	f.StringVar(&opts.Database, "db", "", "append the run to this history database")

	return cmd
}

func runBench(opts *RunOptions, cmd *cobra.Command) error {
	logger := opts.logger()
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if err := applyRunFlags(cmd, opts, cfg); err != nil {
		return err
	}
	cfg.LogWarnings(logger)

	settings, err := cfg.Settings()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	color, _ := config.ParseColor(cfg.Diagnostics.Color)

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", zap.Error(closeErr))
			}
		}()
	}

	gen := opts.RunIDGenerator
	if gen == nil {
		gen = engine.UUIDv7Generator{}
	}
	eng := engine.New(settings, engine.WithRunIDGenerator(gen), engine.WithLogger(logger))

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	report, runErr := eng.Run(ctx)
	if report == nil {
		if engine.IsSettingsError(runErr) {
			return WrapExitError(ExitCommandError, "invalid settings", runErr)
		}
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}

	if st != nil && runErr == nil {
		if _, err := st.WriteRun(context.Background(), report); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		logger.Debug("run recorded", zap.String("db", opts.Database), zap.String("run_id", report.RunID))
	}

	if formatter.JSON() {
		if err := formatter.Success(report.CanonicalMap()); err != nil {
			return err
		}
	} else {
		writeReport(cmd.OutOrStdout(), report, color)
	}

	switch {
	case runErr == nil && report.Passed():
		return nil
	case runErr == nil:
		return NewExitError(ExitFailure, fmt.Sprintf("verdict FAILED: %d mismatches", len(report.Mismatches)))
	case scoreboard.IsProtocolError(runErr):
		return WrapExitError(ExitProtocolError, "protocol error", runErr)
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	default:
		return WrapExitError(ExitFailure, "run aborted", runErr)
	}
}

// loadConfig returns the configuration at path, or the defaults when path
// is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyRunFlags overrides configuration values with the flags the user set.
func applyRunFlags(cmd *cobra.Command, opts *RunOptions, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("seed") {
		cfg.Seed = opts.Seed
	}
	if f.Changed("transactions") {
		cfg.Transactions = opts.Transactions
	}
	if f.Changed("stop-on-closure") {
		cfg.StopOnClosure = opts.StopOnClosure
	}
	if f.Changed("fault") {
		if _, err := dut.ParseFault(opts.Fault); err != nil {
			return WrapExitError(ExitCommandError, "invalid --fault", err)
		}
		cfg.DUT.Fault = opts.Fault
	}
	if f.Changed("latency") {
		cfg.DUT.Latency = opts.Latency
	}
	if f.Changed("diagnostics") {
		cfg.Diagnostics.Mode = opts.Diagnostics
	}
	if f.Changed("color") {
		cfg.Diagnostics.Color = opts.Color
	}
	return nil
}

// signalContext cancels on SIGINT or SIGTERM. The run then stops at the
// next phase boundary and reports what it has.
func signalContext(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping run", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
