package cli

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger. JSON output gets the production
// encoder so log lines are machine-readable too; text output gets the
// development console encoder. --verbose lowers the level to Debug.
//
// Logs always go to w (stderr), never to the command's stdout.
func newLogger(opts *RootOptions, w io.Writer) *zap.Logger {
	var cfg zap.Config
	if opts.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	var enc zapcore.Encoder
	if cfg.Encoding == "json" {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), cfg.Level)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(w)))
}
