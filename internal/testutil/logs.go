package testutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ObservedLogger returns a logger whose entries at level and above are
// kept in logs.
func ObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// Fields flattens the context of every entry with message msg.
func Fields(logs *observer.ObservedLogs, msg string) []map[string]any {
	entries := logs.FilterMessage(msg).All()
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ContextMap())
	}
	return out
}
