// Package logger builds the structured loggers used throughout the store.
// Every subsystem Config takes a *zap.SugaredLogger rather than talking to
// zap directly, so tests can swap in a zaptest logger without touching
// subsystem code.
package logger

import "go.uber.org/zap"

// New builds a production-configured, sugared logger scoped to service.
// Construction failures (e.g. a misconfigured zap encoder) should never
// happen with the production defaults, so they panic rather than bubble an
// error through every constructor in the tree.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		panic("logger: failed to build zap logger: " + err.Error())
	}
	return base.Sugar().With("service", service)
}

// Noop returns a logger that discards everything, for tests that don't care
// about log output but still need to satisfy a Config.Logger field.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
