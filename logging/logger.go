// Package logging builds the namespaced structured logger every
// framework component depends on (spec SPEC_FULL.md §4.9, C9): JSON
// encoding in production, a human-readable console encoder in
// development, selected by the resolved "env" scalar.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvDevelopment and EnvProduction are the two recognized environments;
// anything else falls back to production-style encoding.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Logger is the minimal structured-logging surface the rest of the
// framework depends on. It is deliberately the same two-method shape as
// runtime.Logger, httpx.Logger, and module.Logger: Go treats independently
// declared interface types with identical method sets as the same type,
// so a value returned as Logger here satisfies those consumer interfaces
// directly, with no import in either direction.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
}

// RootLogger is what New builds: a Logger that can also flush on shutdown
// and derive module- and context-scoped children (spec.md §4.6/§6.3,
// SPEC_FULL.md §4.9's "namespace = module.<Name>" / "context.<id>").
type RootLogger interface {
	Logger
	Sync() error
	ForModule(name string) Logger
	ForContext(contextID string) Logger
}

type zapLogger struct {
	*zap.SugaredLogger
}

// New builds the root logger for env, named namespace.
func New(env, namespace string) (RootLogger, error) {
	cfg := zap.NewProductionConfig()
	if env == EnvDevelopment {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{logger.Sugar().Named(namespace)}, nil
}

// ForModule returns a child logger namespaced "module.<name>".
func (l *zapLogger) ForModule(name string) Logger {
	return &zapLogger{l.Named("module." + name)}
}

// ForContext returns a child logger namespaced "context", carrying the
// context id as the structured field "context_id" on every subsequent line.
func (l *zapLogger) ForContext(contextID string) Logger {
	return &zapLogger{l.Named("context").With("context_id", contextID)}
}

// ForModule is sugar over base.ForModule, kept so existing call sites that
// pass a RootLogger around don't need to change shape.
func ForModule(base RootLogger, name string) Logger {
	return base.ForModule(name)
}

// ForContext is sugar over base.ForContext.
func ForContext(base RootLogger, contextID string) Logger {
	return base.ForContext(contextID)
}
