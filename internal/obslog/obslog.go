// Package obslog wraps go.uber.org/zap behind a small Sink interface
// so the core packages (capability, simulate, loopdetect, planenum,
// optimize, aggregate) never take a logging dependency themselves —
// only the driver and command entry points do.
package obslog

import "go.uber.org/zap"

// Sink is the logging surface the driver depends on.
type Sink interface {
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
	With(fields ...zap.Field) Sink
}

type zapSink struct {
	l *zap.SugaredLogger
}

// New builds a production zap logger at the given level ("debug",
// "info", "warn", "error").
func New(level string) (Sink, error) {
	cfg := zap.NewProductionConfig()
	var lvl zap.AtomicLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = lvl
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapSink{l: logger.Sugar()}, nil
}

// NewNop returns a Sink that discards everything, for tests.
func NewNop() Sink {
	return &zapSink{l: zap.NewNop().Sugar()}
}

func (s *zapSink) Infof(template string, args ...any)  { s.l.Infof(template, args...) }
func (s *zapSink) Warnf(template string, args ...any)  { s.l.Warnf(template, args...) }
func (s *zapSink) Errorf(template string, args ...any) { s.l.Errorf(template, args...) }

func (s *zapSink) With(fields ...zap.Field) Sink {
	return &zapSink{l: s.l.Desugar().With(fields...).Sugar()}
}
