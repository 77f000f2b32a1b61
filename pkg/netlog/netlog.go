// Package netlog provides the leveled logger interface threaded through the
// reactor and protocol engines, backed by go.uber.org/zap in production and
// a Nop implementation by default so the core stays silent unless a caller
// opts in.
package netlog

import "go.uber.org/zap"

// Logger is the minimal structured-logging surface netforge depends on.
// Fields are passed as alternating key/value pairs, mirroring zap's
// SugaredLogger calling convention.
type Logger interface {
	Debugw(msg string, kv...any)
	Infow(msg string, kv...any)
	Warnw(msg string, kv...any)
	Errorw(msg string, kv...any)
}

// Nop discards every log call. It is the default Logger when none is
// configured.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debugw(string,...any) {}
func (nopLogger) Infow(string,...any) {}
func (nopLogger) Warnw(string,...any) {}
func (nopLogger) Errorw(string,...any) {}

// zapLogger adapts a *zap.SugaredLogger to Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap wraps z as a Logger. Passing nil returns Nop.
func NewZap(z *zap.Logger) Logger {
	if z == nil {
		return Nop
	}
	return &zapLogger{s: z.Sugar()}
}

func (l *zapLogger) Debugw(msg string, kv...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv...any) { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv...any) { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv...any) { l.s.Errorw(msg, kv...) }
