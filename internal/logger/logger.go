package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field = zap.Field

// Logger is the structured logger passed to every component.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Infof(template string, args ...any)
	Sync() error
}

type zapLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// New builds the process logger named "atlas". pretty selects the colored
// console encoder; otherwise entries are JSON. An unknown level keeps the
// encoder's default (debug for pretty, info for JSON).
func New(level string, pretty bool) Logger {
	cfg := zap.NewProductionConfig()
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		panic(fmt.Sprintf("logger: %v", err))
	}
	return FromZap(base.Named("atlas"))
}

// FromZap adapts an existing zap logger, e.g. one built on an observer core.
func FromZap(base *zap.Logger) Logger {
	return &zapLogger{base: base, sugar: base.Sugar()}
}

// Nop discards everything.
func Nop() Logger {
	return FromZap(zap.NewNop())
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.base.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.base.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.base.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.base.Error(msg, fields...) }

func (l *zapLogger) Infof(template string, args ...any) { l.sugar.Infof(template, args...) }

func (l *zapLogger) Sync() error { return l.base.Sync() }

func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Stringer(key string, val fmt.Stringer) Field  { return zap.Stringer(key, val) }
func Error(err error) Field                        { return zap.Error(err) }
