// Package obalog is the directory's structured logger, a thin
// go.uber.org/zap wrapper behind a small Logger interface
// (Debug/Info/Warn/Error, With) so packages do not depend on zap
// directly.
package obalog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface handed to the directory service and
// the authenticator. Scoped fields are attached via With at the call
// site rather than baked into the interface; no call site in this module
// attaches per-operation fields such as op, dn, result_code or bind_dn.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is a typed key-value pair, an alias of zap.Field; the String,
// Int, Err and Bool constructors below let callers outside this package
// build fields without importing zap directly.
type Field = zap.Field

func String(key, val string) Field   { return zap.String(key, val) }
func Int(key string, val int) Field  { return zap.Int(key, val) }
func Err(err error) Field            { return zap.Error(err) }
func Bool(key string, val bool) Field { return zap.Bool(key, val) }

type zapLogger struct {
	z *zap.Logger
}

// New builds a Logger from a level ("debug"|"info"|"warn"|"error") and a
// format ("json"|"console"), so config.LogConfig maps onto it directly.
func New(level, format, output string) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	switch format {
	case "console":
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	sink := zapcore.AddSync(os.Stdout)
	if output != "" && output != "stdout" {
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("obalog: open %s: %w", output, err)
		}
		sink = zapcore.AddSync(f)
	}

	core := zapcore.NewCore(enc, sink, lvl)
	return &zapLogger{z: zap.New(core)}, nil
}

// Nop returns a Logger that discards everything, for tests that don't
// care about log output.
func Nop() Logger { return &zapLogger{z: zap.NewNop()} }

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

func (l *zapLogger) Sync() error { return l.z.Sync() }
