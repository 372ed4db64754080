package logger

import (
	"os"

	"github.com/golangid/meshserve/codebase/interfaces"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger zap implementation of interfaces.Logger
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger construct JSON logger, default writer is stdout with debug level
func NewZapLogger(opts ...OptionFunc) *ZapLogger {
	return &ZapLogger{sugar: newZap(opts...)}
}

// NewNop logger discarding every entry
func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func newZap(opts ...OptionFunc) *zap.SugaredLogger {
	opt := Option{Level: zapcore.DebugLevel}
	for _, o := range opts {
		o(&opt)
	}
	if len(opt.MultiWriter) == 0 {
		opt.MultiWriter = append(opt.MultiWriter, os.Stdout)
	}

	encCfg := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		MessageKey: "message",

		LevelKey:    "level",
		EncodeLevel: zapcore.CapitalLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.ISO8601TimeEncoder,

		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,
	})

	var coreOpt []zapcore.Core
	for _, w := range opt.MultiWriter {
		coreOpt = append(coreOpt, zapcore.NewCore(encCfg, zapcore.AddSync(w), opt.Level))
	}
	core := zapcore.NewTee(coreOpt...)

	sugar := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	for k, v := range opt.Fields {
		sugar = sugar.With(k, v)
	}
	return sugar
}

// Debug log
func (l *ZapLogger) Debug(message string) {
	l.sugar.Debug(message)
}

// Info log
func (l *ZapLogger) Info(message string) {
	l.sugar.Info(message)
}

// Warn log
func (l *ZapLogger) Warn(message string) {
	l.sugar.Warn(message)
}

// Error log
func (l *ZapLogger) Error(message string) {
	l.sugar.Error(message)
}

// Infof log with format
func (l *ZapLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Errorf log with format
func (l *ZapLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Child return logger with scope field
func (l *ZapLogger) Child(scope string) interfaces.Logger {
	return &ZapLogger{sugar: l.sugar.With(zap.String("scope", scope))}
}

// Sync flush buffered entries
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
