package logger

import (
	"io"

	"go.uber.org/zap/zapcore"
)

// Option for init logger option
type (
	Option struct {
		MultiWriter []io.Writer
		Level       zapcore.Level
		Fields      map[string]interface{}
	}

	// OptionFunc func
	OptionFunc func(*Option)
)

// OptionAddWriter option func
func OptionAddWriter(w io.Writer) OptionFunc {
	return func(o *Option) {
		o.MultiWriter = append(o.MultiWriter, w)
	}
}

// OptionSetWriter option func, overide all log writer
func OptionSetWriter(w ...io.Writer) OptionFunc {
	return func(o *Option) {
		o.MultiWriter = w
	}
}

// OptionSetLevel option func, level name is one of debug, info, warn, error
func OptionSetLevel(level string) OptionFunc {
	return func(o *Option) {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			o.Level = lvl
		}
	}
}

// OptionAddField option func, add static field to every entry
func OptionAddField(key string, value interface{}) OptionFunc {
	return func(o *Option) {
		if o.Fields == nil {
			o.Fields = make(map[string]interface{})
		}
		o.Fields[key] = value
	}
}
