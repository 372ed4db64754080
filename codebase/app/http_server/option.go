package httpserver

import (
	"net/http"
	"time"

	"github.com/golangid/meshserve/codebase/interfaces"
)

type (
	option struct {
		readHeaderTimeout time.Duration
		closeTimeout      time.Duration
		middlewares       []func(http.Handler) http.Handler
		logger            interfaces.Logger
	}

	// OptionFunc type
	OptionFunc func(*option)
)

func getDefaultOption() option {
	return option{
		readHeaderTimeout: 30 * time.Second,
		closeTimeout:      10 * time.Second,
	}
}

// SetReadHeaderTimeout option func
func SetReadHeaderTimeout(timeout time.Duration) OptionFunc {
	return func(o *option) {
		o.readHeaderTimeout = timeout
	}
}

// SetCloseTimeout option func, max duration of graceful close
func SetCloseTimeout(timeout time.Duration) OptionFunc {
	return func(o *option) {
		o.closeTimeout = timeout
	}
}

// SetMiddlewares option func, applied before mounted handler
func SetMiddlewares(middlewares ...func(http.Handler) http.Handler) OptionFunc {
	return func(o *option) {
		o.middlewares = middlewares
	}
}

// SetLogger option func, log serve and close failures
func SetLogger(logger interfaces.Logger) OptionFunc {
	return func(o *option) {
		o.logger = logger
	}
}
