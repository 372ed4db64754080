package graphqlserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
)

type (
	option struct {
		rootPath          string
		serviceName       string
		buildNumber       string
		startAt           time.Time
		disablePlayground bool
		maxLogSize        int
		maxBodySize       int64
		logger            interfaces.Logger
		pubsub            interfaces.PubSub
		healthChecks      map[string]func() map[string]error
		rootHandler       http.Handler
		middlewares       []func(http.Handler) http.Handler
	}

	// OptionFunc type
	OptionFunc func(*option)
)

func getDefaultOption() option {
	return option{
		rootPath:     "/graphql",
		serviceName:  "meshserve",
		startAt:      time.Now(),
		maxBodySize:  10 << 20,
		logger:       logger.NewNop(),
		healthChecks: make(map[string]func() map[string]error),
	}
}

// SetRootPath option func, path prefix of every subgraph endpoint
func SetRootPath(rootPath string) OptionFunc {
	return func(o *option) {
		if rootPath = strings.Trim(rootPath, "/"); rootPath != "" {
			o.rootPath = "/" + rootPath
		}
	}
}

// SetServiceInfo option func, shown in root handler
func SetServiceInfo(serviceName, buildNumber string) OptionFunc {
	return func(o *option) {
		o.serviceName = serviceName
		o.buildNumber = buildNumber
	}
}

// SetRootHTTPHandler option func
func SetRootHTTPHandler(rootHandler http.Handler) OptionFunc {
	return func(o *option) {
		o.rootHandler = rootHandler
	}
}

// SetDisablePlayground option func
func SetDisablePlayground(disable bool) OptionFunc {
	return func(o *option) {
		o.disablePlayground = disable
	}
}

// SetJaegerMaxPacketSize option func
func SetJaegerMaxPacketSize(max int) OptionFunc {
	return func(o *option) {
		o.maxLogSize = max
	}
}

// SetMaxBodySize option func
func SetMaxBodySize(max int64) OptionFunc {
	return func(o *option) {
		o.maxBodySize = max
	}
}

// SetLogger option func
func SetLogger(log interfaces.Logger) OptionFunc {
	return func(o *option) {
		o.logger = log
	}
}

// SetPubSub option func, enable events websocket endpoint
func SetPubSub(ps interfaces.PubSub) OptionFunc {
	return func(o *option) {
		o.pubsub = ps
	}
}

// AddHealthCheck option func, checks are reported by /health with name prefix
func AddHealthCheck(name string, check func() map[string]error) OptionFunc {
	return func(o *option) {
		o.healthChecks[name] = check
	}
}

// AddMiddleware option func
func AddMiddleware(middlewares ...func(http.Handler) http.Handler) OptionFunc {
	return func(o *option) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}
