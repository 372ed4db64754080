package graphqlserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/wrapper"
)

type handler struct {
	executors map[string]interfaces.Executor
	opt       option
}

// NewHandler http handler serving GraphQL for every subgraph executor, keyed by subgraph name
func NewHandler(executors map[string]interfaces.Executor, opts ...OptionFunc) http.Handler {
	opt := getDefaultOption()
	for _, o := range opts {
		o(&opt)
	}
	h := &handler{executors: executors, opt: opt}

	mwCfg := wrapper.HTTPMiddlewareConfig{
		MaxLogSize:  opt.maxLogSize,
		Logger:      opt.logger,
		ExcludePath: map[string]struct{}{"/": {}, "/health": {}},
	}

	router := chi.NewRouter()
	router.Use(
		h.recoverMiddleware,
		wrapper.HTTPMiddlewareCORS(wrapper.CORSConfig{ExposeHeaders: []string{candihelper.HeaderXRealIP}}),
		wrapper.HTTPMiddlewareLog(mwCfg),
		wrapper.HTTPMiddlewareTracer(mwCfg),
	)
	router.Use(opt.middlewares...)

	rootHandler := opt.rootHandler
	if rootHandler == nil {
		rootHandler = wrapper.HTTPHandlerDefaultRoot(opt.serviceName, opt.buildNumber, opt.startAt)
	}
	router.Get("/", rootHandler.ServeHTTP)
	router.Get("/health", h.serveHealth)

	router.Route(opt.rootPath, func(r chi.Router) {
		if len(executors) == 1 {
			for name := range executors {
				r.Get("/", h.withSubgraph(name, h.serveGraphQL))
				r.Post("/", h.withSubgraph(name, h.serveGraphQL))
				r.Get("/playground", h.withSubgraph(name, h.servePlayground))
				r.Get("/events", h.withSubgraph(name, h.serveEvents))
			}
		}
		r.Route("/{subgraph}", func(r chi.Router) {
			r.Use(h.subgraphContext)
			r.Get("/", h.serveGraphQL)
			r.Post("/", h.serveGraphQL)
			r.Get("/playground", h.servePlayground)
			r.Get("/events", h.serveEvents)
		})
	})

	router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		wrapper.NewHTTPResponse(http.StatusNotFound, fmt.Sprintf("Resource %s not found", req.URL.Path)).JSON(w)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		wrapper.NewHTTPResponse(http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed", req.Method)).JSON(w)
	})

	for _, name := range candihelper.SortedKeys(executors) {
		logger.LogYellow(fmt.Sprintf("[GraphQL] subgraph %s\t: %s/%s", name, opt.rootPath, name))
	}
	return router
}

func (h *handler) serveHealth(w http.ResponseWriter, req *http.Request) {
	mErr := candihelper.NewMultiError()
	for _, name := range candihelper.SortedKeys(h.executors) {
		if err := h.executors[name].Health(); err != nil {
			mErr.Append("subgraph_"+name, err)
		}
	}
	for _, name := range candihelper.SortedKeys(h.opt.healthChecks) {
		for key, err := range h.opt.healthChecks[name]() {
			if err != nil {
				mErr.Append(name+"_"+key, err)
			}
		}
	}

	if mErr.HasError() {
		wrapper.NewHTTPResponse(http.StatusServiceUnavailable, "Service unhealthy", mErr).JSON(w)
		return
	}
	wrapper.NewHTTPResponse(http.StatusOK, "Service healthy").JSON(w)
}

func (h *handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		candihelper.TryCatch{
			Try: func() {
				next.ServeHTTP(w, req)
			},
			Catch: func(err error) {
				h.opt.logger.Errorf("panic %s %s: %v", req.Method, req.URL.Path, err)
				wrapper.NewHTTPResponse(http.StatusInternalServerError, "Internal server error", err).JSON(w)
			},
		}.Do()
	})
}

func (h *handler) subgraphContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "subgraph")
		if _, ok := h.executors[name]; !ok {
			wrapper.NewHTTPResponse(http.StatusNotFound, fmt.Sprintf("Subgraph %s not found", name)).JSON(w)
			return
		}
		next.ServeHTTP(w, req.WithContext(candishared.SetToContext(req.Context(), candishared.ContextKeySubgraph, name)))
	})
}

func (h *handler) withSubgraph(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		next(w, req.WithContext(candishared.SetToContext(req.Context(), candishared.ContextKeySubgraph, name)))
	}
}

func (h *handler) subgraphFromContext(ctx context.Context) (string, interfaces.Executor) {
	name, _ := candishared.GetValueFromContext(ctx, candishared.ContextKeySubgraph).(string)
	return name, h.executors[name]
}
