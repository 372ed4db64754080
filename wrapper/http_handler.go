package wrapper

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/tracer"
)

// HTTPMiddlewareConfig config for http middleware
type HTTPMiddlewareConfig struct {
	MaxLogSize  int
	ExcludePath map[string]struct{}
	Logger      interfaces.Logger
}

func (c HTTPMiddlewareConfig) isExcluded(path string) bool {
	_, ok := c.ExcludePath[path]
	return ok
}

// HTTPMiddlewareTracer middleware wrapper for tracer
func HTTPMiddlewareTracer(cfg HTTPMiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.MaxLogSize <= 0 {
		cfg.MaxLogSize = tracer.MaxPacketSize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			if cfg.isExcluded(req.URL.Path) || isWebsocketUpgrade(req) {
				next.ServeHTTP(rw, req)
				return
			}

			header := map[string]string{}
			for key := range req.Header {
				header[key] = req.Header.Get(key)
			}

			trace, ctx := tracer.StartTraceFromHeader(req.Context(), fmt.Sprintf("%s %s", req.Method, req.URL.Path), header)
			defer trace.Finish()

			httpDump, _ := httputil.DumpRequest(req, false)
			trace.SetTag("http.url_path", req.URL.Path)
			trace.SetTag("http.method", req.Method)
			trace.Log("http.request", httpDump)

			body, _ := io.ReadAll(req.Body)
			if len(body) < cfg.MaxLogSize {
				trace.Log("request.body", body)
			} else {
				trace.Log("request.body.size", len(body))
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body)) // reuse body

			resBody := &bytes.Buffer{}
			respWriter := NewWrapHTTPResponseWriter(resBody, rw)

			next.ServeHTTP(respWriter, req.WithContext(ctx))

			trace.SetTag("http.status_code", respWriter.statusCode)
			if respWriter.statusCode >= http.StatusBadRequest {
				trace.SetError(fmt.Errorf("resp.code:%d", respWriter.statusCode))
			}
			if resBody.Len() < cfg.MaxLogSize {
				trace.Log("response.body", resBody.String())
			} else {
				trace.Log("response.body.size", resBody.Len())
			}
		})
	}
}

// HTTPMiddlewareLog log every request with status and latency
func HTTPMiddlewareLog(cfg HTTPMiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			if cfg.Logger == nil || cfg.isExcluded(req.URL.Path) {
				next.ServeHTTP(rw, req)
				return
			}

			start := time.Now()
			respWriter := NewWrapHTTPResponseWriter(io.Discard, rw)
			next.ServeHTTP(respWriter, req)
			cfg.Logger.Infof("%s %s %d %s", req.Method, req.URL.RequestURI(), respWriter.StatusCode(), time.Since(start))
		})
	}
}

// CORSConfig cross origin rules for GraphQL endpoints, empty origins allow any origin
type CORSConfig struct {
	AllowOrigins     []string
	ExposeHeaders    []string
	AllowCredentials bool
}

func (c CORSConfig) allowedOrigin(origin string) string {
	if len(c.AllowOrigins) == 0 {
		if c.AllowCredentials {
			return origin
		}
		return "*"
	}
	for _, o := range c.AllowOrigins {
		if o == origin {
			return o
		}
	}
	return ""
}

// HTTPMiddlewareCORS answer preflight requests and set allow origin header on GraphQL responses
func HTTPMiddlewareCORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowMethods := strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ",")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ",")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			header := w.Header()
			header.Add("Vary", "Origin")
			header.Set("Access-Control-Allow-Origin", cfg.allowedOrigin(req.Header.Get("Origin")))
			if cfg.AllowCredentials {
				header.Set("Access-Control-Allow-Credentials", "true")
			}

			if req.Method != http.MethodOptions || req.Header.Get("Access-Control-Request-Method") == "" {
				if exposeHeaders != "" {
					header.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
				next.ServeHTTP(w, req)
				return
			}

			header.Set("Access-Control-Allow-Methods", allowMethods)
			if h := req.Header.Get("Access-Control-Request-Headers"); h != "" {
				header.Set("Access-Control-Allow-Headers", h)
			} else {
				header.Set("Access-Control-Allow-Headers", candihelper.HeaderContentType)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// HTTPHandlerDefaultRoot root banner handler
func HTTPHandlerDefaultRoot(serviceName, buildNumber string, startAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		payload := struct {
			BuildNumber string `json:"build_number,omitempty"`
			Message     string `json:"message,omitempty"`
			Hostname    string `json:"hostname,omitempty"`
			Timestamp   string `json:"timestamp,omitempty"`
			StartAt     string `json:"start_at,omitempty"`
			Uptime      string `json:"uptime,omitempty"`
		}{
			BuildNumber: buildNumber,
			Message:     fmt.Sprintf("Service %s up and running", serviceName),
			Timestamp:   now.Format(time.RFC3339Nano),
		}
		if !startAt.IsZero() {
			payload.StartAt = startAt.Format(time.RFC3339)
			payload.Uptime = now.Sub(startAt).Round(time.Second).String()
		}
		if hostname, err := os.Hostname(); err == nil {
			payload.Hostname = hostname
		}
		w.Header().Set(candihelper.HeaderContentType, candihelper.HeaderMIMEApplicationJSON)
		json.NewEncoder(w).Encode(payload)
	}
}

func isWebsocketUpgrade(req *http.Request) bool {
	return strings.EqualFold(req.Header.Get("Upgrade"), "websocket")
}
