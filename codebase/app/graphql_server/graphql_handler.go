package graphqlserver

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/tracer"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

func (h *handler) serveGraphQL(w http.ResponseWriter, req *http.Request) {
	name, executor := h.subgraphFromContext(req.Context())

	params, status, err := h.parseRequest(w, req)
	if err != nil {
		writeResult(w, status, &candishared.ExecutionResult{Errors: gqlerror.List{gqlerror.Wrap(err)}})
		return
	}

	req.Header.Set(candihelper.HeaderXRealIP, extractRealIPHeader(req))
	ctx := candishared.SetToContext(req.Context(), candishared.ContextKeyHTTPHeader, req.Header)

	trace, ctx := tracer.StartTrace(ctx, "GraphQL:"+name)
	defer trace.Finish()
	if params.OperationName != "" {
		trace.SetTag("graphql.operationName", params.OperationName)
	}
	trace.Log("graphql.query", params.Query)
	if len(params.Variables) > 0 {
		trace.Log("graphql.variables", params.Variables)
	}

	result, err := executor.Execute(ctx, params)
	if err != nil {
		trace.SetError(err)
		h.opt.logger.Errorf("subgraph %s: %v", name, err)
		writeResult(w, http.StatusServiceUnavailable, &candishared.ExecutionResult{Errors: gqlerror.List{gqlerror.Wrap(err)}})
		return
	}
	if result.HasErrors() {
		trace.SetError(result.Errors)
	}
	writeResult(w, http.StatusOK, result)
}

// parseRequest read GET query params, or POST JSON body with raw query fallback
func (h *handler) parseRequest(w http.ResponseWriter, req *http.Request) (*candishared.ExecutionRequest, int, error) {
	var params candishared.ExecutionRequest

	if req.Method == http.MethodGet {
		query := req.URL.Query()
		params.Query = query.Get("query")
		params.OperationName = query.Get("operationName")
		if variables := query.Get("variables"); variables != "" {
			if err := json.Unmarshal([]byte(variables), &params.Variables); err != nil {
				return nil, http.StatusBadRequest, fmt.Errorf("variables must be a JSON object: %w", err)
			}
		}
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, h.opt.maxBodySize))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, http.StatusRequestEntityTooLarge, err
			}
			return nil, http.StatusBadRequest, err
		}
		if err := json.Unmarshal(body, &params); err != nil {
			params = candishared.ExecutionRequest{Query: string(body)}
		}
	}

	if strings.TrimSpace(params.Query) == "" {
		return nil, http.StatusBadRequest, errors.New("query is required")
	}
	return &params, http.StatusOK, nil
}

func writeResult(w http.ResponseWriter, status int, result *candishared.ExecutionResult) {
	body, err := json.Marshal(result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set(candihelper.HeaderContentType, candihelper.HeaderMIMEApplicationJSON)
	w.WriteHeader(status)
	w.Write(body)
}

func (h *handler) servePlayground(w http.ResponseWriter, req *http.Request) {
	if h.opt.disablePlayground {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	name, _ := h.subgraphFromContext(req.Context())
	w.Header().Set(candihelper.HeaderContentType, "text/html; charset=utf-8")
	w.Write([]byte(`<!DOCTYPE html>
<html lang=en>
	<head>
		<meta charset=utf-8>
		<title>` + name + ` GraphiQL</title>
		<link rel=stylesheet href=https://unpkg.com/graphiql@3.0.10/graphiql.min.css>
	</head>
	<body style="margin: 0;">
		<div id=graphiql style="height: 100vh;"></div>
		<script crossorigin src=https://unpkg.com/react@18/umd/react.production.min.js></script>
		<script crossorigin src=https://unpkg.com/react-dom@18/umd/react-dom.production.min.js></script>
		<script crossorigin src=https://unpkg.com/graphiql@3.0.10/graphiql.min.js></script>
		<script>
			const fetcher = GraphiQL.createFetcher({ url: location.protocol + '//' + location.host + '` + h.opt.rootPath + "/" + name + `' });
			ReactDOM.createRoot(document.getElementById('graphiql')).render(React.createElement(GraphiQL, { fetcher }));
		</script>
	</body>
</html>`))
}

func extractRealIPHeader(req *http.Request) string {
	for _, header := range []string{candihelper.HeaderXForwardedFor, candihelper.HeaderXRealIP} {
		if ip := req.Header.Get(header); ip != "" {
			return ip
		}
	}

	ip, _, _ := net.SplitHostPort(req.RemoteAddr)
	return ip
}
