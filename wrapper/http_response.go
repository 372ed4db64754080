package wrapper

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/golangid/meshserve/candihelper"
)

// HTTPResponse body of non GraphQL endpoints (root, health, not found, events errors)
type HTTPResponse struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// NewHTTPResponse build response, error params fill Errors and other non nil params fill Data
func NewHTTPResponse(code int, message string, params ...interface{}) *HTTPResponse {
	resp := &HTTPResponse{
		Success: code < http.StatusBadRequest,
		Code:    code,
		Message: message,
	}
	for _, param := range params {
		if param == nil {
			continue
		}
		if err, ok := param.(error); ok {
			resp.Errors = errorDetails(err)
			continue
		}
		resp.Data = param
	}
	return resp
}

func errorDetails(err error) map[string]string {
	var mErr candihelper.MultiError
	if errors.As(err, &mErr) {
		return mErr.ToMap()
	}
	return map[string]string{"detail": err.Error()}
}

// JSON write response as application/json with response code as status
func (resp *HTTPResponse) JSON(w http.ResponseWriter) error {
	w.Header().Set(candihelper.HeaderContentType, candihelper.HeaderMIMEApplicationJSON)
	w.WriteHeader(resp.Code)
	return json.NewEncoder(w).Encode(resp)
}
