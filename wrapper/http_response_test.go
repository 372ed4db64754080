package wrapper

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golangid/meshserve/candihelper"
	"github.com/stretchr/testify/assert"
)

func TestNewHTTPResponse(t *testing.T) {
	multiError := candihelper.NewMultiError()
	multiError.Append("users", fmt.Errorf("connection refused"))

	type args struct {
		code    int
		message string
		params  []interface{}
	}
	tests := map[string]struct {
		args args
		want *HTTPResponse
	}{
		"Testcase #1: Response data": {
			args: args{code: http.StatusOK, message: "ok", params: []interface{}{map[string]string{"status": "up"}}},
			want: &HTTPResponse{Success: true, Code: 200, Message: "ok", Data: map[string]string{"status": "up"}},
		},
		"Testcase #2: Response only message": {
			args: args{code: http.StatusOK, message: "empty"},
			want: &HTTPResponse{Success: true, Code: 200, Message: "empty"},
		},
		"Testcase #3: Response failed with multi error": {
			args: args{code: http.StatusServiceUnavailable, message: "unhealthy", params: []interface{}{multiError}},
			want: &HTTPResponse{Code: 503, Message: "unhealthy", Errors: map[string]string{"users": "connection refused"}},
		},
		"Testcase #4: Response failed with error detail": {
			args: args{code: http.StatusBadRequest, message: "bad", params: []interface{}{errors.New("error")}},
			want: &HTTPResponse{Code: 400, Message: "bad", Errors: map[string]string{"detail": "error"}},
		},
		"Testcase #5: Response failed with wrapped multi error": {
			args: args{code: http.StatusServiceUnavailable, message: "unhealthy", params: []interface{}{fmt.Errorf("health: %w", multiError)}},
			want: &HTTPResponse{Code: 503, Message: "unhealthy", Errors: map[string]string{"users": "connection refused"}},
		},
		"Testcase #6: Nil param is skipped": {
			args: args{code: http.StatusOK, message: "ok", params: []interface{}{nil}},
			want: &HTTPResponse{Success: true, Code: 200, Message: "ok"},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewHTTPResponse(tt.args.code, tt.args.message, tt.args.params...))
		})
	}
}

func TestHTTPResponse_JSON(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := NewHTTPResponse(http.StatusNotFound, "not found")
	assert.NoError(t, resp.JSON(rec))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, candihelper.HeaderMIMEApplicationJSON, rec.Header().Get(candihelper.HeaderContentType))
	assert.JSONEq(t, `{"success":false,"code":404,"message":"not found"}`, rec.Body.String())
}
