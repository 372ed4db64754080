package wrapper

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapHTTPResponseWriter(t *testing.T) {
	t.Run("Test #1 copy body and keep status", func(t *testing.T) {
		buff := new(bytes.Buffer)
		rec := httptest.NewRecorder()
		rw := NewWrapHTTPResponseWriter(buff, rec)
		assert.Equal(t, http.StatusOK, rw.StatusCode())

		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusAccepted)
		rw.Write([]byte(`{"data":null}`))

		assert.Equal(t, http.StatusAccepted, rw.StatusCode())
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, `{"data":null}`, buff.String())
		assert.Equal(t, `{"data":null}`, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("Test #2 hijack unsupported by wrapped writer", func(t *testing.T) {
		rw := NewWrapHTTPResponseWriter(new(bytes.Buffer), httptest.NewRecorder())
		conn, _, err := rw.Hijack()
		assert.Nil(t, conn)
		assert.EqualError(t, err, "response writer does not implement http.Hijacker")
		assert.Equal(t, http.StatusOK, rw.StatusCode())
	})
}
