package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rw := httptest.NewRecorder()
	handler.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, rw.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/test", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["bytes"])
	assert.Contains(t, fields, "took")
}

func TestLoggerDefaultsToOK(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 1, logs.Len())
	assert.EqualValues(t, http.StatusOK, logs.All()[0].ContextMap()["status"])
}

func TestLoggerNilLogger(t *testing.T) {
	handler := Logger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rw := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusNoContent, rw.Code)
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := Recoverer(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rw := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rw.Code)
	assert.Contains(t, rw.Body.String(), "Internal Server Error")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "test panic", logs.All()[0].ContextMap()["panic"])
	assert.Equal(t, "/boom", logs.All()[0].ContextMap()["path"])
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
	}{
		{name: "api route", path: "/api/posts", contentType: "application/json"},
		{name: "api root", path: "/api", contentType: "application/json"},
		{name: "web route", path: "/post/1", contentType: ""},
		{name: "short path", path: "/", contentType: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			rw := httptest.NewRecorder()
			handler.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.contentType, rw.Header().Get("Content-Type"))
		})
	}
}
