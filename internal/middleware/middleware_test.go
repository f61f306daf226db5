package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/coveytown-go/internal/testutil"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.3"}, remote: "1.1.1.1:80", want: "10.0.0.3"},
		{name: "remote addr", remote: "192.168.1.5:4321", want: "192.168.1.5"},
		{name: "remote without port", remote: "192.168.1.5", want: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["size"])
	assert.Equal(t, "/api/v1/health", entry["path"])
}

func TestHijackRequiresHijacker(t *testing.T) {
	rw := &ResponseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	assert.Error(t, err)
}

func TestRecoveryUsesPanicHandler(t *testing.T) {
	called := false
	handler := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
		assert.Equal(t, "boom", err)
		w.WriteHeader(http.StatusServiceUnavailable)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRecoveryDefaultsToPlainError(t *testing.T) {
	handler := Recovery(testutil.NopLogger(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRecoveryLeavesStartedResponseAlone(t *testing.T) {
	called := false
	handler := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}
