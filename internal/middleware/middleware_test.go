package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSeafileTokenMissingHeader(t *testing.T) {
	handler := SeafileToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeafileTokenInjectsOpaqueValue(t *testing.T) {
	var got string
	handler := SeafileToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Token(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload/x", nil)
	req.Header.Set(TokenHeader, "opaque-value==/+")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "opaque-value==/+", got)
}

func TestLoggerPassesStatusThrough(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	handler := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
}
