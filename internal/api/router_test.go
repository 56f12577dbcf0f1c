package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/outfoxxed/seashare/internal/middleware"
	"github.com/outfoxxed/seashare/internal/raw"
	"github.com/outfoxxed/seashare/internal/seafile"
	"github.com/outfoxxed/seashare/internal/upload"
)

const testLibrary = "11111111-1111-4111-8111-111111111111"

// newGateway stands up the full router against a scripted seafile backend.
func newGateway(t *testing.T, backend http.HandlerFunc) http.Handler {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	client := seafile.New(srv.URL, log)
	router := NewRouter(log,
		upload.NewHandler(upload.NewService(client, "https", log), log),
		raw.NewHandler(raw.NewService(client, log), log),
	)
	return router
}

func fileForm(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, form.Close())
	return &buf, form.FormDataContentType()
}

func TestUploadEndToEnd(t *testing.T) {
	router := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/upload-link/"):
			_, _ = w.Write([]byte(`"http://` + r.Host + `/seafhttp/upload"`))
		case r.URL.Path == "/seafhttp/upload":
			_ = r.ParseMultipartForm(1 << 20)
			_, _ = w.Write([]byte("fileid123"))
		case r.URL.Path == "/api/v2.1/share-links/":
			_, _ = w.Write([]byte(`{"link":"https://backend/f/SHAREID/"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	body, contentType := fileForm(t, "ignored.bin", []byte("payload"))
	req := httptest.NewRequest(http.MethodPost, "/upload/"+testLibrary+"?filename=report.pdf", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.TokenHeader, "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://example.com/raw/SHAREID/report.pdf", rec.Body.String())
}

func TestUploadUnauthorizedEndToEnd(t *testing.T) {
	var calls atomic.Int32
	router := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	body, contentType := fileForm(t, "report.pdf", []byte("payload"))
	req := httptest.NewRequest(http.MethodPost, "/upload/"+testLibrary, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.TokenHeader, "bad")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, int32(1), calls.Load())
}

func TestUploadWithoutTokenHeader(t *testing.T) {
	router := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called without a token")
	})

	body, contentType := fileForm(t, "report.pdf", []byte("payload"))
	req := httptest.NewRequest(http.MethodPost, "/upload/"+testLibrary, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsNonUUIDLibrary(t *testing.T) {
	router := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for an invalid route")
	})

	body, contentType := fileForm(t, "report.pdf", []byte("payload"))
	req := httptest.NewRequest(http.MethodPost, "/upload/not-a-library", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.TokenHeader, "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRawEndToEnd(t *testing.T) {
	content := []byte{0x00, 0x01, 0xfe, 0xff}
	router := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/f/SHAREID/":
			w.Header().Set("Location", "http://"+r.Host+"/files/xyz")
			w.WriteHeader(http.StatusFound)
		case "/files/xyz":
			_, _ = w.Write(content)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/raw/SHAREID/report.pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, content, rec.Body.Bytes())
}

func TestRawNotFoundEndToEnd(t *testing.T) {
	router := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/raw/MISSING/file.txt", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
