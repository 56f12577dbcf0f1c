package upload

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/outfoxxed/seashare/internal/middleware"
	"github.com/outfoxxed/seashare/internal/response"
	"github.com/outfoxxed/seashare/internal/seafile"
)

// Handler holds the HTTP handler for the upload endpoint.
type Handler struct {
	svc *Service
	log *logrus.Logger
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Upload relays a multipart file upload into the backend and responds with
// the public URL as plain text.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	form, err := r.MultipartReader()
	if err != nil {
		response.BadRequest(w, "error reading multipart form")
		return
	}

	publicURL, err := h.svc.Relay(r.Context(), Request{
		Library:  chi.URLParam(r, "library"),
		Filename: r.URL.Query().Get("filename"),
		Token:    middleware.Token(r.Context()),
		Host:     r.Host,
		Form:     form,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Text(w, http.StatusOK, publicURL)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoFileSubmitted):
		response.BadRequest(w, "no file submitted")
	case errors.Is(err, ErrFilenameNotSpecified):
		response.BadRequest(w, "filename not specified")
	case errors.Is(err, ErrMalformedForm):
		response.BadRequest(w, "error reading multipart form")
	case errors.Is(err, ErrConnectionDropped):
		response.BadRequest(w, "connection dropped")
	case errors.Is(err, ErrMissingHost):
		response.BadRequest(w, "missing Host header")
	case errors.Is(err, seafile.ErrUnauthorized):
		response.Unauthorized(w, "invalid seafile-token header")
	case errors.Is(err, seafile.ErrForbidden):
		response.Unauthorized(w, "permission denied")
	case errors.Is(err, seafile.ErrQuotaExceeded):
		response.InsufficientStorage(w, "no storage remaining")
	default:
		h.log.WithError(err).Error("internal error during upload")
		response.InternalError(w)
	}
}
