package raw

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/outfoxxed/seashare/internal/response"
	"github.com/outfoxxed/seashare/internal/seafile"
)

// Handler holds the HTTP handler for the raw download endpoint.
type Handler struct {
	svc *Service
	log *logrus.Logger
}

// NewHandler creates a new raw Handler.
func NewHandler(svc *Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Get streams a shared file back to the client, preserving the backend's
// status code. The filename path segment is not interpreted; it exists so
// clients see a sensible name.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "share")
	h.log.WithField("share", shareID).Debug("raw file requested")

	stream, err := h.svc.Fetch(r.Context(), shareID)
	if err != nil {
		if errors.Is(err, seafile.ErrShareNotFound) {
			response.NotFound(w, "file not found")
			return
		}
		h.log.WithError(err).Error("internal error during raw fetch")
		response.InternalError(w)
		return
	}
	defer stream.Body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(stream.Status)
	_, _ = io.Copy(w, stream.Body)
}
