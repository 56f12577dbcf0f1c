// Package raw streams shared file content back out of the seafile backend.
package raw

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/outfoxxed/seashare/internal/seafile"
)

// Stream is a backend content response ready to be passed through to the
// client. The caller owns closing Body.
type Stream struct {
	Status int
	Body   io.ReadCloser
}

// Service is the download relay engine.
type Service struct {
	client *seafile.Client
	log    *logrus.Logger
}

// NewService creates a raw download Service.
func NewService(client *seafile.Client, log *logrus.Logger) *Service {
	return &Service{client: client, log: log}
}

// Fetch resolves a public share id to its backing content URL and opens a
// stream to it. The resolution is performed fresh on every call; the backend
// does not guarantee a stable mapping.
func (s *Service) Fetch(ctx context.Context, shareID string) (*Stream, error) {
	location, err := s.client.ResolveShareLink(ctx, shareID)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.FetchContent(ctx, location)
	if err != nil {
		return nil, err
	}
	return &Stream{Status: resp.StatusCode, Body: resp.Body}, nil
}
