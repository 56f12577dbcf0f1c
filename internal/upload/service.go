// Package upload relays client file uploads into the seafile backend and
// hands back a public share URL.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/outfoxxed/seashare/internal/seafile"
)

// chunkSize bounds a single relay chunk. With the relay channel's capacity
// of one, peak buffered data per upload is at most two chunks regardless of
// file size.
const chunkSize = 32 * 1024

// Request describes one upload to relay.
type Request struct {
	// Library is the target seafile library id.
	Library string
	// Filename is the optional filename from the query string. It takes
	// precedence over the file part's own filename.
	Filename string
	Token    string
	// Host is the inbound request's Host header, used to compose the
	// returned public URL.
	Host string
	Form *multipart.Reader
}

// Service is the upload relay engine.
type Service struct {
	client *seafile.Client
	scheme string
	log    *logrus.Logger
}

// NewService creates an upload Service. publicScheme is the scheme composed
// into returned URLs.
func NewService(client *seafile.Client, publicScheme string, log *logrus.Logger) *Service {
	return &Service{client: client, scheme: publicScheme, log: log}
}

type uploadResult struct {
	id  string
	err error
}

// Relay streams the request's file into the backend and returns the public
// URL for the stored object. The whole file is never held in memory: bytes
// flow from the client's multipart stream through a single-slot channel into
// a concurrently running backend upload request.
func (s *Service) Relay(ctx context.Context, req Request) (string, error) {
	if req.Host == "" {
		return "", ErrMissingHost
	}

	s.log.WithField("library", req.Library).Debug("client uploading")

	part, filename, err := findFilePart(req.Form, req.Filename)
	if err != nil {
		return "", err
	}

	// The stored object gets a fresh random name so client-controlled
	// filenames never become storage keys; the extension is kept so the
	// backend can infer a content type.
	objectName := uuid.NewString() + filepath.Ext(filename)

	link, err := s.client.UploadLink(ctx, req.Library, req.Token)
	if err != nil {
		return "", err
	}
	if err := checkUploadLink(link); err != nil {
		// Fail before touching the client's stream: nothing has been
		// relayed yet and no backend request is in flight.
		return "", err
	}

	chunks := make(chan seafile.Chunk, 1)
	done := make(chan uploadResult, 1)
	go func() {
		id, err := s.client.UploadFile(ctx, link, req.Token, objectName, chunks)
		done <- uploadResult{id: id, err: err}
	}()

	fileID, err := s.pump(part, chunks, done)
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"filename": filename,
		"fileId":   fileID,
	}).Trace("uploaded file")

	shareLink, err := s.client.CreateShareLink(ctx, req.Library, "/"+objectName, req.Token)
	if err != nil {
		// The stored object is orphaned at this point; there is no
		// compensating delete in the backend contract.
		s.log.WithField("object", objectName).Error("share link creation failed, object remains stored")
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"filename": filename,
		"link":     shareLink,
	}).Trace("created share link")

	shareID := path.Base(strings.TrimSuffix(shareLink, "/"))
	return fmt.Sprintf("%s://%s/raw/%s/%s", s.scheme, req.Host, shareID, filename), nil
}

// findFilePart scans the form for the first part named "file" and resolves
// the filename to use for the public URL.
func findFilePart(form *multipart.Reader, queryFilename string) (*multipart.Part, string, error) {
	for {
		part, err := form.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", ErrNoFileSubmitted
		}
		if err != nil {
			return nil, "", ErrMalformedForm
		}
		if part.FormName() != "file" {
			continue
		}

		filename := queryFilename
		if filename == "" {
			filename = part.FileName()
		}
		if filename == "" {
			return nil, "", ErrFilenameNotSpecified
		}
		return part, filename, nil
	}
}

// checkUploadLink rejects upload links the backend client could never POST
// to. The backend handed us this URL; a malformed one must fail here, before
// any client bytes are consumed.
func checkUploadLink(link string) error {
	u, err := url.ParseRequestURI(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("unable to upload file to link %q", link)
	}
	return nil
}

// pump moves the file part's bytes onto the relay channel until the stream
// ends or fails, then joins the backend upload task. Exactly one of the exit
// paths closes the channel, and the task is joined on every path.
func (s *Service) pump(part io.Reader, chunks chan<- seafile.Chunk, done <-chan uploadResult) (string, error) {
	buf := make([]byte, chunkSize)
	for {
		n, readErr := part.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case chunks <- seafile.Chunk{Data: data}:
			case res := <-done:
				// The consumer is gone, so the request already
				// terminated; a clean finish is impossible before the
				// stream ends.
				close(chunks)
				if res.err != nil {
					return "", fmt.Errorf("upload terminated early: %w", res.err)
				}
				return "", errors.New("upload reported success before the stream ended")
			}
		}

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF):
			// Closing the channel completes the backend request body.
			close(chunks)
			res := <-done
			if res.err != nil {
				return "", fmt.Errorf("complete upload: %w", res.err)
			}
			return res.id, nil
		default:
			// The abort marker terminates the backend request so the
			// upload is discarded rather than stored truncated.
			select {
			case chunks <- seafile.Chunk{Err: ErrConnectionDropped}:
				close(chunks)
				<-done
			case <-done:
				close(chunks)
			}
			return "", ErrConnectionDropped
		}
	}
}
