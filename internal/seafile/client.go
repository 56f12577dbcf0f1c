// Package seafile is the HTTP client for the backing seafile server. It is
// constructed once at startup and shared by every request; redirect following
// is disabled so callers can interpret 3xx responses themselves.
package seafile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrUnauthorized is returned when the backend rejects the supplied token.
var ErrUnauthorized = errors.New("invalid seafile token")

// ErrForbidden is returned when the backend forbids the operation.
// Note: the seafile docs don't actually say why this would happen instead of
// a plain 401.
var ErrForbidden = errors.New("permission denied")

// ErrQuotaExceeded is returned when the backend reports a server error while
// issuing an upload link. Seafile signals a full library this way; it has no
// documented status distinguishing "full" from other server failures.
var ErrQuotaExceeded = errors.New("no storage remaining")

// ErrShareNotFound is returned when a share link does not resolve.
var ErrShareNotFound = errors.New("share link not found")

// Chunk carries one piece of an upload stream through the relay channel.
// A non-nil Err is an abort marker: the upload request is terminated with
// that error instead of being truncated mid-body.
type Chunk struct {
	Data []byte
	Err  error
}

// Client performs all outbound calls to one seafile server.
type Client struct {
	http    *http.Client
	baseURL string
	log     *logrus.Logger
}

// New creates a Client bound to the given base URL. The underlying transport
// reuses connections across requests and never follows redirects.
func New(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		http: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func authorization(token string) string {
	return "Token " + token
}

// UploadLink requests a one-time upload URL for the given library. The link
// is valid for a single upload and must not be cached or reused.
func (c *Client) UploadLink(ctx context.Context, library, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api2/repos/%s/upload-link/", c.baseURL, library), nil)
	if err != nil {
		return "", fmt.Errorf("build upload-link request: %w", err)
	}
	req.Header.Set("Authorization", authorization(token))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("query upload link for library %s: %w", library, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", ErrUnauthorized
	case http.StatusForbidden:
		return "", ErrForbidden
	case http.StatusInternalServerError:
		return "", ErrQuotaExceeded
	default:
		return "", fmt.Errorf("upload-link request for library %s: %s", library, excerpt(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload-link response: %w", err)
	}

	// The backend wraps the link in quotes; strip exactly one from each end.
	link := strings.TrimSuffix(strings.TrimPrefix(string(body), `"`), `"`)
	c.log.WithField("library", library).Tracef("upload link is '%s'", link)
	return link, nil
}

// UploadFile streams chunks into a multipart POST against the one-time upload
// link, naming the stored object objectName under the library root. It blocks
// until the backend responds and returns the backend's object id. The chunk
// channel is always fully drained before UploadFile's internal writer exits,
// so a producer blocked on send is released even when the request fails.
func (c *Client) UploadFile(ctx context.Context, link, token, objectName string, chunks <-chan Chunk) (string, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, link, pr)
	if err != nil {
		return "", fmt.Errorf("build upload request for link %q: %w", link, err)
	}
	req.Header.Set("Authorization", authorization(token))
	req.Header.Set("Content-Type", form.FormDataContentType())

	go func() {
		if err := writeUploadForm(form, objectName, chunks); err != nil {
			pw.CloseWithError(err)
			// Release the producer: it may still be blocked on a send.
			for range chunks {
			}
			return
		}
		pw.CloseWithError(form.Close())
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload to link %q: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload to link %q: %s", link, excerpt(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// writeUploadForm writes the upload form fields, copying file content from
// the chunk channel until it closes or delivers an abort marker.
func writeUploadForm(form *multipart.Writer, objectName string, chunks <-chan Chunk) error {
	if err := form.WriteField("parent_dir", "/"); err != nil {
		return err
	}
	file, err := form.CreateFormFile("file", objectName)
	if err != nil {
		return err
	}
	for chunk := range chunks {
		if chunk.Err != nil {
			return chunk.Err
		}
		if _, err := file.Write(chunk.Data); err != nil {
			return err
		}
	}
	return nil
}

// CreateShareLink creates a public share link for path within the library
// and returns it.
func (c *Client) CreateShareLink(ctx context.Context, library, path, token string) (string, error) {
	body := url.Values{
		"repo_id": {library},
		"path":    {path},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2.1/share-links/", strings.NewReader(body.Encode()))
	if err != nil {
		return "", fmt.Errorf("build share-link request: %w", err)
	}
	req.Header.Set("Authorization", authorization(token))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create share link for %s%s: %w", library, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read share-link response: %w", err)
	}

	var parsed struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Link == "" {
		return "", fmt.Errorf("malformed share link response: %q", string(raw))
	}
	return parsed.Link, nil
}

// ResolveShareLink resolves a public share id to the concrete content URL by
// observing the backend's redirect. The mapping is not stable between calls
// and must never be cached.
func (c *Client) ResolveShareLink(ctx context.Context, shareID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/f/%s/?dl=1", c.baseURL, shareID), nil)
	if err != nil {
		return "", fmt.Errorf("build share resolution request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve share link %s: %w", shareID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusFound:
		location := resp.Header.Get("Location")
		if location == "" {
			return "", fmt.Errorf("share resolution for %s returned 302 without a Location header", shareID)
		}
		c.log.WithField("share", shareID).Tracef("backing address is '%s'", location)
		return location, nil
	case http.StatusNotFound:
		return "", ErrShareNotFound
	default:
		return "", fmt.Errorf("share resolution for %s: %s", shareID, excerpt(resp))
	}
}

// FetchContent issues a plain GET against a previously resolved content URL
// and hands the raw response to the caller, who owns closing the body.
func (c *Client) FetchContent(ctx context.Context, contentURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build content request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch content from %q: %w", contentURL, err)
	}
	return resp, nil
}

// excerpt renders an unexpected response's status and a bounded slice of its
// body for diagnostics.
func excerpt(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Sprintf("unexpected status %s, body %q", resp.Status, string(body))
}
