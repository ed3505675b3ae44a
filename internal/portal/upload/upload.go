// Package upload sends applicant documents to the renewal service.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"passport-portal/internal/core/domain"
)

// Error is a failed upload. Message is safe to show to the applicant.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "upload: " + e.Message
	}
	return fmt.Sprintf("upload: %s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Poster is the authenticated multipart transport.
type Poster interface {
	PostMultipart(ctx context.Context, path, contentType string, body io.Reader, out any) error
}

// Result is what the service returns for a stored document.
type Result struct {
	DocumentType domain.DocumentType `json:"document_type"`
	URL          string              `json:"url"`
}

// Invalidator marks the cached detail view of a renewal stale.
type Invalidator interface {
	InvalidateDetail(id string) bool
}

type Client struct {
	poster      Poster
	invalidator Invalidator
	maxSize     int64
}

type Option func(*Client)

// WithMaxSize rejects payloads above n bytes before sending.
func WithMaxSize(n int64) Option {
	return func(c *Client) { c.maxSize = n }
}

// WithInvalidator marks the renewal's detail view stale after each stored
// document.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Client) { c.invalidator = inv }
}

func New(poster Poster, opts ...Option) *Client {
	c := &Client{poster: poster, maxSize: 10 << 20}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload stores one document against an application and returns its
// reference URL.
func (c *Client) Upload(ctx context.Context, applicationID string, docType domain.DocumentType, filename string, payload io.Reader) (string, error) {
	if strings.TrimSpace(applicationID) == "" {
		return "", &Error{Message: "application id is required", Err: domain.ErrInvalidInput}
	}
	if _, err := domain.ParseDocumentType(string(docType)); err != nil {
		return "", &Error{Message: fmt.Sprintf("unknown document type %q", docType), Err: err}
	}

	data, err := io.ReadAll(io.LimitReader(payload, c.maxSize+1))
	if err != nil {
		return "", &Error{Message: "could not read the file", Err: err}
	}
	if len(data) == 0 {
		return "", &Error{Message: "the file is empty", Err: domain.ErrInvalidInput}
	}
	if int64(len(data)) > c.maxSize {
		return "", &Error{Message: fmt.Sprintf("the file is larger than %d MB", c.maxSize>>20), Err: domain.ErrInvalidInput}
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("document_type", string(docType)); err != nil {
		return "", &Error{Message: "could not prepare the upload", Err: err}
	}
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		name = string(docType)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", &Error{Message: "could not prepare the upload", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &Error{Message: "could not prepare the upload", Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &Error{Message: "could not prepare the upload", Err: err}
	}

	var res Result
	path := "/renewals/" + url.PathEscape(applicationID) + "/documents"
	if err := c.poster.PostMultipart(ctx, path, w.FormDataContentType(), &body, &res); err != nil {
		return "", &Error{Message: messageFor(err), Err: err}
	}
	if res.URL == "" {
		return "", &Error{Message: "the service did not return a document reference"}
	}
	if c.invalidator != nil {
		c.invalidator.InvalidateDetail(applicationID)
	}
	return res.URL, nil
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "your session has ended, sign in again"
	case errors.Is(err, domain.ErrForbidden):
		return "you cannot add documents to this application"
	case errors.Is(err, domain.ErrNotFound):
		return "the application no longer exists"
	case errors.Is(err, domain.ErrInvalidInput):
		return "the service rejected the file"
	default:
		return "the document could not be uploaded, try again later"
	}
}
