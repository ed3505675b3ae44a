// Package remote is the portal's client for the renewal service API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"passport-portal/internal/core/domain"
)

const apiPrefix = "/api/v1"

// Error is a failed call to the renewal service. It unwraps to one of the
// domain sentinels (ErrUnauthorized, ErrNotFound, ErrConflict, ...).
type Error struct {
	StatusCode int
	Message    string
	Kind       error
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("renewal service: %v: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("renewal service: status=%d: %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// CredentialSource supplies the bearer token for each request.
type CredentialSource interface {
	Bearer() string
}

// Client talks JSON to the renewal service. Every unauthorized answer runs
// the unauthorized hook before the error is returned.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	creds          CredentialSource
	onUnauthorized func(bearer string)
	logger         *slog.Logger
	timeout        time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout bounds every request. It applies on top of WithHTTPClient
// without modifying the caller's client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUnauthorizedHandler sets the cross-cutting 401 interceptor. fn gets the
// bearer token the rejected request carried.
func WithUnauthorizedHandler(fn func(bearer string)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		creds:      creds,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginData struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Login exchanges email and password for a credential. The interceptor does
// not run for this call; a 401 here is just a bad password.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Credential, error) {
	var out loginData
	body := loginRequest{Email: email, Password: password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return domain.Credential{}, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return domain.Credential{}, &Error{StatusCode: http.StatusOK, Message: "empty access token", Kind: domain.ErrUnauthorized}
	}
	return domain.Credential{Token: out.AccessToken, ExpiresAt: out.ExpiresAt}, nil
}

type renewalData struct {
	Renewal *domain.RenewalRequest `json:"renewal"`
}

// ListRenewals fetches one page of renewals. Filter values go out verbatim.
func (c *Client) ListRenewals(ctx context.Context, f domain.RenewalFilter) (*domain.RenewalPage, error) {
	q := url.Values{}
	for k, v := range f.Values {
		q.Set(k, v)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/renewals"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page domain.RenewalPage
	if err := c.call(ctx, http.MethodGet, path, nil, &page, true); err != nil {
		return nil, err
	}
	return &page, nil
}

// MyRenewals lists the signed-in applicant's own renewals.
func (c *Client) MyRenewals(ctx context.Context) (*domain.RenewalPage, error) {
	var page domain.RenewalPage
	if err := c.call(ctx, http.MethodGet, "/renewals/my", nil, &page, true); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetRenewal(ctx context.Context, id string) (*domain.RenewalRequest, error) {
	var out renewalData
	if err := c.call(ctx, http.MethodGet, "/renewals/"+url.PathEscape(id), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Renewal, nil
}

func (c *Client) UpdateRenewal(ctx context.Context, id string, u domain.RenewalUpdate) (*domain.RenewalRequest, error) {
	var out renewalData
	if err := c.call(ctx, http.MethodPatch, "/renewals/"+url.PathEscape(id), u, &out, true); err != nil {
		return nil, err
	}
	return out.Renewal, nil
}

func (c *Client) CreateRenewal(ctx context.Context, s domain.RenewalSubmission) (*domain.RenewalRequest, error) {
	var out renewalData
	if err := c.call(ctx, http.MethodPost, "/renewals", s, &out, true); err != nil {
		return nil, err
	}
	return out.Renewal, nil
}

type statusEmailRequest struct {
	Renewal        *domain.RenewalRequest `json:"renewal"`
	RecipientEmail string                 `json:"recipient_email"`
}

// SendStatusEmail asks the service to email the applicant about a status change.
func (c *Client) SendStatusEmail(ctx context.Context, r *domain.RenewalRequest, recipientEmail string) error {
	body := statusEmailRequest{Renewal: r, RecipientEmail: recipientEmail}
	return c.call(ctx, http.MethodPost, "/notifications/renewal-status", body, nil, true)
}

// PostMultipart sends a pre-encoded multipart body and decodes the data field into out.
func (c *Client) PostMultipart(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(req, out, true)
}

func (c *Client) call(ctx context.Context, method, path string, body any, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out, authenticated)
}

func (c *Client) send(req *http.Request, out any, authenticated bool) error {
	req.Header.Set("Accept", "application/json")
	var bearer string
	if authenticated && c.creds != nil {
		if bearer = c.creds.Bearer(); bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: domain.ErrRemoteUnavailable, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "read response body", Kind: domain.ErrRemoteUnavailable, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := parseError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && authenticated {
			c.logger.Warn("unauthorized response, ending session", "method", req.Method, "path", req.URL.Path)
			if c.onUnauthorized != nil {
				c.onUnauthorized(bearer)
			}
		}
		return rerr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "decode response", Kind: domain.ErrRemoteUnavailable, Cause: err}
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "decode response data", Kind: domain.ErrRemoteUnavailable, Cause: err}
	}
	return nil
}

func parseError(status int, body []byte) *Error {
	out := &Error{StatusCode: status, Kind: kindFor(status)}
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		out.Message = env.Error
		if out.Message == "" {
			out.Message = env.Message
		}
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(string(body))
	}
	if out.Message == "" {
		out.Message = http.StatusText(status)
	}
	return out
}

func kindFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case status == http.StatusForbidden:
		return domain.ErrForbidden
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusConflict:
		return domain.ErrConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	case status >= 500 || status == http.StatusTooManyRequests:
		return domain.ErrRemoteUnavailable
	default:
		return errors.New(http.StatusText(status))
	}
}
