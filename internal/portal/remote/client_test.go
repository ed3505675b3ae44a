package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"passport-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBearer string

func (s staticBearer) Bearer() string { return string(s) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetRenewalSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/renewals/r-42", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{"renewal": map[string]any{
				"id":     "r-42",
				"status": "PENDING",
			}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticBearer("tok-1"))
	r, err := c.GetRenewal(context.Background(), "r-42")
	require.NoError(t, err)
	assert.Equal(t, "r-42", r.ID)
	assert.Equal(t, domain.StatusPending, r.Status)
}

func TestClient_ListRenewalsEncodesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "REJECTED", q.Get("status"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "5", q.Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"items": []map[string]any{{"id": "a"}, {"id": "b"}},
				"total": 7,
				"page":  2,
				"limit": 5,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticBearer("tok"))
	page, err := c.ListRenewals(context.Background(), domain.RenewalFilter{
		Values: map[string]string{"status": "REJECTED"},
		Page:   2,
		Limit:  5,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 7, page.Total)
}

func TestClient_UnauthorizedRunsInterceptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "token expired"})
	}))
	defer srv.Close()

	var hits int32
	c := NewClient(srv.URL, staticBearer("stale"), WithUnauthorizedHandler(func(bearer string) {
		assert.Equal(t, "stale", bearer, "the hook sees the token that was rejected")
		atomic.AddInt32(&hits, 1)
	}))

	_, err := c.GetRenewal(context.Background(), "r1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnauthorized, rerr.StatusCode)
	assert.Equal(t, "token expired", rerr.Message)

	_, err = c.ListRenewals(context.Background(), domain.RenewalFilter{})
	require.Error(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits), "every 401 from any endpoint runs the hook")
}

func TestClient_LoginFailureSkipsInterceptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid email or password"})
	}))
	defer srv.Close()

	called := false
	c := NewClient(srv.URL, staticBearer("old"), WithUnauthorizedHandler(func(string) { called = true }))

	_, err := c.Login(context.Background(), "admin@example.lk", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, called)
}

func TestClient_LoginReturnsCredential(t *testing.T) {
	exp := time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@example.lk", body.Email)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"access_token": "jwt-token", "expires_at": exp},
		})
	}))
	defer srv.Close()

	cred, err := NewClient(srv.URL, nil).Login(context.Background(), "admin@example.lk", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", cred.Token)
	require.NotNil(t, cred.ExpiresAt)
	assert.True(t, exp.Equal(*cred.ExpiresAt))
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusConflict, domain.ErrConflict},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusBadRequest, domain.ErrInvalidInput},
		{http.StatusBadGateway, domain.ErrRemoteUnavailable},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, "nope")
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil).UpdateRenewal(context.Background(), "r1", domain.RenewalUpdate{Status: domain.StatusVerified})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClient_TransportFailureIsRemoteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, nil, WithTimeout(time.Second)).SendStatusEmail(context.Background(), &domain.RenewalRequest{ID: "r1"}, "a@b.lk")
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}
