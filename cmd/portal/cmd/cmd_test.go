package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/jwt"
	"passport-portal/internal/portal/remote"
	"passport-portal/internal/portal/upload"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewServer struct {
	t      *testing.T
	mu     sync.Mutex
	status domain.RenewalStatus
	reason string
	emails []string
}

func (s *reviewServer) write(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
}

func (s *reviewServer) renewal() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{"renewal": domain.RenewalRequest{
		ID:                    "r1",
		ApplicantEmail:        "nimal@example.com",
		FullName:              "Nimal Perera",
		NICNumber:             "199012345678",
		CurrentPassportNumber: "N1234567",
		Status:                s.status,
		RejectionReason:       s.reason,
	}}
}

func (s *reviewServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.GenerateAccessToken("admin-1", "admin@passport.test", "admin", "server-secret", 15)
		require.NoError(s.t, err)
		s.write(w, http.StatusOK, map[string]any{"access_token": token})
	})
	mux.HandleFunc("GET /api/v1/renewals", func(w http.ResponseWriter, r *http.Request) {
		s.write(w, http.StatusOK, map[string]any{"items": []any{s.renewal()["renewal"]}, "total": 1, "page": 1, "limit": 20})
	})
	mux.HandleFunc("GET /api/v1/renewals/r1", func(w http.ResponseWriter, r *http.Request) {
		s.write(w, http.StatusOK, s.renewal())
	})
	mux.HandleFunc("PATCH /api/v1/renewals/r1", func(w http.ResponseWriter, r *http.Request) {
		var u domain.RenewalUpdate
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&u))
		s.mu.Lock()
		s.status, s.reason = u.Status, u.RejectionReason
		s.mu.Unlock()
		s.write(w, http.StatusOK, s.renewal())
	})
	mux.HandleFunc("POST /api/v1/notifications/renewal-status", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RecipientEmail string `json:"recipient_email"`
		}
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))
		s.mu.Lock()
		s.emails = append(s.emails, body.RecipientEmail)
		s.mu.Unlock()
		s.write(w, http.StatusOK, nil)
	})
	return mux
}

// run executes one CLI invocation with fresh flag state.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outputFormat, apiURL, credentialPath, verbose = "table", "", "", false
	loginEmail, loginPassword = "", ""
	listStatus, listSearch, listPage, listLimit = "", "", 1, 20
	reviewNotes, rejectReason = "", ""
	submission = domain.RenewalSubmission{}
	app = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := executeContext(context.Background())
	return out.String(), err
}

func setup(t *testing.T) (*reviewServer, []string) {
	t.Helper()
	color.NoColor = true
	srv := &reviewServer{t: t, status: domain.StatusPending}
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	cred := filepath.Join(t.TempDir(), "credential.yaml")
	return srv, []string{"--api", ts.URL, "--credential", cred}
}

func TestCLI_LoginPersistsSession(t *testing.T) {
	_, global := setup(t)

	out, err := run(t, append(global, "login", "--email", "admin@passport.test", "--password", "secret")...)
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as admin-1 (admin)")
	assert.Contains(t, out, "landing: /admin/renewals")

	out, err = run(t, append(global, "whoami", "-o", "json")...)
	require.NoError(t, err)
	var who whoamiOutput
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	assert.True(t, who.Authenticated)
	assert.Equal(t, domain.RoleAdmin, who.Role)
	assert.Equal(t, "/admin/renewals", who.Landing)

	_, err = run(t, append(global, "logout")...)
	require.NoError(t, err)

	out, err = run(t, append(global, "whoami")...)
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
}

func TestCLI_LoginRequiresPassword(t *testing.T) {
	_, global := setup(t)
	t.Setenv("PORTAL_PASSWORD", "")

	_, err := run(t, append(global, "login", "--email", "admin@passport.test")...)
	assert.Error(t, err)
}

func TestCLI_ReviewFlow(t *testing.T) {
	srv, global := setup(t)
	_, err := run(t, append(global, "login", "--email", "admin@passport.test", "--password", "secret")...)
	require.NoError(t, err)

	out, err := run(t, append(global, "renewals", "list", "--status", "pending")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Nimal Perera")
	assert.Contains(t, out, "PENDING")

	_, err = run(t, append(global, "renewals", "reject", "r1")...)
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	out, err = run(t, append(global, "renewals", "verify", "r1", "-o", "yaml")...)
	require.NoError(t, err)
	assert.Contains(t, out, "status: VERIFIED")

	_, err = run(t, append(global, "renewals", "verify", "r1")...)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	out, err = run(t, append(global, "renewals", "reject", "r1", "--reason", "photo unclear")...)
	require.NoError(t, err)
	assert.Contains(t, out, "photo unclear")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, []string{"nimal@example.com", "nimal@example.com"}, srv.emails)
}

func TestCLI_UploadRejectsUnknownType(t *testing.T) {
	_, global := setup(t)
	file := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(file, []byte("png"), 0o600))

	_, err := run(t, append(global, "upload", "r1", "selfie", file)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nic-front")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"upload", &upload.Error{Message: "the file is empty"}, "the file is empty"},
		{"validation", &domain.ValidationError{Field: "rejection_reason", Reason: domain.ErrMissingReason}, "rejection_reason: rejection reason is required"},
		{"unauthorized", &remote.Error{StatusCode: 401, Kind: domain.ErrUnauthorized}, "not logged in or session expired, run: portal login"},
		{"remote message", &remote.Error{StatusCode: 404, Message: "Renewal not found", Kind: domain.ErrNotFound}, "Renewal not found"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}

func TestFormatOutput(t *testing.T) {
	defer func() { outputFormat = "table" }()
	var buf bytes.Buffer

	outputFormat = "table"
	done, err := formatOutput(&buf, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, buf.String())

	outputFormat = "json"
	done, err = formatOutput(&buf, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.True(t, done)
	assert.JSONEq(t, `{"a":"b"}`, buf.String())

	buf.Reset()
	outputFormat = "yaml"
	_, err = formatOutput(&buf, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "a: b\n", buf.String())
}
