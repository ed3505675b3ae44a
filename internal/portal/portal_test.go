package portal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"passport-portal/internal/config"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/jwt"
	"passport-portal/internal/portal/credential"
	"passport-portal/internal/portal/querycache"
	"passport-portal/internal/portal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	t         *testing.T
	mu        sync.Mutex
	status    domain.RenewalStatus
	documents map[string]string
	emails    chan string

	slowSeen    chan struct{}
	slowRelease chan struct{}
}

func (f *fakeAPI) write(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
}

func (f *fakeAPI) renewal() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return map[string]any{"renewal": map[string]any{
		"id":              "r1",
		"status":          f.status,
		"documents":       f.documents,
		"applicant_email": "nimal@example.com",
		"full_name":       "Nimal Perera",
	}}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.GenerateAccessToken("admin-1", "admin@passport.test", "admin", "server-secret", 15)
		require.NoError(f.t, err)
		f.write(w, http.StatusOK, map[string]any{"access_token": token})
	})
	mux.HandleFunc("GET /api/v1/renewals/r1", func(w http.ResponseWriter, r *http.Request) {
		f.write(w, http.StatusOK, f.renewal())
	})
	mux.HandleFunc("PATCH /api/v1/renewals/r1", func(w http.ResponseWriter, r *http.Request) {
		var u domain.RenewalUpdate
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&u))
		f.mu.Lock()
		f.status = u.Status
		f.mu.Unlock()
		f.write(w, http.StatusOK, f.renewal())
	})
	mux.HandleFunc("GET /api/v1/renewals/expired", func(w http.ResponseWriter, r *http.Request) {
		f.write(w, http.StatusUnauthorized, nil)
	})
	mux.HandleFunc("GET /api/v1/renewals/slow", func(w http.ResponseWriter, r *http.Request) {
		f.slowSeen <- struct{}{}
		<-f.slowRelease
		f.write(w, http.StatusUnauthorized, nil)
	})
	mux.HandleFunc("POST /api/v1/renewals/r1/documents", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseMultipartForm(1<<20))
		docType := r.FormValue("document_type")
		ref := "http://files.passport.test/r1/" + docType
		f.mu.Lock()
		f.documents[docType] = ref
		f.mu.Unlock()
		f.write(w, http.StatusOK, map[string]any{"document_type": docType, "url": ref})
	})
	mux.HandleFunc("POST /api/v1/notifications/renewal-status", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RecipientEmail string `json:"recipient_email"`
		}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(f.t, json.Unmarshal(raw, &body))
		f.emails <- body.RecipientEmail
		f.write(w, http.StatusOK, nil)
	})
	return mux
}

type recordingNav struct {
	mu     sync.Mutex
	routes []router.Route
}

func (n *recordingNav) Navigate(to router.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, to)
}

func (n *recordingNav) last() router.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

func newTestApp(t *testing.T) (*App, *fakeAPI, *recordingNav) {
	t.Helper()
	api := &fakeAPI{
		t:           t,
		status:      domain.StatusPending,
		documents:   map[string]string{},
		emails:      make(chan string, 4),
		slowSeen:    make(chan struct{}, 1),
		slowRelease: make(chan struct{}),
	}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	nav := &recordingNav{}
	app := New(config.PortalConfig{APIURL: srv.URL, Timeout: 5 * time.Second, NotifyBuffer: 4},
		WithStore(credential.NewMemoryStore()),
		WithNavigator(nav),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	app.Start(context.Background())
	t.Cleanup(app.Close)
	return app, api, nav
}

func TestApp_AdminReviewSendsNotification(t *testing.T) {
	app, api, nav := newTestApp(t)
	ctx := context.Background()

	ident, err := app.Login(ctx, "admin@passport.test", "reviewer123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, ident.Role)

	to, redirected := app.Enter("/")
	assert.True(t, redirected)
	assert.Equal(t, router.AdminLanding, to)
	assert.Equal(t, router.AdminLanding, nav.last())

	r, err := app.Renewals.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, r.Status)

	updated, err := app.Renewals.UpdateAsAdmin(ctx, "r1", domain.RenewalUpdate{Status: domain.StatusVerified})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, updated.Status)

	_, cached := querycache.Peek[*domain.RenewalRequest](app.Cache, querycache.DetailKey("r1"))
	assert.False(t, cached, "detail is invalidated after the update")

	select {
	case to := <-api.emails:
		assert.Equal(t, "nimal@example.com", to)
	case <-time.After(2 * time.Second):
		t.Fatal("status email was not sent")
	}
}

func TestApp_UnauthorizedEndsSession(t *testing.T) {
	app, _, nav := newTestApp(t)
	ctx := context.Background()

	_, err := app.Login(ctx, "admin@passport.test", "reviewer123")
	require.NoError(t, err)
	_, err = app.Renewals.Get(ctx, "r1")
	require.NoError(t, err)

	_, err = app.Renewals.Get(ctx, "expired")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.False(t, app.Session.IsAuthenticated())
	assert.False(t, app.Session.HasCredential())
	assert.Equal(t, router.LoginRoute, nav.last())

	_, cached := querycache.Peek[*domain.RenewalRequest](app.Cache, querycache.DetailKey("r1"))
	assert.False(t, cached, "reads of the previous identity are dropped")
}

func TestApp_StaleUnauthorizedKeepsNewerSession(t *testing.T) {
	app, api, nav := newTestApp(t)
	ctx := context.Background()

	_, err := app.Login(ctx, "admin@passport.test", "reviewer123")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := app.Renewals.Get(ctx, "slow")
		done <- err
	}()
	<-api.slowSeen

	token, err := jwt.GenerateAccessToken("applicant-7", "kamala@example.com", "applicant", "server-secret", 15)
	require.NoError(t, err)
	_, err = app.Session.Login(domain.Credential{Token: token})
	require.NoError(t, err)

	close(api.slowRelease)
	assert.ErrorIs(t, <-done, domain.ErrUnauthorized)

	assert.True(t, app.Session.IsAuthenticated())
	assert.Equal(t, "applicant-7", app.Session.SubjectID())
	assert.NotEqual(t, router.LoginRoute, nav.last())
}

func TestApp_UploadRefreshesRenewalDetail(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	_, err := app.Login(ctx, "admin@passport.test", "reviewer123")
	require.NoError(t, err)
	before, err := app.Renewals.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, before.Documents)

	ref, err := app.Uploads.Upload(ctx, "r1", domain.DocNICFront, "front.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)

	after, err := app.Renewals.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, ref, after.Documents[domain.DocNICFront])
}

func TestApp_EnterWithoutSessionLandsPublic(t *testing.T) {
	app, _, nav := newTestApp(t)

	_, redirected := app.Enter("/")
	assert.False(t, redirected)

	to, redirected := app.Enter("/dashboard")
	assert.True(t, redirected)
	assert.Equal(t, router.PublicLanding, to)
	assert.Equal(t, router.PublicLanding, nav.last())

	_, redirected = app.Enter("/applicant/renewals")
	assert.False(t, redirected)
}
