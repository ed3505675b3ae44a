// Package portal assembles the client-side components: session, remote
// client with its unauthorized interceptor, query cache, renewal engine,
// notification pipeline, upload transport and landing router.
package portal

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"passport-portal/internal/config"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/portal/credential"
	"passport-portal/internal/portal/notify"
	"passport-portal/internal/portal/querycache"
	"passport-portal/internal/portal/remote"
	"passport-portal/internal/portal/renewal"
	"passport-portal/internal/portal/router"
	"passport-portal/internal/portal/session"
	"passport-portal/internal/portal/upload"
)

// App is one running portal.
type App struct {
	Session  *session.State
	Remote   *remote.Client
	Cache    *querycache.Cache
	Notifier *notify.Pipeline
	Renewals *renewal.Service
	Uploads  *upload.Client
	Router   *router.Router

	nav    router.Navigator
	logger *slog.Logger

	mu          sync.Mutex
	cancel      context.CancelFunc
	unsubscribe func()
	lastSubject string
}

type options struct {
	store      credential.Store
	nav        router.Navigator
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithStore replaces the credential file store.
func WithStore(s credential.Store) Option {
	return func(o *options) { o.store = s }
}

// WithNavigator receives landing and login redirects.
func WithNavigator(n router.Navigator) Option {
	return func(o *options) { o.nav = n }
}

func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New wires the components. Nothing runs until Start.
func New(cfg config.PortalConfig, opts ...Option) *App {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		path := cfg.CredentialPath
		if path == "" {
			path = credential.DefaultPath()
		}
		o.store = credential.NewFileStore(path, o.logger)
	}
	if o.nav == nil {
		o.nav = router.NavigatorFunc(func(to router.Route) {
			o.logger.Info("navigate", "to", to)
		})
	}

	a := &App{nav: o.nav, logger: o.logger}
	a.Session = session.New(o.store, o.logger)

	clientOpts := []remote.Option{
		remote.WithTimeout(cfg.Timeout),
		remote.WithLogger(o.logger),
		remote.WithUnauthorizedHandler(a.handleUnauthorized),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, remote.WithHTTPClient(o.httpClient))
	}
	a.Remote = remote.NewClient(cfg.APIURL, a.Session, clientOpts...)

	a.Cache = querycache.New(querycache.WithTTL(cfg.CacheTTL), querycache.WithLogger(o.logger))
	a.Notifier = notify.New(a.Remote, notify.WithBuffer(cfg.NotifyBuffer), notify.WithLogger(o.logger))
	a.Renewals = renewal.NewService(a.Remote, a.Cache, a.Notifier,
		renewal.WithIdentity(a.Session),
		renewal.WithLogger(o.logger),
	)
	a.Uploads = upload.New(a.Remote, upload.WithInvalidator(a.Cache))
	a.Router = router.New(a.Session, a.nav)
	return a
}

// Start restores the persisted session and starts the notification worker.
func (a *App) Start(ctx context.Context) session.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := a.Session.Restore()
	a.lastSubject = snap.Identity.SubjectID
	a.unsubscribe = a.Session.Subscribe(a.onSessionChange)

	ctx, a.cancel = context.WithCancel(ctx)
	a.Notifier.Start(ctx)
	return snap
}

// Close drains queued notifications and stops the worker.
func (a *App) Close() {
	a.mu.Lock()
	cancel, unsubscribe := a.cancel, a.unsubscribe
	a.cancel, a.unsubscribe = nil, nil
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	a.Notifier.Close()
	if cancel != nil {
		cancel()
	}
}

// Login exchanges the password for a credential and installs it.
func (a *App) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	cred, err := a.Remote.Login(ctx, email, password)
	if err != nil {
		return domain.Identity{}, err
	}
	return a.Session.Login(cred)
}

// Logout clears the session.
func (a *App) Logout() error {
	return a.Session.Logout()
}

// Enter runs the landing redirect for path.
func (a *App) Enter(path string) (router.Route, bool) {
	return a.Router.OnEntry(path)
}

// handleUnauthorized is the interceptor behind every authenticated 401. A
// rejected token that a later login already replaced ends nothing.
func (a *App) handleUnauthorized(bearer string) {
	// a failed file removal is logged by the session; memory is cleared regardless
	ended, _ := a.Session.LogoutIfBearer(bearer)
	if !ended {
		a.logger.Info("ignoring unauthorized answer for a replaced session")
		return
	}
	a.nav.Navigate(router.LoginRoute)
}

// onSessionChange drops cached reads when the subject changes.
func (a *App) onSessionChange(snap session.Snapshot) {
	a.mu.Lock()
	changed := snap.Identity.SubjectID != a.lastSubject
	a.lastSubject = snap.Identity.SubjectID
	a.mu.Unlock()

	if changed {
		a.Cache.Reset()
	}
}
