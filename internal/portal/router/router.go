// Package router decides where an ambiguous entry point should land.
// It is advisory navigation only; access control lives on the server.
package router

import (
	"strings"

	"passport-portal/internal/core/domain"
)

// Route is a portal path.
type Route string

const (
	PublicLanding    Route = "/"
	AdminLanding     Route = "/admin/renewals"
	ApplicantLanding Route = "/applicant/renewals"
	LoginRoute       Route = "/login"
)

// DecideLandingRoute maps the decoded role onto its landing page.
func DecideLandingRoute(ident domain.Identity, ok bool) Route {
	if !ok {
		return PublicLanding
	}
	switch ident.Role {
	case domain.RoleAdmin:
		return AdminLanding
	case domain.RoleApplicant:
		return ApplicantLanding
	default:
		return PublicLanding
	}
}

var ambiguous = map[string]bool{
	"/":          true,
	"/dashboard": true,
	"/home":      true,
}

// IsAmbiguous reports whether path needs a role-based redirect.
func IsAmbiguous(path string) bool {
	p := strings.TrimSpace(path)
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}
	return ambiguous[p]
}

// IdentitySource exposes the current identity.
type IdentitySource interface {
	Identity() (domain.Identity, bool)
}

// Navigator performs the redirect.
type Navigator interface {
	Navigate(to Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to Route)

func (f NavigatorFunc) Navigate(to Route) { f(to) }

// Router runs the one-shot landing redirect on entry.
type Router struct {
	session IdentitySource
	nav     Navigator
}

func New(session IdentitySource, nav Navigator) *Router {
	return &Router{session: session, nav: nav}
}

// OnEntry redirects when path is ambiguous and the landing differs from it.
// It never blocks rendering of path; it returns the route it navigated to.
func (r *Router) OnEntry(path string) (Route, bool) {
	if !IsAmbiguous(path) {
		return "", false
	}
	target := DecideLandingRoute(r.session.Identity())
	if string(target) == path {
		return "", false
	}
	r.nav.Navigate(target)
	return target, true
}
