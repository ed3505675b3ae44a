package cmd

import (
	"errors"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/portal/remote"
	"passport-portal/internal/portal/upload"
)

// describe turns a command error into a line for the terminal.
func describe(err error) string {
	var (
		uerr *upload.Error
		verr *domain.ValidationError
		rerr *remote.Error
	)
	switch {
	case errors.As(err, &uerr):
		return uerr.Message
	case errors.As(err, &verr):
		return verr.Field + ": " + verr.Reason.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return "not logged in or session expired, run: portal login"
	case errors.Is(err, domain.ErrForbidden):
		return "this action needs the admin role"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "status change not allowed from the current status"
	case errors.As(err, &rerr) && rerr.Message != "":
		return rerr.Message
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return "renewal service is unreachable"
	default:
		return err.Error()
	}
}
