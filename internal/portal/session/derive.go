package session

import (
	"strings"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/jwt"
)

// Derive decodes the identity embedded in a credential. The signature is not
// verified here; the issuing service is the trust boundary, so the result is
// only good for personalizing the UI. Any decode problem means "no session".
func Derive(cred domain.Credential) (domain.Identity, bool) {
	if cred.IsZero() {
		return domain.Identity{}, false
	}
	claims, err := jwt.DecodeUnverified(strings.TrimSpace(cred.Token))
	if err != nil {
		return domain.Identity{}, false
	}

	subject := strings.TrimSpace(claims.UserID)
	if subject == "" {
		subject = strings.TrimSpace(claims.Subject)
	}
	role := strings.TrimSpace(claims.Role)
	if subject == "" || role == "" {
		return domain.Identity{}, false
	}

	return domain.Identity{
		SubjectID: subject,
		Role:      domain.Role(strings.ToLower(role)),
	}, true
}
