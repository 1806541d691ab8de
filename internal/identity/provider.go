// Package identity turns an inbound request into a known caller id.
//
// Credential issuing (registration, passwords, cookies, tokens) belongs to an external
// identity service. The HeaderProvider here trusts an upstream gateway that has already
// authenticated the caller and forwards the user id in a header.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gig-market/internal/marketerrors"
	"gig-market/internal/repository"
)

// HeaderUserID is the header an authenticating gateway sets
const HeaderUserID = "X-User-ID"

// Provider authenticates a request and yields a stable user id
type Provider interface {
	Identify(r *http.Request) (string, error)
}

// HeaderProvider reads the caller from HeaderUserID and requires the user to exist
type HeaderProvider struct {
	users repository.UserDirectory
}

// NewHeaderProvider creates a provider that checks callers against users
func NewHeaderProvider(users repository.UserDirectory) *HeaderProvider {
	return &HeaderProvider{users: users}
}

// Identify returns the caller id, or an error matching marketerrors.ErrUnauthenticated
// when the header is missing or names an unknown user. Directory faults stay transient.
func (p *HeaderProvider) Identify(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return "", fmt.Errorf("identity: missing %s header: %w", HeaderUserID, marketerrors.ErrUnauthenticated)
	}

	user, err := p.users.GetUser(r.Context(), userID)
	if errors.Is(err, marketerrors.ErrUserNotFound) {
		return "", fmt.Errorf("identity: unknown user %s: %w", userID, marketerrors.ErrUnauthenticated)
	}
	if err != nil {
		return "", fmt.Errorf("identity: look up %s: %w", userID, err)
	}
	return user.UserID, nil
}
