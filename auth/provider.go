// Package auth wraps the external identity provider. Credential storage and
// verification are fully delegated; this backend never sees a password hash.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials: wrong email/password, unknown account, or a
	// rejected re-authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailInUse: sign-up with an already registered address.
	ErrEmailInUse = errors.New("email already in use")
	// ErrWeakPassword: the provider refused the new password.
	ErrWeakPassword = errors.New("password too weak")
)

// Session is an authenticated principal. Token is the provider-issued
// credential needed for follow-up account operations (password change).
type Session struct {
	UID   string
	Email string
	Token string
}

// Provider is the identity service this backend delegates to.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// Reauthenticate verifies the current password and returns a fresh
	// session whose token authorizes a password change.
	Reauthenticate(ctx context.Context, email, currentPassword string) (*Session, error)
	ChangePassword(ctx context.Context, session *Session, newPassword string) error
}
