package session

import (
	"errors"
	"time"

	"github.com/frahmantamala/dashboard-access/internal/user"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMalformedToken  = errors.New("malformed session token")
)

// Token is what a session cookie decodes to.
type Token struct {
	UserID    string
	SessionID string
}

// Codec turns a session binding into the cookie value and back.
type Codec interface {
	Encode(t Token, expiresAt time.Time) (string, error)
	// Decode fails with ErrMalformedToken for anything it did not produce.
	Decode(raw string) (Token, error)
}

// LoginResult is a successful login: the principal and the cookie value binding it.
type LoginResult struct {
	Principal *user.Principal
	Token     string
	ExpiresAt time.Time
}
