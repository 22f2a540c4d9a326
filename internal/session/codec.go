package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LegacyCodec writes the "<user_id>:<session_id>" value existing clients already carry.
type LegacyCodec struct{}

func (LegacyCodec) Encode(t Token, _ time.Time) (string, error) {
	if t.UserID == "" || t.SessionID == "" || strings.Contains(t.UserID, ":") {
		return "", fmt.Errorf("encode session token: %w", ErrMalformedToken)
	}
	return t.UserID + ":" + t.SessionID, nil
}

func (LegacyCodec) Decode(raw string) (Token, error) {
	userID, sessionID, ok := strings.Cut(raw, ":")
	if !ok || userID == "" || sessionID == "" || strings.Contains(sessionID, ":") {
		return Token{}, ErrMalformedToken
	}
	return Token{UserID: userID, SessionID: sessionID}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// SignedCodec issues an HS256 JWT with sub = user id and jti = session id. Its exp mirrors the
// session row, which stays the authority on expiry and revocation.
type SignedCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewSignedCodec(secret, issuer string, now func() time.Time) *SignedCodec {
	if now == nil {
		now = time.Now
	}
	return &SignedCodec{secret: []byte(secret), issuer: issuer, now: now}
}

func (c *SignedCodec) Encode(t Token, expiresAt time.Time) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.UserID,
			ID:        t.SessionID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (c *SignedCodec) Decode(raw string) (Token, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Token{}, errors.Join(ErrMalformedToken, err)
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || cl.Subject == "" || cl.ID == "" {
		return Token{}, ErrMalformedToken
	}
	return Token{UserID: cl.Subject, SessionID: cl.ID}, nil
}
