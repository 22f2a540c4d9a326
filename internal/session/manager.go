package session

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
	sessionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/session"
	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/credential"
	"github.com/frahmantamala/dashboard-access/internal/ratelimit"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	Create(ctx context.Context, s *sessionDatamodel.Session) error
	Get(ctx context.Context, id string) (*sessionDatamodel.Session, error)
	// Revoke only touches the session when it belongs to userID.
	Revoke(ctx context.Context, id, userID string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)
}

type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindPrincipal(ctx context.Context, id string) (*user.Principal, error)
	UpgradePasswordHash(ctx context.Context, id, hash string) error
}

type Credentials interface {
	Hash(plaintext string) (string, error)
	Check(plaintext, stored string) credential.Result
	Equalize(plaintext string)
}

type Config struct {
	TTL    time.Duration
	Codec  Codec
	Now    func() time.Time
	Random io.Reader
}

type Manager struct {
	repo    RepositoryAPI
	users   UserDirectory
	creds   Credentials
	limiter ratelimit.Limiter
	policy  storecall.Policy
	events  events.Publisher
	codec   Codec
	ttl     time.Duration
	now     func() time.Time
	random  io.Reader
	logger  *slog.Logger
}

func NewManager(repo RepositoryAPI, users UserDirectory, creds Credentials, limiter ratelimit.Limiter, policy storecall.Policy, publisher events.Publisher, cfg Config, logger *slog.Logger) *Manager {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = internal.DefaultSessionTTL
	}
	if cfg.Codec == nil {
		cfg.Codec = LegacyCodec{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Random == nil {
		cfg.Random = rand.Reader
	}
	return &Manager{
		repo:    repo,
		users:   users,
		creds:   creds,
		limiter: limiter,
		policy:  policy,
		events:  publisher,
		codec:   cfg.Codec,
		ttl:     cfg.TTL,
		now:     cfg.Now,
		random:  cfg.Random,
		logger:  logger,
	}
}

// Login verifies the credentials and persists a new session. An unknown email and a wrong
// password fail identically, with the same bcrypt cost spent on both paths.
func (m *Manager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = validation.NormalizeEmail(email)

	allowed, err := m.limiter.Allow(ctx, email)
	if err != nil {
		m.logger.WarnContext(ctx, "login limiter unavailable, allowing attempt", "error", err)
		allowed = true
	}
	if !allowed {
		m.logger.WarnContext(ctx, "login attempts exceeded", "email", email)
		m.publish(ctx, events.EventTypeLoginFailed, "", email, map[string]interface{}{"reason": "rate_limited"})
		return nil, internal.ErrTooManyAttempts
	}

	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		m.creds.Equalize(password)
		return nil, m.loginFailed(ctx, email)
	}

	res := m.creds.Check(password, u.PasswordHash)
	if !res.Match {
		return nil, m.loginFailed(ctx, email)
	}
	if res.NeedsUpgrade {
		m.upgrade(ctx, u, password, res.Encoding)
	}

	sessionID, err := uuid.NewRandomFromReader(m.random)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate session id", err)
	}
	now := m.now()
	row := &sessionDatamodel.Session{
		ID:        sessionID.String(),
		UserID:    u.ID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.policy.Do(ctx, "session.create", func(ctx context.Context) error {
		return m.repo.Create(ctx, row)
	}); err != nil {
		return nil, err
	}

	token, err := m.codec.Encode(Token{UserID: u.ID, SessionID: row.ID}, row.ExpiresAt)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode session token", err)
	}

	principal, err := m.users.FindPrincipal(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	principal.SessionID = row.ID

	if err := m.limiter.Reset(ctx, email); err != nil {
		m.logger.WarnContext(ctx, "failed to reset login attempts", "error", err)
	}
	m.logger.InfoContext(ctx, "login succeeded", "user_id", u.ID)
	m.publish(ctx, events.EventTypeLoginSucceeded, u.ID, u.ID, map[string]interface{}{"session_id": row.ID})

	return &LoginResult{Principal: principal, Token: token, ExpiresAt: row.ExpiresAt}, nil
}

func (m *Manager) loginFailed(ctx context.Context, email string) error {
	m.logger.WarnContext(ctx, "login failed", "email", email)
	m.publish(ctx, events.EventTypeLoginFailed, "", email, nil)
	return internal.ErrInvalidCredentials
}

// upgrade replaces a legacy or weak credential with a fresh bcrypt hash. Failure keeps the old
// credential and never blocks the login.
func (m *Manager) upgrade(ctx context.Context, u *user.User, password string, from credential.Encoding) {
	if from == credential.EncodingLegacyPlaintext {
		m.logger.WarnContext(ctx, "deprecated plaintext credential matched, upgrading", "user_id", u.ID)
	}
	hash, err := m.creds.Hash(password)
	if err != nil {
		m.logger.WarnContext(ctx, "credential upgrade skipped", "user_id", u.ID, "error", err)
		return
	}
	if err := m.users.UpgradePasswordHash(ctx, u.ID, hash); err != nil {
		m.logger.WarnContext(ctx, "credential upgrade failed", "user_id", u.ID, "error", err)
		return
	}
	m.publish(ctx, events.EventTypeCredentialUpgraded, u.ID, u.ID, map[string]interface{}{"from": string(from)})
}

// Validate resolves a token to its principal. Anything short of a live, unexpired, unrevoked
// session row owned by an existing user yields (nil, nil); only store failures are errors.
func (m *Manager) Validate(ctx context.Context, raw string) (*user.Principal, error) {
	if raw == "" {
		return nil, nil
	}
	tok, err := m.codec.Decode(raw)
	if err != nil {
		return nil, nil
	}

	row, err := storecall.Get(ctx, m.policy, "session.get", func(ctx context.Context) (*sessionDatamodel.Session, error) {
		return m.repo.Get(ctx, tok.SessionID)
	})
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.UserID != tok.UserID || row.RevokedAt != nil || !m.now().Before(row.ExpiresAt) {
		return nil, nil
	}

	principal, err := m.users.FindPrincipal(ctx, row.UserID)
	if errors.Is(err, internal.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	principal.SessionID = row.ID
	return principal, nil
}

// Revoke ends the session behind raw. Unknown, malformed and already revoked tokens are not errors,
// and neither is a token naming a session owned by another user; that session stays live.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	tok, err := m.codec.Decode(raw)
	if err != nil {
		return nil
	}
	if err := m.policy.Do(ctx, "session.revoke", func(ctx context.Context) error {
		return m.repo.Revoke(ctx, tok.SessionID, tok.UserID, m.now())
	}); err != nil {
		return err
	}
	m.publish(ctx, events.EventTypeSessionRevoked, tok.UserID, tok.UserID, map[string]interface{}{"session_id": tok.SessionID})
	return nil
}

// RevokeAllForUser ends every live session of a user and returns how many were ended.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := storecall.Get(ctx, m.policy, "session.revoke_all", func(ctx context.Context) (int64, error) {
		return m.repo.RevokeAllForUser(ctx, userID, m.now())
	})
	if err != nil {
		return 0, err
	}
	m.logger.InfoContext(ctx, "sessions revoked", "user_id", userID, "count", n)
	m.publish(ctx, events.EventTypeSessionRevoked, internal.ActorIDFromContext(ctx), userID, map[string]interface{}{"count": n})
	return n, nil
}

func (m *Manager) publish(ctx context.Context, eventType, actorID, subject string, data map[string]interface{}) {
	if err := m.events.Publish(ctx, events.NewAuditEvent(eventType, actorID, subject, data)); err != nil {
		m.logger.WarnContext(ctx, "failed to publish audit event", "event_type", eventType, "error", err)
	}
}
