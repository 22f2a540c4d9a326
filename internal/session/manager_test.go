package session_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	sessionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/session"
	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/core/testdb"
	"github.com/frahmantamala/dashboard-access/internal/credential"
	"github.com/frahmantamala/dashboard-access/internal/session"
	sessionPostgres "github.com/frahmantamala/dashboard-access/internal/session/postgres"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// mockUserDirectory is keyed by lower-cased email.
type mockUserDirectory struct {
	mu       sync.Mutex
	byEmail  map[string]*user.User
	deleted  map[string]bool
	findErr  error
	upgraded map[string]string
}

func newMockUserDirectory() *mockUserDirectory {
	return &mockUserDirectory{
		byEmail:  map[string]*user.User{},
		deleted:  map[string]bool{},
		upgraded: map[string]string{},
	}
}

func (m *mockUserDirectory) add(id, email, stored string) {
	m.byEmail[email] = &user.User{ID: id, Name: id, Email: email, PasswordHash: stored, RoleName: "Cliente"}
}

func (m *mockUserDirectory) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byEmail[email]
	if !ok || m.deleted[u.ID] {
		return nil, internal.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserDirectory) FindPrincipal(ctx context.Context, id string) (*user.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleted[id] {
		return nil, internal.ErrUserNotFound
	}
	for _, u := range m.byEmail {
		if u.ID == id {
			return &user.Principal{UserID: u.ID, Name: u.Name, Email: u.Email, RoleName: u.RoleName}, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUserDirectory) UpgradePasswordHash(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upgraded[id] = hash
	for _, u := range m.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
		}
	}
	return nil
}

type stubLimiter struct {
	allow    bool
	err      error
	resetFor []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.allow, l.err
}

func (l *stubLimiter) Reset(ctx context.Context, key string) error {
	l.resetFor = append(l.resetFor, key)
	return nil
}

type failingRepository struct {
	session.RepositoryAPI
}

func (failingRepository) Create(ctx context.Context, s *sessionDatamodel.Session) error {
	return errors.New("relation sessions does not exist")
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, event.EventType())
	return nil
}

func (p *recordingPublisher) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

var _ = Describe("Manager", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		now       time.Time
		users     *mockUserDirectory
		hasher    *credential.Hasher
		limiter   *stubLimiter
		publisher *recordingPublisher
		repo      session.RepositoryAPI
		codec     session.Codec
		manager   *session.Manager
	)

	clock := func() time.Time { return now }

	build := func() *session.Manager {
		return session.NewManager(repo, users, hasher, limiter, storecall.NewPolicy(time.Second, 1, logger.Discard()), publisher, session.Config{
			TTL:   internal.DefaultSessionTTL,
			Codec: codec,
			Now:   clock,
		}, logger.Discard())
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
		users = newMockUserDirectory()
		hasher = credential.NewHasher(bcrypt.MinCost, false)
		limiter = &stubLimiter{allow: true}
		publisher = &recordingPublisher{}
		repo = sessionPostgres.NewSessionRepository(db)
		codec = session.LegacyCodec{}

		hash, err := hasher.Hash("s3cret")
		Expect(err).NotTo(HaveOccurred())
		users.add("user-1", "ana@example.com", hash)

		manager = build()
	})

	AfterEach(func() {
		testdb.Close(db)
	})

	Describe("Login", func() {
		It("persists a seven day session and returns a token binding it", func() {
			result, err := manager.Login(ctx, "  Ana@Example.com ", "s3cret")
			Expect(err).NotTo(HaveOccurred())

			Expect(result.ExpiresAt).To(Equal(now.Add(7 * 24 * time.Hour)))
			Expect(result.Token).To(HavePrefix("user-1:"))
			Expect(result.Principal.UserID).To(Equal("user-1"))
			Expect(result.Principal.SessionID).NotTo(BeEmpty())

			var row sessionDatamodel.Session
			Expect(db.Where("id = ?", result.Principal.SessionID).First(&row).Error).To(Succeed())
			Expect(row.UserID).To(Equal("user-1"))
			Expect(row.ExpiresAt.Equal(result.ExpiresAt)).To(BeTrue())

			Expect(limiter.resetFor).To(Equal([]string{"ana@example.com"}))
			Expect(publisher.seen()).To(ContainElement(events.EventTypeLoginSucceeded))
		})

		It("fails identically for a wrong password and an unknown email", func() {
			_, wrongPassword := manager.Login(ctx, "ana@example.com", "nope")
			_, unknownEmail := manager.Login(ctx, "ghost@example.com", "s3cret")

			Expect(errors.Is(wrongPassword, internal.ErrInvalidCredentials)).To(BeTrue())
			Expect(errors.Is(unknownEmail, internal.ErrInvalidCredentials)).To(BeTrue())
			Expect(wrongPassword.Error()).To(Equal(unknownEmail.Error()))
			Expect(publisher.seen()).To(Equal([]string{events.EventTypeLoginFailed, events.EventTypeLoginFailed}))
		})

		It("issues a distinct session for every login", func() {
			var wg sync.WaitGroup
			tokens := make([]string, 5)
			for i := range tokens {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					result, err := manager.Login(ctx, "ana@example.com", "s3cret")
					Expect(err).NotTo(HaveOccurred())
					tokens[i] = result.Token
				}(i)
			}
			wg.Wait()

			Expect(tokens).To(HaveLen(5))
			seen := map[string]bool{}
			for _, t := range tokens {
				seen[t] = true
			}
			Expect(seen).To(HaveLen(5))

			var count int64
			Expect(db.Model(&sessionDatamodel.Session{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(5)))
		})

		It("fails the login when the session cannot be stored", func() {
			repo = failingRepository{}
			manager = build()

			result, err := manager.Login(ctx, "ana@example.com", "s3cret")
			Expect(err).To(HaveOccurred())
			Expect(result).To(BeNil())
		})

		It("surfaces store outages instead of reporting bad credentials", func() {
			users.findErr = internal.ErrStoreUnavailable
			_, err := manager.Login(ctx, "ana@example.com", "s3cret")
			Expect(errors.Is(err, internal.ErrStoreUnavailable)).To(BeTrue())
		})

		It("rejects callers over the attempt limit", func() {
			limiter.allow = false
			_, err := manager.Login(ctx, "ana@example.com", "s3cret")
			Expect(errors.Is(err, internal.ErrTooManyAttempts)).To(BeTrue())
		})

		It("keeps logins working when the limiter is down", func() {
			limiter.allow = false
			limiter.err = errors.New("redis: connection refused")
			_, err := manager.Login(ctx, "ana@example.com", "s3cret")
			Expect(err).NotTo(HaveOccurred())
		})

		Context("with a legacy plaintext credential", func() {
			BeforeEach(func() {
				users.add("user-2", "old@example.com", "plain-pass")
			})

			It("refuses it while the migration path is off", func() {
				_, err := manager.Login(ctx, "old@example.com", "plain-pass")
				Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
				Expect(users.upgraded).To(BeEmpty())
			})

			It("accepts it once and stores a bcrypt hash instead", func() {
				hasher = credential.NewHasher(bcrypt.MinCost, true)
				manager = build()

				_, err := manager.Login(ctx, "old@example.com", "plain-pass")
				Expect(err).NotTo(HaveOccurred())

				upgraded := users.upgraded["user-2"]
				Expect(credential.DetectEncoding(upgraded)).To(Equal(credential.EncodingBcrypt))
				Expect(hasher.Verify("plain-pass", upgraded)).To(BeTrue())
				Expect(publisher.seen()).To(ContainElement(events.EventTypeCredentialUpgraded))
			})
		})
	})

	Describe("Validate", func() {
		var token string

		BeforeEach(func() {
			result, err := manager.Login(ctx, "ana@example.com", "s3cret")
			Expect(err).NotTo(HaveOccurred())
			token = result.Token
		})

		It("resolves a live session to its principal", func() {
			principal, err := manager.Validate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal.UserID).To(Equal("user-1"))
		})

		It("never returns a principal after expiry", func() {
			now = now.Add(7*24*time.Hour - time.Second)
			principal, err := manager.Validate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).NotTo(BeNil())

			now = now.Add(time.Second)
			principal, err = manager.Validate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).To(BeNil())
		})

		It("rejects a revoked session, and revoking twice is fine", func() {
			Expect(manager.Revoke(ctx, token)).To(Succeed())
			Expect(manager.Revoke(ctx, token)).To(Succeed())

			principal, err := manager.Validate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).To(BeNil())
		})

		It("leaves the session live when the token names another user", func() {
			_, sid, _ := cutToken(token)
			Expect(manager.Revoke(ctx, "user-2:"+sid)).To(Succeed())

			principal, err := manager.Validate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).NotTo(BeNil())
		})

		It("rejects a token whose user no longer exists", func() {
			users.deleted["user-1"] = true
			principal, err := manager.Validate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).To(BeNil())
		})

		DescribeTable("fails softly on bad tokens",
			func(raw func(valid string) string) {
				principal, err := manager.Validate(ctx, raw(token))
				Expect(err).NotTo(HaveOccurred())
				Expect(principal).To(BeNil())
			},
			Entry("empty", func(string) string { return "" }),
			Entry("garbage", func(string) string { return "not a token" }),
			Entry("unknown session", func(string) string { return "user-1:00000000-0000-0000-0000-000000000000" }),
			Entry("session of another user", func(valid string) string {
				_, sid, _ := cutToken(valid)
				return "user-2:" + sid
			}),
		)

		It("revokes every session of a user", func() {
			_, err := manager.Login(ctx, "ana@example.com", "s3cret")
			Expect(err).NotTo(HaveOccurred())

			n, err := manager.RevokeAllForUser(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))

			principal, err := manager.Validate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).To(BeNil())
		})
	})

	Context("with signed tokens", func() {
		BeforeEach(func() {
			codec = session.NewSignedCodec("0123456789abcdef0123456789abcdef", "dashboard-access", clock)
			manager = build()
		})

		It("still requires the live session row", func() {
			result, err := manager.Login(ctx, "ana@example.com", "s3cret")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Token).NotTo(ContainSubstring("user-1:"))

			principal, err := manager.Validate(ctx, result.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).NotTo(BeNil())

			Expect(manager.Revoke(ctx, result.Token)).To(Succeed())
			principal, err = manager.Validate(ctx, result.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal).To(BeNil())
		})
	})
})

func cutToken(raw string) (string, string, bool) {
	tok, err := session.LegacyCodec{}.Decode(raw)
	return tok.UserID, tok.SessionID, err == nil
}
