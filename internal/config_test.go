package internal_test

import (
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setenv(key, value string) {
	old, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

var _ = Describe("Config", func() {
	var cfg *internal.Config

	BeforeEach(func() {
		cfg = &internal.Config{Database: internal.DatabaseConfig{Source: "postgres://localhost/dash"}}
		cfg.ApplyDefaults()
	})

	It("fills the documented defaults", func() {
		Expect(cfg.Security.SessionTTL).To(Equal(7 * 24 * time.Hour))
		Expect(cfg.Security.CookieName).To(Equal("pg_dash_session"))
		Expect(cfg.Security.TokenFormat).To(Equal(internal.TokenFormatLegacy))
		Expect(cfg.Authz.DefaultRole).To(Equal("Cliente"))
		Expect(cfg.Authz.AdminAliases).To(ConsistOf("ADMIN", "Administrador"))
		Expect(cfg.Authz.UnknownPermissionPolicy).To(Equal(internal.UnknownPermissionIgnore))
		Expect(cfg.Store.Timeout).To(Equal(5 * time.Second))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("keeps explicit values", func() {
		c := &internal.Config{Security: internal.SecurityConfig{SessionTTL: time.Hour, CookieName: "sid"}}
		c.ApplyDefaults()
		Expect(c.Security.SessionTTL).To(Equal(time.Hour))
		Expect(c.Security.CookieName).To(Equal("sid"))
	})

	It("requires a long secret for signed tokens", func() {
		cfg.Security.TokenFormat = internal.TokenFormatSigned
		cfg.Security.TokenSecret = "short"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("token_secret")))

		cfg.Security.TokenSecret = strings.Repeat("s", 32)
		Expect(cfg.Validate()).To(Succeed())
	})

	It("joins every section error", func() {
		cfg.Database.Source = ""
		cfg.Authz.UnknownPermissionPolicy = "maybe"
		cfg.RateLimit.Enabled = true

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("database config: source is required"))
		Expect(err.Error()).To(ContainSubstring("; authz config:"))
		Expect(err.Error()).To(ContainSubstring("rate_limit config: redis_addr"))
	})

	It("rejects out of range bcrypt costs", func() {
		cfg.Security.BCryptCost = 4
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("bcrypt_cost")))
	})

	It("loads plain environment variables for container deployments", func() {
		setenv("DATABASE_URL", "postgres://db/dash")
		setenv("SESSION_TTL", "12h")
		setenv("ADMIN_ALIASES", "ADMIN, Root")
		setenv("RATE_LIMIT_ENABLED", "true")
		setenv("REDIS_ADDR", "redis:6379")

		c := internal.LoadConfigFromEnv()
		Expect(c.Database.Source).To(Equal("postgres://db/dash"))
		Expect(c.Security.SessionTTL).To(Equal(12 * time.Hour))
		Expect(c.Authz.AdminAliases).To(Equal([]string{"ADMIN", "Root"}))
		Expect(c.RateLimit.Enabled).To(BeTrue())
		Expect(c.Validate()).To(Succeed())
	})
})
