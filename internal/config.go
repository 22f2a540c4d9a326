package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	TokenFormatLegacy = "legacy"
	TokenFormatSigned = "signed"

	UnknownPermissionIgnore = "ignore"
	UnknownPermissionReject = "reject"

	DefaultCookieName  = "pg_dash_session"
	DefaultSessionTTL  = 7 * 24 * time.Hour
	DefaultDefaultRole = "Cliente"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Store         StoreConfig         `mapstructure:"store"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Authz         AuthzConfig         `mapstructure:"authz"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// StoreConfig bounds every repository call.
type StoreConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

type SecurityConfig struct {
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	AllowLegacyPlaintext bool          `mapstructure:"allow_legacy_plaintext"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"`
	TokenFormat          string        `mapstructure:"token_format" validate:"oneof=legacy signed"`
	TokenSecret          string        `mapstructure:"token_secret"`
	CookieName           string        `mapstructure:"cookie_name"`
	CookieSecure         bool          `mapstructure:"cookie_secure"`
}

type AuthzConfig struct {
	AdminAliases            []string `mapstructure:"admin_aliases"`
	DefaultRole             string   `mapstructure:"default_role"`
	UnknownPermissionPolicy string   `mapstructure:"unknown_permission_policy" validate:"oneof=ignore reject"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr" validate:"required_if=Enabled true"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	Window        time.Duration `mapstructure:"window"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type ObservabilityConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool   `mapstructure:"insecure"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// LoadConfigFromEnv builds the config from plain environment variables, for container deployments.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", ""),
			OpenAPIPath:       getEnv("OPENAPI_PATH", "./api/openapi.yml"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Store: StoreConfig{
			Timeout: getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
			Retries: getEnvAsInt("STORE_RETRIES", 1),
		},
		Security: SecurityConfig{
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
			AllowLegacyPlaintext: getEnvAsBool("ALLOW_LEGACY_PLAINTEXT", false),
			SessionTTL:           getEnvAsDuration("SESSION_TTL", DefaultSessionTTL),
			TokenFormat:          getEnv("TOKEN_FORMAT", TokenFormatLegacy),
			TokenSecret:          getEnv("TOKEN_SECRET", ""),
			CookieName:           getEnv("COOKIE_NAME", DefaultCookieName),
			CookieSecure:         getEnvAsBool("COOKIE_SECURE", true),
		},
		Authz: AuthzConfig{
			AdminAliases:            getEnvAsList("ADMIN_ALIASES", []string{"ADMIN", "Administrador"}),
			DefaultRole:             getEnv("DEFAULT_ROLE", DefaultDefaultRole),
			UnknownPermissionPolicy: getEnv("UNKNOWN_PERMISSION_POLICY", UnknownPermissionIgnore),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			MaxAttempts:   getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 10),
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Catalog: CatalogConfig{
			Path: getEnv("PERMISSION_CATALOG_PATH", ""),
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "") != "",
				ServiceName: getEnv("OTEL_SERVICE_NAME", "dashboard-access"),
				Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
				Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}
	if c.Store.Timeout <= 0 {
		c.Store.Timeout = 5 * time.Second
	}
	if c.Store.Retries < 0 {
		c.Store.Retries = 0
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 12
	}
	if c.Security.SessionTTL <= 0 {
		c.Security.SessionTTL = DefaultSessionTTL
	}
	if c.Security.TokenFormat == "" {
		c.Security.TokenFormat = TokenFormatLegacy
	}
	if c.Security.CookieName == "" {
		c.Security.CookieName = DefaultCookieName
	}
	if len(c.Authz.AdminAliases) == 0 {
		c.Authz.AdminAliases = []string{"ADMIN", "Administrador"}
	}
	if c.Authz.DefaultRole == "" {
		c.Authz.DefaultRole = DefaultDefaultRole
	}
	if c.Authz.UnknownPermissionPolicy == "" {
		c.Authz.UnknownPermissionPolicy = UnknownPermissionIgnore
	}
	if c.RateLimit.MaxAttempts <= 0 {
		c.RateLimit.MaxAttempts = 10
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = 15 * time.Minute
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Authz.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("authz config: %v", err))
	}

	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("rate_limit config: %v", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("observability config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	switch c.TokenFormat {
	case TokenFormatLegacy:
	case TokenFormatSigned:
		if len(c.TokenSecret) < 32 {
			return errors.New("token_secret must be at least 32 characters for signed tokens")
		}
	default:
		return fmt.Errorf("unknown token_format %q", c.TokenFormat)
	}
	if c.SessionTTL < time.Minute {
		return errors.New("session_ttl must be at least 1m")
	}
	return nil
}

func (c *AuthzConfig) Validate() error {
	if c.UnknownPermissionPolicy != UnknownPermissionIgnore && c.UnknownPermissionPolicy != UnknownPermissionReject {
		return fmt.Errorf("unknown_permission_policy must be %q or %q", UnknownPermissionIgnore, UnknownPermissionReject)
	}
	if strings.TrimSpace(c.DefaultRole) == "" {
		return errors.New("default_role is required")
	}
	return nil
}

func (c *RateLimitConfig) Validate() error {
	if c.Enabled && c.RedisAddr == "" {
		return errors.New("redis_addr is required when rate limiting is enabled")
	}
	return nil
}

func (c *ObservabilityConfig) Validate() error {
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return errors.New("tracing endpoint is required when tracing is enabled")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}
