package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/authz"
	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/credential"
	"github.com/frahmantamala/dashboard-access/internal/permission"
	permissionPostgres "github.com/frahmantamala/dashboard-access/internal/permission/postgres"
	"github.com/frahmantamala/dashboard-access/internal/ratelimit"
	"github.com/frahmantamala/dashboard-access/internal/role"
	rolePostgres "github.com/frahmantamala/dashboard-access/internal/role/postgres"
	"github.com/frahmantamala/dashboard-access/internal/session"
	sessionPostgres "github.com/frahmantamala/dashboard-access/internal/session/postgres"
	"github.com/frahmantamala/dashboard-access/internal/tenant"
	tenantPostgres "github.com/frahmantamala/dashboard-access/internal/tenant/postgres"
	"github.com/frahmantamala/dashboard-access/internal/user"
	userPostgres "github.com/frahmantamala/dashboard-access/internal/user/postgres"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// App holds every service built from one config. Commands take what they need from it.
type App struct {
	Config *internal.Config
	Logger *slog.Logger
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Redis  *redis.Client
	Bus    *events.EventBus

	Hasher   *credential.Hasher
	Catalog  *permission.Catalog
	Roles    *role.Service
	Users    *user.Service
	Tenants  *tenant.Service
	Sessions *session.Manager
	Engine   *authz.Engine
}

func newApp(ctx context.Context) (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Configure(os.Stdout, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format).
		With("env", cfg.Env)

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, cfg.Env)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	app := &App{Config: cfg, Logger: lg, DB: db, Gorm: gdb}

	app.Bus = events.NewEventBus(lg)
	app.Bus.SubscribeAll(events.AuditLogger(lg.With("component", "audit")))

	var limiter ratelimit.Limiter = ratelimit.Noop{}
	if cfg.RateLimit.Enabled {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
		app.Redis = client
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
	}

	app.wire(limiter)
	return app, nil
}

// wire builds every service on top of app.Gorm. Tests call it with an in-memory database.
func (a *App) wire(limiter ratelimit.Limiter) {
	cfg, lg, gdb := a.Config, a.Logger, a.Gorm
	if a.Bus == nil {
		a.Bus = events.NewEventBus(lg)
	}
	policy := storecall.NewPolicy(cfg.Store.Timeout, cfg.Store.Retries, lg)

	a.Hasher = credential.NewHasher(cfg.Security.BCryptCost, cfg.Security.AllowLegacyPlaintext)
	a.Catalog = permission.NewCatalog(permissionPostgres.NewPermissionRepository(gdb), policy, a.Bus, lg)
	a.Roles = role.NewService(rolePostgres.NewRoleRepository(gdb), a.Catalog, policy, a.Bus, cfg.Authz.UnknownPermissionPolicy, lg)
	a.Users = user.NewService(userPostgres.NewUserRepository(gdb), a.Roles, a.Hasher, policy, a.Bus, cfg.Authz.DefaultRole, authz.AdminNames(cfg.Authz.AdminAliases), lg)

	deleter := tenant.NewDeleter(tenantPostgres.NewCascadeRepository(gdb), policy, a.Bus, lg)
	a.Tenants = tenant.NewService(tenantPostgres.NewTenantRepository(gdb), deleter, policy, lg)

	a.Sessions = session.NewManager(
		sessionPostgres.NewSessionRepository(gdb),
		a.Users,
		a.Hasher,
		limiter,
		policy,
		a.Bus,
		session.Config{TTL: cfg.Security.SessionTTL, Codec: newCodec(cfg.Security)},
		lg,
	)
	a.Engine = authz.NewEngine(a.Roles, a.Catalog, cfg.Authz.AdminAliases, lg)
}

func newCodec(cfg internal.SecurityConfig) session.Codec {
	if cfg.TokenFormat == internal.TokenFormatSigned {
		return session.NewSignedCodec(cfg.TokenSecret, "dashboard-access", time.Now)
	}
	return session.LegacyCodec{}
}

// Close drains pending audit events before dropping connections.
func (a *App) Close() {
	if a.Bus != nil {
		a.Bus.Wait()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis close error", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("database close error", "error", err)
		}
	}
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool so both see the same connection limits.
func initGorm(db *sqlx.DB, env string) (*gorm.DB, error) {
	level := gormLogger.Warn
	if env == "production" {
		level = gormLogger.Error
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(level),
	})
}
