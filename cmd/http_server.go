package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/dashboard-access/internal/authz"
	"github.com/frahmantamala/dashboard-access/internal/permission"
	"github.com/frahmantamala/dashboard-access/internal/role"
	"github.com/frahmantamala/dashboard-access/internal/session"
	"github.com/frahmantamala/dashboard-access/internal/telemetry"
	"github.com/frahmantamala/dashboard-access/internal/tenant"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/internal/transport/rest"
	"github.com/frahmantamala/dashboard-access/internal/transport/swagger"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.Config

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Observability.Tracing, app.Logger)
	if err != nil {
		app.Logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			app.Logger.Error("tracer shutdown error", "error", err)
		}
	}()

	// an empty catalog denies every fine-grained check, so a failed load is fatal
	if err := app.Catalog.Reload(ctx); err != nil {
		return fmt.Errorf("load permission catalog: %w", err)
	}

	doc, err := swagger.LoadDocument(ctx, cfg.Server.OpenAPIPath)
	if err != nil {
		app.Logger.Warn("api document not served", "error", err)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, buildHandlers(app, doc), cfg.Server.AllowedOrigins, app.Logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(router, "dashboard-access"),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		app.Logger.Info("Received signal, shutting down...", "signal", sig)
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			app.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	}

	app.Logger.Info("Server stopped")
	return nil
}

func buildHandlers(app *App, doc *swagger.Document) rest.Handlers {
	base := transport.NewBaseHandler(app.Logger)
	cookie := session.CookieConfig{
		Name:   app.Config.Security.CookieName,
		Secure: app.Config.Security.CookieSecure,
	}

	checks := map[string]rest.CheckFunc{"postgres": app.DB.PingContext}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}

	return rest.Handlers{
		Health:      rest.NewHealthHandler(checks),
		Auth:        authz.NewMiddleware(base, app.Engine, app.Sessions, cookie.TokenFromRequest),
		Session:     session.NewHandler(base, app.Sessions, cookie),
		Permissions: permission.NewHandler(base, app.Catalog),
		Roles:       role.NewHandler(base, app.Roles),
		Users:       user.NewHandler(base, app.Users),
		Tenants:     tenant.NewHandler(base, app.Tenants),
		Document:    doc,
	}
}
