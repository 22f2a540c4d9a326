package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/authz"
	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
	"github.com/frahmantamala/dashboard-access/internal/permission"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/spf13/cobra"
)

var (
	seedAdminEmail    string
	seedAdminName     string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog, system roles and the first admin",
	Long: `Upserts the permission catalog, makes sure the ADMIN and default client roles exist and
creates the initial admin user. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()
		return runSeed(ctx, app)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@example.com", "email of the initial admin user")
	seedCmd.Flags().StringVar(&seedAdminName, "admin-name", "Administrator", "name of the initial admin user")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the initial admin user; skipped when empty")
}

func runSeed(ctx context.Context, app *App) error {
	defs, err := permission.LoadDefinitions(app.Config.Catalog.Path)
	if err != nil {
		return err
	}
	if err := app.Catalog.Seed(ctx, defs); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	fmt.Printf("Seeded %d permissions\n", len(app.Catalog.List()))

	admin, created, err := app.Roles.EnsureSystemRole(ctx, authz.CanonicalAdmin, "Full access to every client and setting", true, nil)
	if err != nil {
		return fmt.Errorf("ensure admin role: %w", err)
	}
	reportRole(admin.Name, created)

	var clientGrants []string
	if p, ok := app.Catalog.ByCode(permission.CodeClientsView); ok {
		clientGrants = append(clientGrants, p.ID)
	}
	defaultRole, created, err := app.Roles.EnsureSystemRole(ctx, app.Config.Authz.DefaultRole, "Client portal access", false, clientGrants)
	if err != nil {
		return fmt.Errorf("ensure default role: %w", err)
	}
	reportRole(defaultRole.Name, created)

	if seedAdminPassword == "" {
		fmt.Println("No admin password given; skipping admin user")
		return nil
	}

	_, err = app.Users.FindByEmail(ctx, validation.NormalizeEmail(seedAdminEmail))
	switch {
	case err == nil:
		fmt.Println("admin user already exists:", seedAdminEmail)
		return nil
	case !errors.Is(err, internal.ErrUserNotFound):
		return fmt.Errorf("lookup admin user: %w", err)
	}

	u, err := app.Users.Create(ctx, user.CreateUserRequest{
		Name:     seedAdminName,
		Email:    seedAdminEmail,
		Password: seedAdminPassword,
		Role:     admin.Name,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	fmt.Println("Seeded admin user:", u.Email)
	return nil
}

func reportRole(name string, created bool) {
	if created {
		fmt.Println("Created system role:", name)
		return
	}
	fmt.Println("System role already exists:", name)
}
