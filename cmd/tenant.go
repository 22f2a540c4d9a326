package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Client maintenance commands",
}

var tenantDeleteCmd = &cobra.Command{
	Use:   "delete [client-id]",
	Short: "Delete a client with its notices, accesses, users and sessions",
	Args:  cobra.ExactArgs(1),
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

		ctx = internal.ContextWithActorID(ctx, "cli")
		report, err := app.Tenants.Delete(ctx, args[0])
		if report != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		}
		if err != nil {
			return fmt.Errorf("delete client %s: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	tenantCmd.AddCommand(tenantDeleteCmd)
}
