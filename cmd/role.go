package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Role registry commands",
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles, system roles first",
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

		roles, err := app.Roles.List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSYSTEM\tSUPERUSER\tPERMISSIONS")
		for _, r := range roles {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%d\n", r.ID, r.Name, r.IsSystem, r.IsSuperuser, len(r.Permissions))
		}
		return w.Flush()
	},
}

func init() {
	roleCmd.AddCommand(roleListCmd)
}
