package role

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var createDisabled bool

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		if err := requireAdmin(cmd.Context()); err != nil {
			return err
		}

		name, err := sdk.RequireText("role name", args[0])
		if err != nil {
			return err
		}

		api, err := rolesAPI(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		enable := !createDisabled
		role, err := api.Create(ctx, sdk.RoleInput{Name: name, Enable: &enable})
		if err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}
		if role == nil {
			pterm.Success.Printf("Created role %s\n", name)
			return nil
		}
		pterm.Success.Printf("Created role %s (id %s)\n", role.Name, role.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().BoolVar(&createDisabled, "disabled", false, "Create the role disabled")
}
