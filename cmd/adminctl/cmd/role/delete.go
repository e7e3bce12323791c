package role

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/prompt"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		if err := requireAdmin(cmd.Context()); err != nil {
			return err
		}

		ok, err := prompt.Confirm(cfg.NonInteractive, deleteYes, fmt.Sprintf("Delete role %s?", args[0]))
		if err != nil {
			return err
		}
		if !ok {
			pterm.Info.Println("Aborted")
			return nil
		}

		api, err := rolesAPI(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		if err := api.Delete(ctx, sdk.EntityID(args[0])); err != nil {
			return fmt.Errorf("failed to delete role %s: %w", args[0], err)
		}
		pterm.Success.Printf("Deleted role %s\n", args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
