package role

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var (
	updateName    string
	updateEnable  bool
	updateDisable bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename, enable or disable a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		if err := requireAdmin(cmd.Context()); err != nil {
			return err
		}

		input, err := roleUpdate(updateName, updateEnable, updateDisable)
		if err != nil {
			return err
		}

		api, err := rolesAPI(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		if _, err := api.Update(ctx, sdk.EntityID(args[0]), input); err != nil {
			return fmt.Errorf("failed to update role %s: %w", args[0], err)
		}
		pterm.Success.Printf("Updated role %s\n", args[0])
		return nil
	},
}

func roleUpdate(name string, enable, disable bool) (sdk.RoleInput, error) {
	if enable && disable {
		return sdk.RoleInput{}, fmt.Errorf("--enable and --disable are mutually exclusive")
	}
	if name == "" && !enable && !disable {
		return sdk.RoleInput{}, fmt.Errorf("nothing to update: pass --name, --enable or --disable")
	}

	input := sdk.RoleInput{Name: name}
	if enable || disable {
		input.Enable = &enable
	}
	return input, nil
}

func init() {
	updateCmd.Flags().StringVar(&updateName, "name", "", "New role name")
	updateCmd.Flags().BoolVar(&updateEnable, "enable", false, "Enable the role")
	updateCmd.Flags().BoolVar(&updateDisable, "disable", false, "Disable the role")
}
