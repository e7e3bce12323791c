package role

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		api, err := rolesAPI(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		roles, err := api.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list roles: %w", err)
		}
		if len(roles) == 0 {
			pterm.Info.Println("No roles found")
			return nil
		}

		return pterm.DefaultTable.WithHasHeader().WithData(roleTable(roles)).Render()
	},
}

func roleTable(roles []sdk.APIRole) pterm.TableData {
	table := pterm.TableData{{"ID", "NAME", "ENABLED"}}
	for _, role := range roles {
		table = append(table, []string{role.ID.String(), sdk.RoleLabel(role.Name), strconv.FormatBool(role.Enable)})
	}
	return table
}
