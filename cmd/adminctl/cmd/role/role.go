package role

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

// RoleCmd is the parent command for role operations
var RoleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles",
	Long:  `Commands for listing and editing the roles users can be assigned.`,
}

func init() {
	RoleCmd.AddCommand(listCmd)
	RoleCmd.AddCommand(createCmd)
	RoleCmd.AddCommand(updateCmd)
	RoleCmd.AddCommand(deleteCmd)
}

func rolesAPI(ctx context.Context) (*sdk.RolesAPI, error) {
	cfg := config.MustFromContext(ctx)
	client, err := cfg.ClientProvider.SDKClient(ctx)
	if err != nil {
		return nil, err
	}
	return sdk.NewRolesAPI(client), nil
}

func requireAdmin(ctx context.Context) error {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.RequireRole(ctx, sdk.AdminRoleName)
}
