package user

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

// UserCmd is the parent command for user administration
var UserCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long:  `Commands for listing, inspecting, editing and removing user accounts. Requires the admin role.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		return cfg.ClientProvider.RequireRole(cmd.Context(), sdk.AdminRoleName)
	},
}

func init() {
	UserCmd.AddCommand(listCmd)
	UserCmd.AddCommand(getCmd)
	UserCmd.AddCommand(updateCmd)
	UserCmd.AddCommand(deleteCmd)
}

type apis struct {
	users *sdk.UsersAPI
	roles *sdk.RolesAPI
}

func userAPIs(ctx context.Context) (*apis, error) {
	cfg := config.MustFromContext(ctx)
	client, err := cfg.ClientProvider.SDKClient(ctx)
	if err != nil {
		return nil, err
	}
	return &apis{users: sdk.NewUsersAPI(client), roles: sdk.NewRolesAPI(client)}, nil
}

// roleLabeler names a user's role from the catalogue, fetched once.
type roleLabeler struct {
	roles []sdk.APIRole
}

func newRoleLabeler(ctx context.Context, api *sdk.RolesAPI) *roleLabeler {
	// Without a catalogue, labels fall back to local resolution.
	roles, _ := api.List(ctx)
	return &roleLabeler{roles: roles}
}

func (l *roleLabeler) label(u *sdk.APIUser) string {
	return sdk.RoleLabel(sdk.ResolveRoleName(u.RoleRef(), l.roles))
}
