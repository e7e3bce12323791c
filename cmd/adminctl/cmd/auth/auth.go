package auth

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Commands for signing in and out and inspecting the stored session.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(signUpCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(passwdCmd)
	AuthCmd.AddCommand(exportCmd)
}

func sessionManager(ctx context.Context) (*sdk.Manager, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.Manager(ctx)
}
