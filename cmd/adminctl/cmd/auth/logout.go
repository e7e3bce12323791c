package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of ReactBase",
	Long: `Clears the stored session and asks the server to end it. The local
session is always cleared, even when the server cannot be reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		if manager.User() == nil {
			pterm.Info.Println("Not logged in")
			return nil
		}

		manager.Logout(cmd.Context())
		pterm.Success.Println("Logged out successfully")
		return nil
	},
}
