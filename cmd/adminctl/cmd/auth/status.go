package auth

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var statusVerify bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		manager, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		session := manager.Session()
		if !session.IsAuthenticated() {
			return fmt.Errorf("not logged in")
		}

		pterm.DefaultSection.Println("Authentication Status")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "User:\t%s (%s)\n", session.User.Name, session.User.Username)
		fmt.Fprintf(w, "Email:\t%s\n", session.User.Email)
		fmt.Fprintf(w, "Role:\t%s\n", sdk.RoleLabel(session.User.RoleName))
		fmt.Fprintf(w, "Server:\t%s\n", cfg.ServerURL)
		fmt.Fprintf(w, "Storage:\t%s\n", storageLabel(manager.RememberMe()))
		fmt.Fprintf(w, "Token expires:\t%s\n", expiryLabel(session))
		w.Flush()

		if !statusVerify {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		env, err := manager.VerifySession(ctx)
		if err != nil {
			return fmt.Errorf("failed to verify session: %w", err)
		}
		if env.Session != nil && !env.Session.Enable {
			pterm.Warning.Println("Server reports the session as disabled")
			return nil
		}
		pterm.Success.Println("Session verified with the server")
		return nil
	},
}

func storageLabel(remembered bool) string {
	if remembered {
		return "remembered until logout"
	}
	return "this session only"
}

func expiryLabel(session sdk.SessionRecord) string {
	switch {
	case session.ExpiresAt.IsZero():
		return "unknown"
	case session.IsExpired():
		return fmt.Sprintf("%s (expired; refreshed on next request)", session.ExpiresAt.Format(time.RFC1123))
	default:
		return session.ExpiresAt.Format(time.RFC1123)
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusVerify, "verify", false, "Ask the server whether the session is still valid")
}
