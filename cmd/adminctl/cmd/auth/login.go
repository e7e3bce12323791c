package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/prompt"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

// Environment variables consulted by login when flags are absent.
const (
	envUsername = "ADMINCTL_USERNAME"
	envPassword = "ADMINCTL_PASSWORD"
)

var (
	loginUsername      string
	loginPasswordStdin bool
	loginRemember      bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to ReactBase",
	Long: `Signs in with a username and password.

With --remember the session is kept until you log out; otherwise it lapses
after 30 minutes without use.

Credentials are taken from, in order:
  - --username and --password-stdin
  - ADMINCTL_USERNAME and ADMINCTL_PASSWORD
  - interactive prompts (unless --non-interactive)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		creds, err := collectCredentials(cfg.NonInteractive)
		if err != nil {
			return err
		}

		manager, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		user, err := manager.Login(ctx, creds, loginRemember)
		if err != nil {
			if sdk.IsStatus(err, http.StatusUnauthorized) {
				return fmt.Errorf("login failed: invalid username or password")
			}
			return fmt.Errorf("login failed: %w", err)
		}

		pterm.Success.Printf("Logged in as %s (%s)\n", user.Name, sdk.RoleLabel(user.RoleName))
		if !loginRemember {
			pterm.Info.Println("Session is not remembered; it ends after 30 minutes of inactivity.")
		}
		return nil
	},
}

func collectCredentials(nonInteractive bool) (sdk.LoginCredentials, error) {
	var creds sdk.LoginCredentials

	creds.Username = strings.TrimSpace(loginUsername)
	if creds.Username == "" {
		creds.Username = strings.TrimSpace(os.Getenv(envUsername))
	}
	if creds.Username == "" {
		username, err := prompt.Text(nonInteractive, "Username")
		if err != nil {
			return creds, err
		}
		creds.Username = username
	}

	switch {
	case loginPasswordStdin:
		password, err := prompt.ReadSecret(os.Stdin)
		if err != nil {
			return creds, err
		}
		creds.Password = password
	case os.Getenv(envPassword) != "":
		creds.Password = os.Getenv(envPassword)
	default:
		password, err := prompt.Password(nonInteractive, "Password")
		if err != nil {
			return creds, err
		}
		creds.Password = password
	}

	if creds.Username == "" || creds.Password == "" {
		return creds, fmt.Errorf("username and password are required")
	}
	return creds, nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username to sign in with")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Keep the session until logout")
}
