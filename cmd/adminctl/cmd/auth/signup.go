package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/prompt"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var signUpFlags struct {
	username      string
	email         string
	firstName     string
	lastName      string
	phone         string
	passwordStdin bool
}

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new account",
	Long: `Registers a new account on the backend. Signing up does not log you in;
run 'adminctl auth login' afterwards.`,
	Example: `  adminctl auth signup --username jo --email jo@example.com
  echo "$PASSWORD" | adminctl auth signup -u jo --email jo@example.com --password-stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		req, err := collectSignUp(cfg.NonInteractive)
		if err != nil {
			return err
		}

		manager, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		user, err := manager.SignUp(ctx, req)
		if err != nil {
			return fmt.Errorf("sign-up failed: %w", err)
		}

		pterm.Success.Printf("Created account %s (id %s)\n", user.Username, user.ID)
		pterm.Info.Println("Run 'adminctl auth login' to sign in.")
		return nil
	},
}

func collectSignUp(nonInteractive bool) (sdk.CreateUserRequest, error) {
	req := sdk.CreateUserRequest{
		Username:  signUpFlags.username,
		Email:     signUpFlags.email,
		FirstName: signUpFlags.firstName,
		LastName:  signUpFlags.lastName,
		Phone:     signUpFlags.phone,
	}

	ask := func(dst *string, label string) error {
		if *dst != "" {
			return nil
		}
		v, err := prompt.Text(nonInteractive, label)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
	if err := ask(&req.Username, "Username"); err != nil {
		return req, err
	}
	if err := ask(&req.Email, "Email"); err != nil {
		return req, err
	}

	if signUpFlags.passwordStdin {
		password, err := prompt.ReadSecret(os.Stdin)
		if err != nil {
			return req, err
		}
		req.Password = password
		return req, nil
	}

	password, err := prompt.Password(nonInteractive, "Password")
	if err != nil {
		return req, err
	}
	confirm, err := prompt.Password(nonInteractive, "Confirm password")
	if err != nil {
		return req, err
	}
	if password != confirm {
		return req, fmt.Errorf("passwords do not match")
	}
	req.Password = password
	return req, nil
}

func init() {
	signUpCmd.Flags().StringVarP(&signUpFlags.username, "username", "u", "", "Username for the new account")
	signUpCmd.Flags().StringVar(&signUpFlags.email, "email", "", "Email address")
	signUpCmd.Flags().StringVar(&signUpFlags.firstName, "first-name", "", "First name")
	signUpCmd.Flags().StringVar(&signUpFlags.lastName, "last-name", "", "Last name")
	signUpCmd.Flags().StringVar(&signUpFlags.phone, "phone", "", "Phone number")
	signUpCmd.Flags().BoolVar(&signUpFlags.passwordStdin, "password-stdin", false, "Read the password from stdin")
}
