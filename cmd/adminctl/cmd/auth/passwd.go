package auth

import (
	"context"
	"errors"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/prompt"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var passwdStdin bool

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		manager, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}
		if manager.User() == nil {
			return errors.New("not logged in; please run `adminctl auth login`")
		}

		password, err := readNewPassword(cfg.NonInteractive)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		if err := sdk.ValidatePassword(password); err != nil {
			return err
		}
		if err := manager.ChangePassword(ctx, password); err != nil {
			return err
		}
		pterm.Success.Println("Password changed")
		return nil
	},
}

func readNewPassword(nonInteractive bool) (string, error) {
	if passwdStdin {
		return prompt.ReadSecret(os.Stdin)
	}

	password, err := prompt.Password(nonInteractive, "New password")
	if err != nil {
		return "", err
	}
	confirm, err := prompt.Password(nonInteractive, "Repeat new password")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func init() {
	passwdCmd.Flags().BoolVar(&passwdStdin, "password-stdin", false, "Read the new password from stdin")
}
