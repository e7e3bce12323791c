package user

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var updateFlags struct {
	username  string
	email     string
	phone     string
	firstName string
	lastName  string
	birthday  string
	roleID    string
	enable    bool
	disable   bool
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a user account",
	Long: `Edits a user account. Only the fields passed as flags are changed.

Example:
  adminctl user update 7 --role-id 3 --enable`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		input, err := buildUpdate(cmd.Flags())
		if err != nil {
			return err
		}

		api, err := userAPIs(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		if _, err := api.users.Update(ctx, sdk.EntityID(args[0]), input); err != nil {
			return fmt.Errorf("failed to update user %s: %w", args[0], err)
		}
		pterm.Success.Printf("Updated user %s\n", args[0])
		return nil
	},
}

// buildUpdate turns the flags that were set into a partial update.
func buildUpdate(flags *pflag.FlagSet) (sdk.UpdateUserRequest, error) {
	var input sdk.UpdateUserRequest
	changed := false

	str := func(name string, value string, dst **string) {
		if flags.Changed(name) {
			v := value
			*dst = &v
			changed = true
		}
	}
	str("username", updateFlags.username, &input.Username)
	str("email", updateFlags.email, &input.Email)
	str("phone", updateFlags.phone, &input.Phone)
	str("first-name", updateFlags.firstName, &input.FirstName)
	str("last-name", updateFlags.lastName, &input.LastName)
	str("birthday", updateFlags.birthday, &input.Birthday)

	if flags.Changed("role-id") {
		id := sdk.EntityID(updateFlags.roleID)
		input.RoleID = &id
		changed = true
	}

	enable, disable := flags.Changed("enable"), flags.Changed("disable")
	if enable && disable {
		return input, fmt.Errorf("--enable and --disable are mutually exclusive")
	}
	if enable || disable {
		input.Enable = &enable
		changed = true
	}

	if !changed {
		return input, fmt.Errorf("nothing to update: pass at least one field flag")
	}
	return input, sdk.ValidateUserUpdate(&input)
}

func bindUpdateFlags(fs *pflag.FlagSet) {
	fs.StringVar(&updateFlags.username, "username", "", "New username")
	fs.StringVar(&updateFlags.email, "email", "", "New email")
	fs.StringVar(&updateFlags.phone, "phone", "", "New phone number")
	fs.StringVar(&updateFlags.firstName, "first-name", "", "New first name")
	fs.StringVar(&updateFlags.lastName, "last-name", "", "New last name")
	fs.StringVar(&updateFlags.birthday, "birthday", "", "New birthday (YYYY-MM-DD)")
	fs.StringVar(&updateFlags.roleID, "role-id", "", "New role id")
	fs.BoolVar(&updateFlags.enable, "enable", false, "Enable the account")
	fs.BoolVar(&updateFlags.disable, "disable", false, "Disable the account")
}

func init() {
	bindUpdateFlags(updateCmd.Flags())
}
