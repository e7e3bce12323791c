package user

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		api, err := userAPIs(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		u, err := api.users.Get(ctx, sdk.EntityID(args[0]))
		if err != nil {
			return fmt.Errorf("failed to get user %s: %w", args[0], err)
		}
		if u == nil {
			return fmt.Errorf("user %s not found", args[0])
		}

		labeler := newRoleLabeler(ctx, api.roles)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID:\t%s\n", u.ID)
		fmt.Fprintf(w, "Username:\t%s\n", u.Username)
		fmt.Fprintf(w, "Name:\t%s\n", u.DisplayName())
		fmt.Fprintf(w, "Email:\t%s (confirmed: %t)\n", u.Email, u.EmailConfirmed)
		fmt.Fprintf(w, "Phone:\t%s (confirmed: %t)\n", deref(u.Phone), u.PhoneConfirmed)
		fmt.Fprintf(w, "Birthday:\t%s\n", deref(u.Birthday))
		fmt.Fprintf(w, "Role:\t%s\n", labeler.label(u))
		fmt.Fprintf(w, "Enabled:\t%t\n", u.Enable)
		fmt.Fprintf(w, "Verified:\t%t\n", u.Verified)
		fmt.Fprintf(w, "Created:\t%s\n", orDash(u.Created))
		fmt.Fprintf(w, "Updated:\t%s\n", orDash(u.Updated))
		return w.Flush()
	},
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
