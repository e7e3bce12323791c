package user

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

var (
	listLimit  int
	listCursor string
	listAll    bool
	listFilter string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	Long: `Lists user accounts one page at a time.

--filter applies a boolean expression to the fetched users, for example:
  adminctl user list --all --filter 'enable == true and role_id == "3"'
  adminctl user list --filter 'username matches "^adm"'

Fields: id, username, email, role_id, role, first_name, last_name, enable,
verified, email_confirmed, phone_confirmed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		api, err := userAPIs(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		users, next, err := fetchUsers(ctx, api.users, sdk.ListUsersParams{Limit: listLimit, Cursor: listCursor}, listAll)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		users, err = sdk.FilterUsers(users, listFilter)
		if err != nil {
			return err
		}

		labeler := newRoleLabeler(ctx, api.roles)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tROLE\tENABLED")
		for i := range users {
			u := &users[i]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), u.Email, labeler.label(u), strconv.FormatBool(u.Enable))
		}
		w.Flush()

		if next != "" {
			pterm.Info.Printf("More users available: --cursor %s\n", next)
		}
		return nil
	},
}

// fetchUsers returns one page, or every page from params.Cursor on when all
// is set. The returned cursor is empty once the listing is exhausted.
func fetchUsers(ctx context.Context, api *sdk.UsersAPI, params sdk.ListUsersParams, all bool) ([]sdk.APIUser, string, error) {
	var users []sdk.APIUser
	for {
		page, err := api.List(ctx, params)
		if err != nil {
			return nil, "", err
		}
		users = append(users, page.Data...)
		if !all || page.NextCursor == "" || page.NextCursor == params.Cursor {
			return users, page.NextCursor, nil
		}
		params.Cursor = page.NextCursor
	}
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Page size")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "Cursor returned by a previous page")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Fetch every page")
	listCmd.Flags().StringVar(&listFilter, "filter", "", "Boolean expression applied to the fetched users")
}
