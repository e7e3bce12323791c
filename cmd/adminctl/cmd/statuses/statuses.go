package statuses

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/prompt"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

// StatusesCmd is the parent command for status catalogue operations
var StatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "Manage the status catalogue",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List statuses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		api, err := statusesAPI(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()

		statuses, err := api.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDESCRIPTION")
		for _, status := range statuses {
			fmt.Fprintf(w, "%s\t%s\n", status.ID, status.Description)
		}
		return w.Flush()
	},
}

var createCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Create a status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(ctx context.Context, api *sdk.StatusesAPI) (string, error) {
			description, err := description(args[0])
			if err != nil {
				return "", err
			}
			status, err := api.Create(ctx, sdk.StatusInput{Description: description})
			if err != nil {
				return "", fmt.Errorf("failed to create status: %w", err)
			}
			if status == nil {
				return fmt.Sprintf("Created status %q", description), nil
			}
			return fmt.Sprintf("Created status %q (id %s)", status.Description, status.ID), nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id> <description>",
	Short: "Change a status description",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(ctx context.Context, api *sdk.StatusesAPI) (string, error) {
			description, err := description(args[1])
			if err != nil {
				return "", err
			}
			if _, err := api.Update(ctx, sdk.EntityID(args[0]), sdk.StatusInput{Description: description}); err != nil {
				return "", fmt.Errorf("failed to update status %s: %w", args[0], err)
			}
			return fmt.Sprintf("Updated status %s", args[0]), nil
		})
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		ok, err := prompt.Confirm(cfg.NonInteractive, deleteYes, fmt.Sprintf("Delete status %s?", args[0]))
		if err != nil {
			return err
		}
		if !ok {
			pterm.Info.Println("Aborted")
			return nil
		}

		return mutate(cmd, func(ctx context.Context, api *sdk.StatusesAPI) (string, error) {
			if err := api.Delete(ctx, sdk.EntityID(args[0])); err != nil {
				return "", fmt.Errorf("failed to delete status %s: %w", args[0], err)
			}
			return fmt.Sprintf("Deleted status %s", args[0]), nil
		})
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	StatusesCmd.AddCommand(listCmd)
	StatusesCmd.AddCommand(createCmd)
	StatusesCmd.AddCommand(updateCmd)
	StatusesCmd.AddCommand(deleteCmd)
}

func statusesAPI(ctx context.Context) (*sdk.StatusesAPI, error) {
	cfg := config.MustFromContext(ctx)
	client, err := cfg.ClientProvider.SDKClient(ctx)
	if err != nil {
		return nil, err
	}
	return sdk.NewStatusesAPI(client), nil
}

// mutate runs an admin-only change and reports its outcome.
func mutate(cmd *cobra.Command, fn func(context.Context, *sdk.StatusesAPI) (string, error)) error {
	cfg := config.MustFromContext(cmd.Context())
	if err := cfg.ClientProvider.RequireRole(cmd.Context(), sdk.AdminRoleName); err != nil {
		return err
	}

	api, err := statusesAPI(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	msg, err := fn(ctx, api)
	if err != nil {
		return err
	}
	pterm.Success.Println(msg)
	return nil
}

func description(raw string) (string, error) {
	return sdk.RequireText("description", raw)
}
