package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
)

var (
	shellFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the access token for scripts",
	Long: `Export the current access token as ADMINCTL_TOKEN.

Scripts and CI jobs that run adminctl with the exported variable use the
token directly instead of the stored session. An expired token is
refreshed first.

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  # POSIX shells (bash/zsh/sh)
  eval $(adminctl auth export)

  # Fish shell
  eval (adminctl auth export --shell fish)

  # PowerShell
  adminctl auth export --shell powershell | Invoke-Expression`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.MustFromContext(cmd.Context())

	manager, err := sessionManager(cmd.Context())
	if err != nil {
		return err
	}

	session := manager.Session()
	if !session.IsAuthenticated() {
		return errors.New("not logged in\n\nPlease run 'adminctl auth login' first")
	}

	token := session.AccessToken
	if session.IsExpired() {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()
		token, err = manager.Refresh(ctx)
		if err != nil || token == "" {
			manager.OnSessionExpired(cmd.Context())
			return errors.New("access token has expired and could not be refreshed\n\nPlease run 'adminctl auth login'")
		}
	}

	// Auto-detect shell if not specified
	format := shellFormat
	if format == "" {
		format = detectShell()
	}

	return writeExport(os.Stdout, isTerminal(os.Stdout), strings.ToLower(format), token)
}

func writeExport(w io.Writer, interactive bool, format, token string) error {
	var hint, line string
	switch format {
	case "posix", "bash", "zsh", "sh":
		hint = "eval $(adminctl auth export)"
		line = fmt.Sprintf("export %s=%q\n", config.EnvToken, token)
	case "fish":
		hint = "eval (adminctl auth export --shell fish)"
		line = fmt.Sprintf("set -x %s %q\n", config.EnvToken, token)
	case "powershell", "pwsh", "ps1":
		hint = "adminctl auth export --shell powershell | Invoke-Expression"
		line = fmt.Sprintf("$env:%s=%q\n", config.EnvToken, token)
	default:
		return fmt.Errorf("unsupported shell format: %s\n\nSupported formats: posix, fish, powershell", format)
	}

	// Only print instructions if stdout is a TTY (interactive mode, not being piped/eval'd)
	if interactive {
		fmt.Fprintln(os.Stderr, "# Run this command to configure your environment:")
		fmt.Fprintf(os.Stderr, "#   %s\n\n", hint)
	}
	_, err := io.WriteString(w, line)
	return err
}

// detectShell attempts to detect the current shell from the SHELL environment variable
func detectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "posix"
	}

	switch filepath.Base(shell) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		return "posix"
	}
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
