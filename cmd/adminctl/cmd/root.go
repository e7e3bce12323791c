package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Pachada/ReactBase/cmd/adminctl/cmd/auth"
	"github.com/Pachada/ReactBase/cmd/adminctl/cmd/role"
	"github.com/Pachada/ReactBase/cmd/adminctl/cmd/statuses"
	"github.com/Pachada/ReactBase/cmd/adminctl/cmd/user"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/client"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/config"
	"github.com/Pachada/ReactBase/cmd/adminctl/internal/logging"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

// closeTimeout bounds how long Execute waits for background logout calls.
const closeTimeout = 5 * time.Second

var (
	envFile        string
	serverURL      string
	bearerToken    string
	storeKind      string
	redisAddr      string
	stateDir       string
	logLevel       string
	nonInteractive bool

	provider *client.Provider
)

var rootCmd = &cobra.Command{
	Use:   "adminctl",
	Short: "ReactBase admin CLI",
	Long: `adminctl signs in to a ReactBase backend and manages its roles, users
and statuses. Sessions are kept on disk (or in redis with --store redis) and
expired access tokens are refreshed automatically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		cfg.Logger = logging.New(os.Stderr, cfg.LogLevel)
		provider = client.NewProvider(client.Options{
			ServerURL:     cfg.ServerURL,
			Token:         cfg.Token,
			Store:         cfg.Store,
			StateDir:      cfg.StateDir,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
			Logger:        cfg.Logger,
		})
		cfg.ClientProvider = provider

		ctx := config.InjectConfig(cmd.Context(), cfg)
		ctx = logging.IntoContext(ctx, cfg.Logger)
		cmd.SetContext(ctx)
		return nil
	},
}

// applyFlags lets flags given on the command line override the environment.
func applyFlags(cmd *cobra.Command, cfg *config.GlobalConfig) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = serverURL
	}
	if flags.Changed("token") {
		cfg.Token = bearerToken
	}
	if flags.Changed("store") {
		cfg.Store = storeKind
	}
	if flags.Changed("redis-addr") {
		cfg.RedisAddr = redisAddr
	}
	if flags.Changed("state-dir") {
		cfg.StateDir = stateDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("non-interactive") {
		cfg.NonInteractive = nonInteractive
	}
}

// Execute runs the root command
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())

	if provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if closeErr := provider.Close(ctx); closeErr != nil {
			pterm.Warning.Printf("cleanup incomplete: %v\n", closeErr)
		}
		cancel()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

func describeError(err error) string {
	switch {
	case errors.Is(err, sdk.ErrSessionExpired):
		return "Error: your session has expired; please run `adminctl auth login`"
	case sdk.IsStatus(err, http.StatusForbidden):
		return fmt.Sprintf("Error: permission denied: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func init() {
	// Parent hooks run before a subcommand's own PersistentPreRunE.
	cobra.EnableTraverseRunHooks = true

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file read before the environment")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", config.DefaultServerURL, "ReactBase API server URL (env "+config.EnvServerURL+")")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "Bearer token that bypasses the stored session (env "+config.EnvToken+")")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", config.StoreFile, "Credential storage: file or redis (env "+config.EnvStore+")")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", config.DefaultRedisAddr, "Redis address for --store redis (env "+config.EnvRedisAddr+")")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Directory for file credential storage (default ~/.adminctl)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error, off")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via "+config.EnvNonInteractive+"=1)")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(role.RoleCmd)
	rootCmd.AddCommand(user.UserCmd)
	rootCmd.AddCommand(statuses.StatusesCmd)
}
