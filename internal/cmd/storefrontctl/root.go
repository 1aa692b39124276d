// Package storefrontctl implements the storefront admin command line.
package storefrontctl

import (
	"context"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/storefront/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/storefront/internal/platform/grpc"
	"github.com/louisbranch/storefront/internal/platform/timeouts"
	"github.com/louisbranch/storefront/internal/services/storefront/app"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/account"
	"github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite"
	"github.com/spf13/cobra"
)

// Env supplies flag defaults from the same variables the server reads.
type Env struct {
	DBPath        string        `env:"STOREFRONT_DB_PATH" envDefault:"data/storefront.db"`
	HealthAddr    string        `env:"STOREFRONT_HEALTH_ADDR" envDefault:"localhost:8081"`
	HealthTimeout time.Duration `env:"STOREFRONT_HEALTH_TIMEOUT" envDefault:"2s"`
}

var defaultEnv = Env{DBPath: "data/storefront.db", HealthAddr: "localhost:8081", HealthTimeout: timeouts.GRPCDial}

// loadEnv reads Env. On error it returns the built-in defaults with the
// error so commands can refuse to run.
func loadEnv() (Env, error) {
	var env Env
	if err := entrypoint.ParseConfig(&env); err != nil {
		return defaultEnv, fmt.Errorf("read environment: %w", err)
	}
	return env, nil
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath string
}

// NewRootCommand builds the storefrontctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	env, envErr := loadEnv()

	cmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Administer a storefront database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return envErr
		},
	}
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", env.DBPath, "storefront SQLite database path")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newRoleCommand(opts, "grant-admin", account.RoleAdmin))
	cmd.AddCommand(newRoleCommand(opts, "revoke-admin", account.RoleUser))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newHealthCommand(env.HealthAddr, env.HealthTimeout))
	return cmd
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applied, err := sqlite.Migrate(cmd.Context(), opts.DBPath)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

func newRoleCommand(opts *RootOptions, use, role string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: fmt.Sprintf("Set a user's role to %s", role),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.Open(opts.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			accounts := account.NewService(store, 0)
			user, err := accounts.GetByEmail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("find %s: %w", args[0], err)
			}
			updated, err := accounts.SetRole(cmd.Context(), user.ID, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Email, updated.Role)
			return nil
		},
	}
}

func newHealthCommand(defaultAddr string, defaultTimeout time.Duration) *cobra.Command {
	var addr string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running storefront's gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := platformgrpc.Probe(cmd.Context(), addr, app.HealthService, timeout, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SERVING")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "health endpoint address")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "probe timeout")
	return cmd
}
