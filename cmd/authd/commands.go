package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/authkit/app"
	"github.com/kbukum/authkit/auth/keys"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/database"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/store"
	"github.com/kbukum/authkit/version"
)

type globalFlags struct {
	configFile string
	envFile    string
}

func (g *globalFlags) load() (*app.Config, error) {
	var opts []config.LoaderOption
	if g.configFile != "" {
		opts = append(opts, config.WithConfigFile(g.configFile))
	}
	if g.envFile != "" {
		opts = append(opts, config.WithEnvFile(g.envFile))
	}
	return app.Load(opts...)
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "authd",
		Short:         "Account, session and OAuth2 authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.configFile, "config", "", "Path to config.yml (default: ./cmd/authd/config.yml, ./config.yml)")
	cmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Path to a .env file")

	cmd.AddCommand(
		newServeCommand(g),
		newMigrateCommand(g),
		newKeysCommand(g),
		newRolesCommand(g),
		newVersionCommand(),
	)
	return cmd
}

func newServeCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}

func newMigrateCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), g, func(_ context.Context, st *store.Store, log *logger.Logger) error {
				if err := st.Migrate(); err != nil {
					return err
				}
				log.Info("Schema migrated")
				return nil
			})
		},
	}
}

func newKeysCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Signing key management",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Generate the access and refresh key sets if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			km, err := keys.NewManager(cfg.Keys, logger.New(&cfg.Logging, cfg.Name))
			if err != nil {
				return err
			}
			if err := km.Load(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "algorithm: %s\n", km.Algorithm())
			for _, p := range []keys.Purpose{keys.Access, keys.Refresh} {
				fmt.Fprintf(out, "%s: %s\n", p, strings.Join(km.Files(p), ", "))
			}
			return nil
		},
	})
	return cmd
}

func newRolesCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Account role management",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var email, role string
	assign := &cobra.Command{
		Use:   "assign",
		Short: "Assign a role to the account with the given email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			role = strings.ToUpper(role)
			if !slices.Contains([]string{store.RoleAdmin, store.RoleNormal}, role) {
				return fmt.Errorf("unknown role %q (want %s or %s)", role, store.RoleAdmin, store.RoleNormal)
			}
			return withStore(cmd.Context(), g, func(ctx context.Context, st *store.Store, log *logger.Logger) error {
				account, err := st.Accounts.FindByEmail(ctx, email)
				if err != nil {
					return err
				}
				if err := st.Roles.Assign(ctx, account.ID, role); err != nil {
					return err
				}
				log.Info("Role assigned", logger.Fields(logger.FieldAccountID, account.ID, "role", role))
				return nil
			})
		},
	}
	assign.Flags().StringVar(&email, "email", "", "Account email")
	assign.Flags().StringVar(&role, "role", store.RoleAdmin, "Role name (ADMIN or NORMAL)")
	_ = assign.MarkFlagRequired("email")

	cmd.AddCommand(assign)
	return cmd
}

func newVersionCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func withStore(ctx context.Context, g *globalFlags, fn func(context.Context, *store.Store, *logger.Logger) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	log := logger.New(&cfg.Logging, cfg.Name)
	db, err := database.New(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, store.New(db), log)
}
