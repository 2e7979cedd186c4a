package main

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/erp/purchasing/internal/infrastructure/logger"
	"github.com/erp/purchasing/internal/infrastructure/migration"
	"github.com/go-extras/cobraflags"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const descriptionFlag = "description"

var createFlags = map[string]cobraflags.Flag{
	descriptionFlag: &cobraflags.StringFlag{
		Name:  descriptionFlag,
		Value: "",
		Usage: "Description written into the migration header",
	},
}

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
		Long: `Apply or inspect the purchasing schema with golang-migrate.

Examples:
  purchasing migrate up                 # apply all pending migrations
  purchasing migrate steps -1           # roll back one migration
  purchasing migrate force 20261018090000
  purchasing migrate create add_supplier_index --description "Index orders by supplier"`,
	}
	cmd.PersistentFlags().StringVar(&opts.migrationsDir, "path", "", "Path to the migrations directory (default from config: migrations)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, func(_ *cobra.Command, m *migration.Migrator, _ []string) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, func(_ *cobra.Command, m *migration.Migrator, _ []string) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or roll back when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(opts, func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q: %w", args[0], err)
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to VERSION",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(opts, func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return m.GoTo(uint(v))
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(opts, func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return m.Force(v)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
			}),
		},
		newMigrateCreateCommand(opts),
	)
	return cmd
}

func newMigrateCreateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()

			dir := migrationsPath(opts, cfg.Migrations.Path)
			f, err := migration.Create(dir, args[0], createFlags[descriptionFlag].GetString(), time.Now())
			if err != nil {
				return err
			}
			log.Info("Migration created", zap.String("up", f.UpPath), zap.String("down", f.DownPath))
			return printJSON(cmd.OutOrStdout(), f)
		},
	}
	cobraflags.RegisterMap(cmd, createFlags)
	return cmd
}

func migrationsPath(opts *globalOptions, configured string) string {
	if opts.migrationsDir != "" {
		return opts.migrationsDir
	}
	return configured
}

// withMigrator opens a plain database/sql connection for golang-migrate and
// hands a Migrator to fn.
func withMigrator(opts *globalOptions, fn func(cmd *cobra.Command, m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfigAndLogger(opts)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync(log) }()

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		m, err := migration.New(db, migrationsPath(opts, cfg.Migrations.Path), log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()

		return fn(cmd, m, args)
	}
}
