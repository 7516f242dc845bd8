package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// markOnlyFlag records migrations as applied or rolled back without running them.
func markOnlyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "mark-only",
		Usage: "Only update the migration table without running the migrations",
	}
}

// MigrationCommands returns the schema migration commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Create the migration tables",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return deps.Migrator.Init(ctx)
			},
		},
		{
			Name:   "migrate",
			Usage:  "Apply pending ledger migrations",
			Flags:  []cli.Flag{markOnlyFlag()},
			Action: handleMigrate(deps),
		},
		{
			Name:   "rollback",
			Usage:  "Roll back the last migration group",
			Flags:  []cli.Flag{markOnlyFlag()},
			Action: handleRollback(deps),
		},
		{
			Name:   "status",
			Usage:  "List migrations and whether they are applied",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new Go migration file",
			ArgsUsage: "NAME",
			Action:    handleCreate(deps),
		},
	}
}

func migrationOptions(c *cli.Command) []migrate.MigrationOption {
	if c.Bool("mark-only") {
		return []migrate.MigrationOption{migrate.WithNopMigration()}
	}

	return nil
}

// withMigratorLock runs fn while holding the migration table lock.
func withMigratorLock(ctx context.Context, deps *CLIDependencies, fn func() error) error {
	if err := deps.Migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

	return fn()
}

func handleMigrate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		return withMigratorLock(ctx, deps, func() error {
			group, err := deps.Migrator.Migrate(ctx, migrationOptions(c)...)
			if err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}

			if group.IsZero() {
				deps.Logger.Info("Ledger schema is up to date")
				return nil
			}

			deps.Logger.Info("Applied migrations",
				zap.String("group", group.String()),
				zap.Bool("mark_only", c.Bool("mark-only")))

			return nil
		})
	}
}

func handleRollback(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		return withMigratorLock(ctx, deps, func() error {
			group, err := deps.Migrator.Rollback(ctx, migrationOptions(c)...)
			if err != nil {
				return fmt.Errorf("failed to roll back: %w", err)
			}

			if group.IsZero() {
				deps.Logger.Info("Nothing to roll back")
				return nil
			}

			deps.Logger.Info("Rolled back migrations",
				zap.String("group", group.String()),
				zap.Bool("mark_only", c.Bool("mark-only")))

			return nil
		})
	}
}

func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to load migration status: %w", err)
		}

		PrintMigrationStatus(c.Root().Writer, ms)

		return nil
	}
}

// PrintMigrationStatus writes one line per migration followed by a summary.
func PrintMigrationStatus(w io.Writer, ms migrate.MigrationSlice) {
	pending := 0

	for _, m := range ms {
		if !m.IsApplied() {
			pending++
			fmt.Fprintf(w, "%-40s pending\n", m.Name)

			continue
		}

		fmt.Fprintf(w, "%-40s group %d at %s\n", m.Name, m.GroupID, m.MigratedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(w, "%d migrations, %d pending\n", len(ms), pending)
}

func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, c.Args().First())
		if err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}

		fmt.Fprintf(c.Root().Writer, "Created %s\n", mf.Path)

		return nil
	}
}
