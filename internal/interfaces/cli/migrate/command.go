// Package migrate manages the database schema from the command line.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"cdrcgi/internal/infrastructure/config"
	"cdrcgi/internal/infrastructure/database"
	"cdrcgi/internal/infrastructure/migration"
	"cdrcgi/internal/shared/logger"
)

var (
	tier  string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back, and inspect the embedded database schema migrations.`,
	}

	cmd.PersistentFlags().StringVarP(&tier, "tier", "t", "development", "Deployment tier (development, staging, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func initEnv() (*migration.Migrator, error) {
	cfg, err := config.Load(tier)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db, err := database.Connect(database.RoleCDR, 0)
	if err != nil {
		return nil, err
	}

	return migration.NewMigrator(db), nil
}

func runUp(cmd *cobra.Command, args []string) error {
	migrator, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	migrator, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrator.Down(steps); err != nil {
		return fmt.Errorf("down migration failed: %w", err)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	migrator, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrator.Status(); err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	return nil
}
