/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tasklane/apiserver/config"
	"github.com/tasklane/apiserver/internal/db"
)

var migrateDownSteps int

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadRuntime()
		migrator, err := newMigrator(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = migrator.Close()
		}()

		if err := migrator.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				logger.Info("schema already up to date")
				return nil
			}
			return fmt.Errorf("migrate up failed: %w", err)
		}
		logVersion(logger, migrator, "migrated up")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long: `Roll back the given number of migrations. Usage:

	tasklane migrate down --steps 1
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDownSteps < 1 {
			return errors.New("--steps must be at least 1")
		}
		cfg, logger := loadRuntime()
		migrator, err := newMigrator(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = migrator.Close()
		}()

		if err := migrator.Steps(-migrateDownSteps); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				return nil
			}
			return fmt.Errorf("migrate down failed: %w", err)
		}
		logVersion(logger, migrator, "migrated down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)

	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
}

func newMigrator(cfg config.Config) (*migrate.Migrate, error) {
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("migrations require DB_DRIVER=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
	}
	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations dir: %w", err)
	}
	migrator, err := migrate.New("file://"+filepath.ToSlash(dir), db.PostgresURL(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return migrator, nil
}

func logVersion(logger logrus.FieldLogger, migrator *migrate.Migrate, msg string) {
	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.WithError(err).Warn("could not read schema version")
		return
	}
	logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info(msg)
}
