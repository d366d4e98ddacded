/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tasklane/apiserver/internal/server"
	"github.com/tasklane/apiserver/internal/services"
	"github.com/tasklane/apiserver/internal/storage"
)

var exportEmail string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's tasks to object storage",
	Long: `Writes a JSON snapshot of every task owned by a user to the configured
object store (STORAGE_BACKEND=minio|gcs). Usage:

	tasklane export --email alice@x.io
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportEmail == "" {
			return errors.New("--email is required")
		}
		cfg, logger := loadRuntime()
		ctx := cmd.Context()

		repos, dbConn, err := server.OpenRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		if dbConn != nil {
			defer dbConn.Close()
		}

		objects, err := storage.NewFromConfig(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer objects.Close()

		exporter := services.NewExportService(repos.Users, repos.Tasks, objects, cfg.Storage.Prefix, logger)
		result, err := exporter.Export(ctx, exportEmail)
		if err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{
			"bucket": objects.Bucket(),
			"key":    result.Key,
			"tasks":  result.Tasks,
			"bytes":  result.Bytes,
		}).Info("export written")
		fmt.Fprintln(cmd.OutOrStdout(), result.Key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportEmail, "email", "", "email of the user to export")
}
