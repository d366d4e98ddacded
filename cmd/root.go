/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tasklane/apiserver/config"
	"github.com/tasklane/apiserver/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tasklane",
	Short: "Tasklane personal task-list API",
	Long: `Tasklane serves a per-user task list over HTTP and ships the
operational commands that go with it. Usage:

	tasklane server
	tasklane migrate up
	tasklane export --email alice@x.io
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds the process logger from it.
func loadRuntime() (config.Config, *logrus.Logger) {
	cfg := config.LoadConfig()
	return cfg, logging.New(cfg.Env, cfg.LogLevel)
}
