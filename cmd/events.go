/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tasklane/apiserver/internal/mq"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect task events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log task events as they are published",
	Long: `Subscribes to the configured events topic and logs every task event
until interrupted. Usage:

	EVENTS_BACKEND=rabbitmq tasklane events tail
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadRuntime()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := mq.NewFromConfig(ctx, cfg.Events)
		if err != nil {
			return fmt.Errorf("init events backend: %w", err)
		}
		if events == nil {
			return errors.New("EVENTS_BACKEND is not configured")
		}
		defer events.Close()

		logger.WithField("topic", cfg.Events.Topic).Info("tailing task events")
		err = events.Subscribe(ctx, cfg.Events.Topic, func(_ context.Context, msg mq.Message) error {
			event, err := mq.DecodeTaskEvent(msg)
			if err != nil {
				// Undecodable messages are logged and acked.
				logger.WithError(err).Warn("skipping malformed event")
				return nil
			}
			logger.WithFields(logrus.Fields{
				"type":        event.Type,
				"task_id":     event.TaskID,
				"owner_id":    event.OwnerID,
				"occurred_at": event.OccurredAt,
			}).Info("task event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
