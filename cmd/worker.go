package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	activityAMQP "github.com/frahmantamala/group-expenses/internal/activity/amqp"
	"github.com/frahmantamala/group-expenses/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume committed activities from the message broker",
	Long:  `Consume the activities the server forwards to RabbitMQ and log each one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startActivityWorker()
	},
}

func startActivityWorker() error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	if !cfg.Messaging.Enabled {
		return errors.New("messaging is disabled; set messaging.enabled to run the worker")
	}

	client, err := activityAMQP.NewClient(cfg.Messaging.URL, cfg.Messaging.Exchange, cfg.Messaging.Queue, lg)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("Activity worker is running. Press Ctrl+C to stop.", "queue", cfg.Messaging.Queue)
	err = client.ConsumeActivities(ctx, logActivity(lg))
	if errors.Is(err, context.Canceled) {
		lg.Info("Activity worker stopped")
		return nil
	}
	return err
}

func logActivity(lg *slog.Logger) func(context.Context, *activityAMQP.ActivityMessage) error {
	return func(ctx context.Context, msg *activityAMQP.ActivityMessage) error {
		lg.InfoContext(ctx, "Activity received",
			"event_id", msg.EventID,
			"type", msg.Type,
			"activity_id", msg.ActivityID,
			"group_id", msg.GroupID,
			"expense_id", msg.ExpenseID,
			"transaction_id", msg.TransactionID,
			"occurred_at", msg.Timestamp)
		return nil
	}
}
