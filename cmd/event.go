package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	activityAMQP "github.com/frahmantamala/group-expenses/internal/activity/amqp"
	"github.com/frahmantamala/group-expenses/internal/core/events"
	"github.com/frahmantamala/group-expenses/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test activities to the message broker to check the worker pipeline`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [activity-type]",
	Short: "Publish a test activity",
	Long:  `Publish a synthetic activity through the event bus and the broker forwarder`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestActivity(cmd.Context(), args[0])
	},
}

var (
	eventData    string
	eventGroupID int64
)

func publishTestActivity(ctx context.Context, activityType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	if !cfg.Messaging.Enabled {
		return errors.New("messaging is disabled; set messaging.enabled to publish")
	}

	client, err := activityAMQP.NewClient(cfg.Messaging.URL, cfg.Messaging.Exchange, cfg.Messaging.Queue, lg)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer client.Close()

	bus := events.NewEventBus(lg)
	bus.SubscribeAll(client.HandleEvent)

	snapshot, err := json.Marshal(map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})
	if err != nil {
		return err
	}

	var groupID *int64
	if eventGroupID > 0 {
		groupID = &eventGroupID
	}
	event := events.NewActivityRecordedEvent(0, activityType, groupID, nil, nil, nil, snapshot)

	lg.Info("Publishing test activity", "type", activityType, "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("publish test activity: %w", err)
	}

	lg.Info("Test activity published")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Message stored in the activity data")
	publishEventCmd.Flags().Int64Var(&eventGroupID, "group", 0, "Group the activity belongs to")

	eventCmd.AddCommand(publishEventCmd)
}
