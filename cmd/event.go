package cmd

import (
	"context"

	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Audit event commands",
	Long:  `Inspect the audit pipeline: publish a test event through the same log subscriber the server uses`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test audit event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventActor   string
	eventSubject string
	eventData    string
)

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	bus.SubscribeAll(events.AuditLogger(lg.With("component", "audit")))

	event := events.NewAuditEvent(eventType, eventActor, eventSubject, map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})
	lg.Info("publishing test event", "event_type", eventType, "event_id", event.ID)

	if err := bus.Publish(ctx, event); err != nil {
		return err
	}
	bus.Wait()
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventActor, "actor", "cli", "actor id recorded on the event")
	publishEventCmd.Flags().StringVar(&eventSubject, "subject", "", "subject id recorded on the event")
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)
}
