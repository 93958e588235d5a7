package service

import (
	"context"

	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/pkg/events"
)

// publishEvent is fire-and-forget: a bus failure is logged and never fails
// the request that produced the event.
func publishEvent(ctx context.Context, publisher events.Publisher, log logger.ILogger, eventType string, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		log.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
