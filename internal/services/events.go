package services

import (
	"context"
	"log/slog"
)

// Lifecycle event names.
const (
	EventUserRegistered = "user.registered"
	EventUserDeleted    = "user.deleted"
	EventTaskCreated    = "task.created"
	EventTaskUpdated    = "task.updated"
	EventTaskDeleted    = "task.deleted"
)

// EventPublisher delivers lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{}) error
}

// publish sends an event if a publisher is configured. Delivery failures are
// logged and never fail the operation that produced the event.
func publish(ctx context.Context, p EventPublisher, eventType string, data map[string]interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, data); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "event", eventType, "error", err)
	}
}
