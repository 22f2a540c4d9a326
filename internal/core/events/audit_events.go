package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLoginSucceeded     = "auth.login_succeeded"
	EventTypeLoginFailed        = "auth.login_failed"
	EventTypeCredentialUpgraded = "auth.credential_upgraded"
	EventTypeSessionRevoked     = "session.revoked"
	EventTypeRoleCreated        = "role.created"
	EventTypeRoleUpdated        = "role.updated"
	EventTypeRoleDeleted        = "role.deleted"
	EventTypeUserCreated        = "user.created"
	EventTypeUserUpdated        = "user.updated"
	EventTypeUserDeleted        = "user.deleted"
	EventTypeTenantDeleted      = "tenant.deleted"
	EventTypeCatalogReloaded    = "catalog.reloaded"
)

// AuditEvent records who did what to which subject.
type AuditEvent struct {
	BaseEvent
	ActorID string `json:"actor_id,omitempty"`
	Subject string `json:"subject,omitempty"`
}

func NewAuditEvent(eventType, actorID, subject string, data map[string]interface{}) *AuditEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &AuditEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data:      data,
		},
		ActorID: actorID,
		Subject: subject,
	}
}

// AuditLogger writes every audit event as one structured log line.
func AuditLogger(lg *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		attrs := []any{
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
		}
		if ae, ok := event.(*AuditEvent); ok {
			attrs = append(attrs, "actor_id", ae.ActorID, "subject", ae.Subject)
		}
		attrs = append(attrs, "data", event.Payload())
		lg.InfoContext(ctx, "audit", attrs...)
		return nil
	}
}
