package ports

import (
	"context"

	"github.com/medicore/clinic-portal/internal/core/domain"
)

// SessionEventRepository persists the session audit trail.
type SessionEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.SessionEvent) error
}

// EventSink receives session events without blocking the publisher.
type EventSink interface {
	Enqueue(event domain.SessionEvent)
}

// AuditService processes one session event.
type AuditService interface {
	Process(ctx context.Context, event domain.SessionEvent) error
}
