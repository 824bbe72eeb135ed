package port

import (
	"context"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

// SessionEventPublisher publishes session lifecycle events to the message bus.
type SessionEventPublisher interface {
	PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error
}
