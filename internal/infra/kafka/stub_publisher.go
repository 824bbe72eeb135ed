package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/logger"
)

// StubPublisher logs session events instead of sending them. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubPublisher{logger: log}
}

// PublishSessionEvent logs the event.
func (p *StubPublisher) PublishSessionEvent(_ context.Context, event domain.SessionEvent) error {
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType(event.Kind)),
		zap.String("scope", logger.MaskSecret(event.Scope)),
		zap.String("user_id", event.UserID),
		zap.Time("timestamp", at.UTC()),
		zap.String("reason", event.Reason),
	)
	return nil
}

var _ port.SessionEventPublisher = (*StubPublisher)(nil)
