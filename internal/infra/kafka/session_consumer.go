package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/config"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/logger"
)

// SessionForgetter drops the locally cached session of a scope.
type SessionForgetter interface {
	Forget(scope string) bool
}

// SessionEventConsumer applies logout and expiry events published by other replicas to the
// local session cache.
type SessionEventConsumer struct {
	sessions SessionForgetter
	replica  string
	logger   *zap.Logger
}

// NewSessionEventConsumer constructs a consumer. Events stamped with replica are ignored.
func NewSessionEventConsumer(sessions SessionForgetter, replica string, log *zap.Logger) *SessionEventConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionEventConsumer{sessions: sessions, replica: replica, logger: log}
}

// HandleMessage decodes a Kafka message and applies it.
func (c *SessionEventConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("decode session event: %w", err)
	}
	if c.replica != "" && envelope.Metadata["replica"] == c.replica {
		return nil
	}

	return c.HandleEvent(ctx, envelope.Payload)
}

// HandleEvent forgets the scope on logout and expiry.
func (c *SessionEventConsumer) HandleEvent(_ context.Context, event domain.SessionEvent) error {
	switch event.Kind {
	case domain.SessionEventLogout, domain.SessionEventExpired:
	default:
		return nil
	}
	if event.Scope == "" {
		return fmt.Errorf("session event %s has no scope", event.EventID)
	}

	if c.sessions.Forget(event.Scope) {
		c.logger.Info("Session dropped after remote event",
			zap.String("kind", string(event.Kind)),
			zap.String("scope", logger.MaskSecret(event.Scope)),
		)
	}
	return nil
}

// Setup is part of sarama.ConsumerGroupHandler.
func (c *SessionEventConsumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup is part of sarama.ConsumerGroupHandler.
func (c *SessionEventConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim applies every message of the claim and marks it consumed. Malformed
// messages are logged and skipped.
func (c *SessionEventConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.HandleMessage(session.Context(), msg); err != nil {
				c.logger.Warn("Skipping session event", zap.Error(err), zap.Int64("offset", msg.Offset))
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// RunSessionConsumer joins a replica-specific consumer group on the session topic so every
// replica receives every event, and blocks until ctx is done.
func RunSessionConsumer(ctx context.Context, cfg config.KafkaSettings, replica string, handler *SessionEventConsumer, log *zap.Logger) error {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, "sipeduli-console-"+replica, saramaConfig())
	if err != nil {
		return fmt.Errorf("create kafka consumer group: %w", err)
	}
	defer group.Close()

	go func() {
		for err := range group.Errors() {
			log.Warn("Kafka consumer error", zap.Error(err))
		}
	}()

	topics := []string{topicName(cfg.TopicPrefix, SessionEventsTopic)}
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume session events: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
