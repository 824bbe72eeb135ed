package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher sends session lifecycle events to Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
	replica  string
}

// NewEventPublisher constructs a Kafka-backed session event publisher. replica identifies
// this process so consumers can skip their own events.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, replica string, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, replica: replica, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	UserID    string              `json:"user_id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Version   string              `json:"version"`
	Payload   domain.SessionEvent `json:"payload"`
	Metadata  envelopeMetadata    `json:"metadata,omitempty"`
}

func eventType(kind domain.SessionEventKind) string {
	return "console.session." + string(kind)
}

// PublishSessionEvent enqueues event on the session topic, keyed by scope so that the
// events of one browser session stay ordered.
func (p *EventPublisher) PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
		"replica":     p.replica,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	envelope := eventEnvelope{
		EventID:   event.EventID,
		EventType: eventType(event.Kind),
		UserID:    event.UserID,
		Timestamp: event.At.UTC(),
		Version:   schemaVersion,
		Payload:   event,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(SessionEventsTopic),
		Key:   sarama.StringEncoder(event.Scope),
		Value: sarama.ByteEncoder(bytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(envelope.EventType)},
		},
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ port.SessionEventPublisher = (*EventPublisher)(nil)
