package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

type stubForgetter struct {
	forgotten []string
}

func (s *stubForgetter) Forget(scope string) bool {
	s.forgotten = append(s.forgotten, scope)
	return true
}

func encodeEnvelope(t *testing.T, replica string, event domain.SessionEvent) *sarama.ConsumerMessage {
	t.Helper()
	bytes, err := json.Marshal(eventEnvelope{
		EventID:   event.EventID,
		EventType: eventType(event.Kind),
		Payload:   event,
		Metadata:  envelopeMetadata{"replica": replica},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &sarama.ConsumerMessage{Value: bytes}
}

func TestSessionEventConsumerForgetsRemoteLogout(t *testing.T) {
	sessions := &stubForgetter{}
	consumer := NewSessionEventConsumer(sessions, "replica-a", zaptest.NewLogger(t))

	msg := encodeEnvelope(t, "replica-b", domain.SessionEvent{EventID: "e1", Kind: domain.SessionEventLogout, Scope: "sid-9"})
	if err := consumer.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if len(sessions.forgotten) != 1 || sessions.forgotten[0] != "sid-9" {
		t.Fatalf("expected sid-9 to be forgotten, got %v", sessions.forgotten)
	}
}

func TestSessionEventConsumerIgnoresOwnAndBenignEvents(t *testing.T) {
	sessions := &stubForgetter{}
	consumer := NewSessionEventConsumer(sessions, "replica-a", zaptest.NewLogger(t))

	own := encodeEnvelope(t, "replica-a", domain.SessionEvent{EventID: "e1", Kind: domain.SessionEventExpired, Scope: "sid-1"})
	if err := consumer.HandleMessage(context.Background(), own); err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	for _, kind := range []domain.SessionEventKind{domain.SessionEventLogin, domain.SessionEventRefreshed} {
		if err := consumer.HandleEvent(context.Background(), domain.SessionEvent{Kind: kind, Scope: "sid-2"}); err != nil {
			t.Fatalf("HandleEvent(%s) returned error: %v", kind, err)
		}
	}

	if len(sessions.forgotten) != 0 {
		t.Fatalf("expected no scope to be forgotten, got %v", sessions.forgotten)
	}
}

func TestSessionEventConsumerRejectsMalformedMessages(t *testing.T) {
	consumer := NewSessionEventConsumer(&stubForgetter{}, "replica-a", zaptest.NewLogger(t))

	if err := consumer.HandleMessage(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for a nil message")
	}
	if err := consumer.HandleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{")}); err == nil {
		t.Fatalf("expected an error for invalid JSON")
	}
	if err := consumer.HandleEvent(context.Background(), domain.SessionEvent{Kind: domain.SessionEventLogout}); err == nil {
		t.Fatalf("expected an error for an event without scope")
	}
}
