package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
)

const (
	defaultStoragePrefix  = "console:storage"
	defaultStorageChannel = "console:storage:events"
	eventBuffer           = 64
)

// StorageConfig controls key layout, expiry and the change-event channel.
type StorageConfig struct {
	KeyPrefix string
	Channel   string
	TTL       time.Duration
}

// Storage persists scoped client storage in Redis and broadcasts mutations over pub/sub
// so that every console replica sharing the instance observes them.
type Storage struct {
	client *red.Client
	cfg    StorageConfig
	logger *zap.Logger
}

// NewStorage wires a Redis client into a client-storage repository.
func NewStorage(client *red.Client, cfg StorageConfig, logger *zap.Logger) *Storage {
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = defaultStoragePrefix
	}
	if strings.TrimSpace(cfg.Channel) == "" {
		cfg.Channel = defaultStorageChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{client: client, cfg: cfg, logger: logger}
}

// Get loads key for scope; a missing key yields ok=false.
func (s *Storage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get storage key: %w", err)
	}
	return value, true, nil
}

// Set stores value and publishes the change in one round trip.
func (s *Storage) Set(ctx context.Context, scope, key, value string) error {
	payload, err := json.Marshal(domain.StorageEvent{Scope: scope, Key: key})
	if err != nil {
		return fmt.Errorf("marshal storage event: %w", err)
	}

	_, err = s.client.Pipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.Set(ctx, s.key(scope, key), value, s.cfg.TTL)
		pipe.Publish(ctx, s.cfg.Channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set storage key: %w", err)
	}
	return nil
}

// Remove deletes keys for scope and publishes one removal event per key.
func (s *Storage) Remove(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	redisKeys := make([]string, 0, len(keys))
	payloads := make([][]byte, 0, len(keys))
	for _, key := range keys {
		payload, err := json.Marshal(domain.StorageEvent{Scope: scope, Key: key, Removed: true})
		if err != nil {
			return fmt.Errorf("marshal storage event: %w", err)
		}
		redisKeys = append(redisKeys, s.key(scope, key))
		payloads = append(payloads, payload)
	}

	_, err := s.client.Pipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.Del(ctx, redisKeys...)
		for _, payload := range payloads {
			pipe.Publish(ctx, s.cfg.Channel, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove storage keys: %w", err)
	}
	return nil
}

// Subscribe listens on the change channel until ctx is done.
// The subscription is confirmed before Subscribe returns.
func (s *Storage) Subscribe(ctx context.Context) (<-chan domain.StorageEvent, error) {
	pubsub := s.client.Subscribe(ctx, s.cfg.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe storage events: %w", err)
	}

	out := make(chan domain.StorageEvent, eventBuffer)
	messages := pubsub.Channel()

	go func() {
		defer close(out)
		defer func() {
			_ = pubsub.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event domain.StorageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Warn("Discarding malformed storage event",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// HealthCheck pings Redis.
func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis storage health check: %w", err)
	}
	return nil
}

func (s *Storage) key(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.cfg.KeyPrefix, scope, key)
}

var (
	_ port.Storage        = (*Storage)(nil)
	_ port.ChangeNotifier = (*Storage)(nil)
	_ port.HealthChecker  = (*Storage)(nil)
)
