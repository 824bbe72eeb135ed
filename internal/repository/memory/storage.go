package memory

import (
	"context"
	"sync"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
)

const subscriberBuffer = 64

// Storage keeps client storage in process memory and fans out change events to subscribers.
type Storage struct {
	mu          sync.RWMutex
	values      map[string]map[string]string
	subscribers map[int]chan domain.StorageEvent
	nextID      int
}

// NewStorage constructs an empty in-memory store.
func NewStorage() *Storage {
	return &Storage{
		values:      make(map[string]map[string]string),
		subscribers: make(map[int]chan domain.StorageEvent),
	}
}

// Get returns the value stored under key for scope.
func (s *Storage) Get(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[scope][key]
	return value, ok, nil
}

// Set writes value under key for scope, replacing any previous value.
func (s *Storage) Set(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	bucket, ok := s.values[scope]
	if !ok {
		bucket = make(map[string]string)
		s.values[scope] = bucket
	}
	bucket[key] = value
	s.broadcastLocked(domain.StorageEvent{Scope: scope, Key: key})
	s.mu.Unlock()
	return nil
}

// Remove deletes keys for scope. Missing keys still produce a change event.
func (s *Storage) Remove(_ context.Context, scope string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.values[scope]
	for _, key := range keys {
		delete(bucket, key)
		s.broadcastLocked(domain.StorageEvent{Scope: scope, Key: key, Removed: true})
	}
	if bucket != nil && len(bucket) == 0 {
		delete(s.values, scope)
	}
	return nil
}

// Subscribe registers a listener that receives every subsequent mutation.
func (s *Storage) Subscribe(ctx context.Context) (<-chan domain.StorageEvent, error) {
	ch := make(chan domain.StorageEvent, subscriberBuffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// HealthCheck always succeeds for the in-memory backend.
func (s *Storage) HealthCheck(context.Context) error {
	return nil
}

// broadcastLocked delivers event without blocking; slow subscribers miss events.
func (s *Storage) broadcastLocked(event domain.StorageEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

var (
	_ port.Storage        = (*Storage)(nil)
	_ port.ChangeNotifier = (*Storage)(nil)
	_ port.HealthChecker  = (*Storage)(nil)
)
