package memory

import (
	"context"
	"testing"
	"time"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

func TestStorageScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStorage()

	if err := store.Set(ctx, "tab-a", "access_token", "T1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "tab-b", "access_token"); ok {
		t.Fatalf("expected scope tab-b to be empty")
	}

	value, ok, err := store.Get(ctx, "tab-a", "access_token")
	if err != nil || !ok || value != "T1" {
		t.Fatalf("unexpected get result: %q %v %v", value, ok, err)
	}

	if err := store.Set(ctx, "tab-a", "access_token", "T2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if value, _, _ := store.Get(ctx, "tab-a", "access_token"); value != "T2" {
		t.Fatalf("expected last write to win, got %q", value)
	}

	if err := store.Remove(ctx, "tab-a", "access_token", "user"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "tab-a", "access_token"); ok {
		t.Fatalf("expected access_token to be removed")
	}
}

func TestStorageSubscribeReceivesMutations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStorage()
	events, err := store.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	_ = store.Set(ctx, "tab-a", "user", `{"id":"u1"}`)
	_ = store.Remove(ctx, "tab-a", "user")

	want := []domain.StorageEvent{
		{Scope: "tab-a", Key: "user"},
		{Scope: "tab-a", Key: "user", Removed: true},
	}
	for i, expected := range want {
		select {
		case got := <-events:
			if got != expected {
				t.Fatalf("event %d: expected %+v, got %+v", i, expected, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	cancel()
	select {
	case _, open := <-events:
		if open {
			t.Fatalf("expected channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription channel was not closed")
	}
}
