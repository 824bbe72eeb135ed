package port

import (
	"context"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

// Keys held in persistent client storage for every scope.
const (
	StorageKeyAccessToken = "access_token"
	StorageKeyUser        = "user"
	StorageKeyTokenExpiry = "token_expiry"
	StorageKeyCookies     = "cookies"
)

// SessionKeys lists every key cleared on teardown.
var SessionKeys = []string{
	StorageKeyAccessToken,
	StorageKeyUser,
	StorageKeyTokenExpiry,
	StorageKeyCookies,
}

// Storage is the scoped key/value store backing the client session.
// Get reports ok=false for missing keys rather than returning an error.
type Storage interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Remove(ctx context.Context, scope string, keys ...string) error
}

// ChangeNotifier streams storage mutations made by any replica sharing the backend.
// The returned channel is closed once ctx is done.
type ChangeNotifier interface {
	Subscribe(ctx context.Context) (<-chan domain.StorageEvent, error)
}

// HealthChecker is implemented by storage backends that can report readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
