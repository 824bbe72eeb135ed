package domain

import "time"

// SessionEventKind enumerates session lifecycle transitions.
type SessionEventKind string

const (
	SessionEventLogin     SessionEventKind = "login"
	SessionEventLogout    SessionEventKind = "logout"
	SessionEventRefreshed SessionEventKind = "refreshed"
	SessionEventExpired   SessionEventKind = "expired"
)

// SessionEvent captures a lifecycle change for one scope.
type SessionEvent struct {
	EventID string           `json:"event_id"`
	Kind    SessionEventKind `json:"kind"`
	Scope   string           `json:"scope"`
	UserID  string           `json:"user_id,omitempty"`
	Roles   []Role           `json:"roles,omitempty"`
	At      time.Time        `json:"at"`
	Reason  string           `json:"reason,omitempty"`
}

// StorageEvent is emitted for every write or removal in persistent client storage.
type StorageEvent struct {
	Scope   string `json:"scope"`
	Key     string `json:"key"`
	Removed bool   `json:"removed"`
}
