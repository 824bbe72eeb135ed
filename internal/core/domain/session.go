package domain

import "time"

// Session is the console-side record of an authenticated user within one scope.
type Session struct {
	Scope       string
	UserID      string
	Roles       []Role
	Permissions []PermissionKey
	AccessToken string
	ExpiresAt   time.Time
	Profile     *Profile
}

// IsActive reports whether the session holds a token that has not elapsed at the supplied moment.
// A zero ExpiresAt means the expiry is unknown and the token is treated as live.
func (s *Session) IsActive(at time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return s.ExpiresAt.After(at)
}

// HasRole reports whether any of the supplied roles is attached to the session.
func (s *Session) HasRole(roles ...Role) bool {
	if s == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range s.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// NewSession assembles a session from a stored token and the /auth/me profile.
func NewSession(scope, accessToken string, expiresAt time.Time, profile *Profile) *Session {
	s := &Session{
		Scope:       scope,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		Profile:     profile,
	}
	if profile == nil {
		return s
	}

	s.UserID = profile.ID
	s.Roles = make([]Role, 0, len(profile.Roles))
	for _, role := range profile.Roles {
		if role.Name == "" {
			continue
		}
		s.Roles = append(s.Roles, Role(role.Name))
	}
	s.Permissions = make([]PermissionKey, 0, len(profile.Permissions))
	for _, key := range profile.Permissions {
		s.Permissions = append(s.Permissions, PermissionKey(key))
	}
	return s
}

// TokenGrant is the payload returned by the login and refresh endpoints.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// UserStatus enumerates membership states.
type UserStatus string

const (
	UserStatusActive   UserStatus = "aktif"
	UserStatusInactive UserStatus = "nonaktif"
	UserStatusAlumni   UserStatus = "alumni"
)

// RoleRef is the compact role reference embedded in user payloads.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DivisionRef is the compact division reference embedded in user payloads.
type DivisionRef struct {
	ID         string `json:"id"`
	NamaDivisi string `json:"nama_divisi"`
}

// Profile mirrors the /auth/me payload.
type Profile struct {
	ID           string       `json:"id"`
	Nama         string       `json:"nama"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	NomorTelepon string       `json:"nomor_telepon,omitempty"`
	Alamat       string       `json:"alamat,omitempty"`
	Angkatan     int          `json:"angkatan,omitempty"`
	Status       UserStatus   `json:"status,omitempty"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	Division     *DivisionRef `json:"division,omitempty"`
	Roles        []RoleRef    `json:"roles"`
	Permissions  []string     `json:"permissions,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty"`
	UpdatedAt    string       `json:"updated_at,omitempty"`
}
