package session

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

// grantExpiry derives the absolute expiry of a freshly issued token. expires_in wins; otherwise
// the unverified exp claim is used. A zero time means the expiry is unknown.
func grantExpiry(grant domain.TokenGrant, now time.Time) time.Time {
	if grant.ExpiresIn > 0 {
		return now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	}
	return jwtExpiry(grant.AccessToken)
}

func jwtExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// formatExpiry stores expiries as unix milliseconds.
func formatExpiry(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10)
}

func parseExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
