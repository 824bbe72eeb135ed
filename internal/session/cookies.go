package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
)

// loadCookies reads the API cookies captured for scope.
func (c *Client) loadCookies(ctx context.Context, scope string) (map[string]string, error) {
	raw, ok, err := c.store.Get(ctx, scope, port.StorageKeyCookies)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	if !ok || raw == "" {
		return map[string]string{}, nil
	}

	jar := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &jar); err != nil {
		c.logger.Warn("Discarding unreadable cookie jar", zapScope(scope))
		return map[string]string{}, nil
	}
	return jar, nil
}

// captureCookies merges Set-Cookie headers from resp into the stored jar.
// Cookies with a negative MaxAge or an empty value are dropped.
func (c *Client) captureCookies(ctx context.Context, scope string, resp *http.Response) error {
	set := resp.Cookies()
	if len(set) == 0 {
		return nil
	}

	jar, err := c.loadCookies(ctx, scope)
	if err != nil {
		return err
	}
	for _, cookie := range set {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(jar, cookie.Name)
			continue
		}
		jar[cookie.Name] = cookie.Value
	}

	if len(jar) == 0 {
		return c.store.Remove(ctx, scope, port.StorageKeyCookies)
	}
	encoded, err := json.Marshal(jar)
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := c.store.Set(ctx, scope, port.StorageKeyCookies, string(encoded)); err != nil {
		return fmt.Errorf("store cookies: %w", err)
	}
	return nil
}

func cookieHeader(jar map[string]string) string {
	if len(jar) == 0 {
		return ""
	}
	names := make([]string, 0, len(jar))
	for name := range jar {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, (&http.Cookie{Name: name, Value: jar[name]}).String())
	}
	return strings.Join(parts, "; ")
}
