package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMasking(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"email", MaskEmail("john.doe@example.com"), "joh***@example.com"},
		{"short email", MaskEmail("@example.com"), "***@example.com"},
		{"empty email", MaskEmail(""), ""},
		{"ipv4", MaskIP("192.168.1.100"), "192.168.*.*"},
		{"ipv6", MaskIP("2001:0db8:85a3:0000:0000:8a2e:0370:7334"), "2001:0db8:85a3:0000:*:*:*:*"},
		{"garbage ip", MaskIP("localhost"), "***"},
		{"sid", MaskSecret("3f2a9c1e-2b44-4f1d-9c8e-1d2f3a4b5c6d"), "3f2a***"},
		{"short secret", MaskSecret("abc"), "***"},
	}

	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, tc.got)
		}
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), RequestIDKey{}, "req-42")
	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-42" {
		t.Fatalf("expected request_id req-42, got %v", got)
	}
}
