package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/config"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
	"github.com/MHafidafandi/sipeduli-console/internal/transport/http/middleware"
	httproutes "github.com/MHafidafandi/sipeduli-console/internal/transport/http/routes"
)

// anonymousSessions never holds a session.
type anonymousSessions struct {
	logins int
}

func (s *anonymousSessions) State(string) session.State { return session.State{} }

func (s *anonymousSessions) Restore(context.Context, string) (*domain.Session, error) {
	return nil, nil
}

func (s *anonymousSessions) Login(context.Context, string, string, string) (*domain.Session, error) {
	s.logins++
	return nil, &session.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
}

func (s *anonymousSessions) Logout(context.Context, string) error { return nil }

func (s *anonymousSessions) Resolve(context.Context, string) (session.State, error) {
	return session.State{}, nil
}

func (s *anonymousSessions) UpdateProfile(context.Context, string, session.ProfileUpdate) (*domain.Profile, error) {
	return nil, session.ErrNotAuthenticated
}

func (s *anonymousSessions) ChangePassword(context.Context, string, session.PasswordChange) error {
	return session.ErrNotAuthenticated
}

type saturatedStore struct{}

func (saturatedStore) TrimWindow(context.Context, string, time.Duration, time.Time) error { return nil }

func (saturatedStore) CountAttempts(context.Context, string, time.Duration, time.Time) (int, error) {
	return 5, nil
}

func (saturatedStore) RecordAttempt(context.Context, string, time.Time) error { return nil }

func (saturatedStore) OldestAttempt(_ context.Context, _ string, _ time.Duration, reference time.Time) (time.Time, bool, error) {
	return reference.Add(-10 * time.Second), true, nil
}

func newGuard(t *testing.T) *guard.Guard {
	t.Helper()
	factory, err := permission.NewFactory(permission.ModeRoleMatrix, nil)
	if err != nil {
		t.Fatalf("NewFactory returned error: %v", err)
	}
	return guard.New(factory)
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := zap.NewDevelopment()
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: logger,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: reg})
	if err != nil {
		t.Fatalf("NewHTTPMetrics returned error: %v", err)
	}

	r := httproutes.Register(httproutes.Dependencies{
		Config:   &config.AppConfig{},
		Metrics:  metrics,
		Gatherer: reg,
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "console_http_requests_total") {
		t.Fatalf("expected request counter in exposition, got %s", w.Body.String())
	}
}

func TestConsoleRoutesIssueScopeCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := httproutes.Register(httproutes.Dependencies{
		Config:   &config.AppConfig{Session: config.SessionSettings{CookieName: "sid"}},
		Sessions: &anonymousSessions{},
		Guard:    newGuard(t),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "sid=") {
		t.Fatalf("expected scope cookie, got %q", w.Header().Get("Set-Cookie"))
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &anonymousSessions{}
	cfg := &config.AppConfig{RateLimit: config.RateLimitSettings{WindowDuration: time.Minute, LoginMaxAttempts: 5}}

	r := httproutes.Register(httproutes.Dependencies{
		Config:      cfg,
		Sessions:    sessions,
		Guard:       newGuard(t),
		RateLimiter: middleware.NewRateLimiter(saturatedStore{}, zap.NewNop()),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"rina@peduli.id","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", w.Code)
	}
	if sessions.logins != 0 {
		t.Fatalf("limited request must not reach login")
	}
}

func TestProtectedRouteWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := httproutes.Register(httproutes.Dependencies{
		Config:   &config.AppConfig{},
		Sessions: &anonymousSessions{},
		Guard:    newGuard(t),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}
