package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

func scopeRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Scope(ScopeOptions{CookieName: "sid", MaxAge: time.Hour}))
	router.GET("/", func(c *gin.Context) {
		*seen = session.ScopeFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router
}

func TestScopeIssuesCookieWhenMissing(t *testing.T) {
	var seen string
	router := scopeRouter(&seen)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" {
		t.Fatalf("expected a sid cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("expected the sid cookie to be http-only")
	}
	if seen == "" || seen != cookies[0].Value {
		t.Fatalf("expected the request scope %q to match the cookie %q", seen, cookies[0].Value)
	}
}

func TestScopeReusesValidCookie(t *testing.T) {
	var seen string
	router := scopeRouter(&seen)

	const sid = "3f2a9c1e-2b44-4f1d-9c8e-1d2f3a4b5c6d"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if seen != sid {
		t.Fatalf("expected scope %q, got %q", sid, seen)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for a valid sid")
	}
}

func TestScopeReplacesMalformedCookie(t *testing.T) {
	var seen string
	router := scopeRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if seen == "../../etc" || seen == "" {
		t.Fatalf("expected a fresh scope, got %q", seen)
	}
}

func TestScopeCookieCarriesConfiguredAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Scope(ScopeOptions{CookieName: "console_sid", Secure: true, Domain: "console.peduli.id", MaxAge: time.Hour}))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %v", cookies)
	}
	cookie := cookies[0]
	if cookie.Name != "console_sid" || cookie.Domain != "console.peduli.id" {
		t.Fatalf("unexpected cookie name/domain %q %q", cookie.Name, cookie.Domain)
	}
	if !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected a secure lax cookie, got %+v", cookie)
	}
	if cookie.MaxAge != 3600 {
		t.Fatalf("expected max age 3600, got %d", cookie.MaxAge)
	}
}
