package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
	"github.com/MHafidafandi/sipeduli-console/internal/repository/memory"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
	"github.com/MHafidafandi/sipeduli-console/internal/transport/http/handlers"
	"github.com/MHafidafandi/sipeduli-console/internal/transport/http/middleware"
)

const testSID = "3f2a9c1e-2b44-4f1d-9c8e-1d2f3a4b5c6d"

// upstream mimics the SI-PEDULI API for one user whose role is configurable.
type upstream struct {
	mu          sync.Mutex
	role        string
	deletes     []string
	logouts     int
	uploadName  string
	uploadJudul string
}

func (u *upstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "rahasia123" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"access_token": "T1", "expires_in": 900}})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		u.mu.Lock()
		role := u.role
		u.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"id":    "u-1",
			"nama":  "Rina",
			"email": "rina@peduli.id",
			"roles": []map[string]string{{"id": "r-1", "name": role}},
		}})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.logouts++
		u.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") == "bogus" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "status tidak valid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"id": "u-9", "nama": "Budi"}},
			"meta": map[string]any{"page": 1, "limit": 10, "total": 1},
		})
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			u.mu.Lock()
			u.deletes = append(u.deletes, strings.TrimPrefix(r.URL.Path, "/users/"))
			u.mu.Unlock()
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file missing"})
			return
		}
		u.mu.Lock()
		u.uploadName = header.Filename
		u.uploadJudul = r.FormValue("judul")
		u.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": "doc-1", "judul": r.FormValue("judul")}})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{},
			"meta": map[string]any{"page": 1, "limit": 10, "total": 0},
		})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestRouter(t *testing.T, up *upstream) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(up.handler())
	t.Cleanup(server.Close)

	logger := zaptest.NewLogger(t)
	client, err := session.NewClient(session.Config{BaseURL: server.URL}, memory.NewStorage(), session.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	manager := session.NewManager(client, session.ManagerConfig{}, session.WithManagerLogger(logger))
	t.Cleanup(manager.Close)

	factory, err := permission.NewFactory(permission.ModeRoleMatrix, nil)
	if err != nil {
		t.Fatalf("NewFactory returned error: %v", err)
	}
	g := guard.New(factory)

	r := gin.New()
	r.Use(middleware.EnrichContext(), middleware.Scope(middleware.ScopeOptions{}))

	auth := handlers.NewAuthHandler(manager, g, handlers.NewPages(), logger)
	auth.RegisterRoutes(r)
	auth.RegisterDashboard(r)
	handlers.NewResourceHandler(api.New(client), g, manager, logger).RegisterRoutes(r.Group("/dashboard"))
	return r
}

func do(r http.Handler, method, target, contentType string, body []byte, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler) handlers.SessionResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/login", "application/json", []byte(`{"email":"rina@peduli.id","password":"rahasia123"}`), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", w.Code, w.Body.String())
	}
	var resp handlers.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp
}

func TestLoginRedirectsToLandingPage(t *testing.T) {
	cases := []struct {
		role     string
		redirect string
	}{
		{role: "super_admin", redirect: "/dashboard"},
		{role: "member", redirect: "/dashboard/users"},
		{role: "guest", redirect: "/profile"},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			r := newTestRouter(t, &upstream{role: tc.role})
			resp := login(t, r)
			if resp.Redirect != tc.redirect {
				t.Fatalf("expected redirect %q, got %q", tc.redirect, resp.Redirect)
			}
			if resp.User == nil || resp.User.Nama != "Rina" {
				t.Fatalf("expected profile in response, got %+v", resp.User)
			}
			if resp.ExpiresAt == nil {
				t.Fatalf("expected expiry in response")
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := newTestRouter(t, &upstream{role: "member"})

	w := do(r, http.MethodPost, "/login", "application/json", []byte(`{"email":"rina@peduli.id","password":"salah"}`), "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var resp handlers.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "Invalid credentials" {
		t.Fatalf("expected upstream message, got %q", resp.Error)
	}

	w = do(r, http.MethodPost, "/login", "application/json", []byte(`{"email":"not-an-email","password":"x"}`), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed payload, got %d", w.Code)
	}
}

func TestLoginFormHonoursSafeNext(t *testing.T) {
	cases := []struct {
		next     string
		location string
	}{
		{next: "/dashboard/users?page=2", location: "/dashboard/users?page=2"},
		{next: "//evil.example.com", location: "/dashboard"},
		{next: "https://evil.example.com", location: "/dashboard"},
	}

	for _, tc := range cases {
		t.Run(tc.next, func(t *testing.T) {
			r := newTestRouter(t, &upstream{role: "super_admin"})
			form := url.Values{"email": {"rina@peduli.id"}, "password": {"rahasia123"}, "next": {tc.next}}

			w := do(r, http.MethodPost, "/login", "application/x-www-form-urlencoded", []byte(form.Encode()), "text/html")
			if w.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
			}
			if got := w.Header().Get("Location"); got != tc.location {
				t.Fatalf("expected location %q, got %q", tc.location, got)
			}
		})
	}
}

func TestLoginPageShowsError(t *testing.T) {
	r := newTestRouter(t, &upstream{role: "member"})
	form := url.Values{"email": {"rina@peduli.id"}, "password": {"salah"}}

	w := do(r, http.MethodPost, "/login", "application/x-www-form-urlencoded", []byte(form.Encode()), "text/html")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid credentials") {
		t.Fatalf("expected error toast in page, got %s", w.Body.String())
	}
}

func TestProtectedRouteRequiresSession(t *testing.T) {
	r := newTestRouter(t, &upstream{role: "member"})

	w := do(r, http.MethodGet, "/dashboard/users", "", nil, "application/json")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["redirect"] != "/login?next=%2Fdashboard%2Fusers" {
		t.Fatalf("unexpected redirect %q", body["redirect"])
	}

	w = do(r, http.MethodGet, "/dashboard", "", nil, "text/html")
	if w.Code != http.StatusFound || !strings.HasPrefix(w.Header().Get("Location"), "/login") {
		t.Fatalf("expected HTML redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestResourceRoutesEnforcePermissions(t *testing.T) {
	up := &upstream{role: "member"}
	r := newTestRouter(t, up)
	login(t, r)

	w := do(r, http.MethodGet, "/dashboard/users", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected member to list users, got %d: %s", w.Code, w.Body.String())
	}
	var page api.Page[map[string]any]
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 || page.Meta == nil {
		t.Fatalf("unexpected page %+v", page)
	}

	w = do(r, http.MethodDelete, "/dashboard/users/u-9", "", nil, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected member delete to be forbidden, got %d", w.Code)
	}
	up.mu.Lock()
	deletes := len(up.deletes)
	up.mu.Unlock()
	if deletes != 0 {
		t.Fatalf("denied request must not reach the API")
	}
}

func TestAdministratorCanDeleteUsers(t *testing.T) {
	up := &upstream{role: "administrator"}
	r := newTestRouter(t, up)
	login(t, r)

	w := do(r, http.MethodDelete, "/dashboard/users/u-9", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	up.mu.Lock()
	defer up.mu.Unlock()
	if len(up.deletes) != 1 || up.deletes[0] != "u-9" {
		t.Fatalf("expected upstream delete of u-9, got %v", up.deletes)
	}
}

func TestUpstreamErrorIsRelayed(t *testing.T) {
	r := newTestRouter(t, &upstream{role: "member"})
	login(t, r)

	w := do(r, http.MethodGet, "/dashboard/users?status=bogus", "", nil, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var resp handlers.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "status tidak valid" {
		t.Fatalf("expected upstream message, got %q", resp.Error)
	}
}

func TestDocumentUploadIsForwarded(t *testing.T) {
	up := &upstream{role: "administrator"}
	r := newTestRouter(t, up)
	login(t, r)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("judul", "Notulen rapat")
	part, _ := mw.CreateFormFile("file", "notulen.pdf")
	_, _ = part.Write([]byte("%PDF-1.4 notulen"))
	_ = mw.Close()

	w := do(r, http.MethodPost, "/dashboard/documents", mw.FormDataContentType(), buf.Bytes(), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	up.mu.Lock()
	defer up.mu.Unlock()
	if up.uploadName != "notulen.pdf" || up.uploadJudul != "Notulen rapat" {
		t.Fatalf("unexpected upload %q %q", up.uploadName, up.uploadJudul)
	}
}

func TestMenuIsFilteredByPermission(t *testing.T) {
	r := newTestRouter(t, &upstream{role: "member"})
	login(t, r)

	w := do(r, http.MethodGet, "/api/menu", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp handlers.MenuResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode menu: %v", err)
	}
	for _, item := range resp.Items {
		if item.Title == "Donations" || item.Title == "Inventory" {
			t.Fatalf("member must not see %q", item.Title)
		}
	}
	if resp.Landing != "/dashboard/users" {
		t.Fatalf("unexpected landing %q", resp.Landing)
	}
}

func TestEveryVisibleMenuEntryPassesItsRouteGate(t *testing.T) {
	for _, role := range []string{"super_admin", "administrator", "member", "guest"} {
		t.Run(role, func(t *testing.T) {
			r := newTestRouter(t, &upstream{role: role})
			login(t, r)

			w := do(r, http.MethodGet, "/api/menu", "", nil, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var resp handlers.MenuResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode menu: %v", err)
			}

			for _, url := range menuURLs(resp.Items) {
				w := do(r, http.MethodGet, url, "", nil, "application/json")
				if w.Code != http.StatusOK {
					t.Fatalf("%s: menu entry %s answered %d: %s", role, url, w.Code, w.Body.String())
				}
			}
		})
	}
}

func menuURLs(items []guard.MenuItem) []string {
	var urls []string
	for _, item := range items {
		if item.URL != "#" {
			urls = append(urls, item.URL)
		}
		urls = append(urls, menuURLs(item.Items)...)
	}
	return urls
}

func TestDashboardPageGatesElements(t *testing.T) {
	r := newTestRouter(t, &upstream{role: "super_admin"})
	login(t, r)

	w := do(r, http.MethodGet, "/dashboard", "", nil, "text/html")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Halo, Rina") || !strings.Contains(body, "Kelola hak akses") {
		t.Fatalf("expected gated content for super_admin, got %s", body)
	}
	if strings.Contains(body, "Tambah anggota") {
		t.Fatalf("super_admin has no create-users, got %s", body)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	up := &upstream{role: "member"}
	r := newTestRouter(t, up)
	login(t, r)

	w := do(r, http.MethodPost, "/logout", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	up.mu.Lock()
	logouts := up.logouts
	up.mu.Unlock()
	if logouts != 1 {
		t.Fatalf("expected one upstream logout, got %d", logouts)
	}

	w = do(r, http.MethodGet, "/auth/me", "", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestChangePasswordRejectsMismatch(t *testing.T) {
	r := newTestRouter(t, &upstream{role: "member"})
	login(t, r)

	w := do(r, http.MethodPut, "/auth/me/password", "application/json",
		[]byte(`{"old_password":"rahasia123","new_password":"baru-sekali-99","confirm_password":"lain"}`), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp handlers.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "password confirmation does not match" {
		t.Fatalf("unexpected message %q", resp.Error)
	}
}
