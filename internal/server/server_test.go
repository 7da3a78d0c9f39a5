package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/hrm/internal/api/v1"
	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/config"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/server"
)

type resolverFunc func(ctx context.Context, token string) (*domain.Principal, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	return f(ctx, token)
}

// employeesStub embeds the interface so only the methods under test need
// bodies; anything else panics.
type employeesStub struct {
	v1.EmployeeService
	departments func(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error)
}

func (s *employeesStub) Departments(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error) {
	return s.departments(ctx, p, companyID)
}

type authStub struct {
	login func(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

func (a *authStub) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	return a.login(ctx, email, password)
}

func (a *authStub) Logout(context.Context, *domain.Principal, string) error { return nil }

func (a *authStub) ChangePassword(context.Context, *domain.Principal, string, string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Session:  config.SessionConfig{TTL: time.Hour, CookieName: "hrm_session", CookieSecure: true},
		Security: config.SecurityConfig{LoginRPS: 100, LoginBurst: 100, APIRPS: 100, APIBurst: 100},
		Storage:  config.StorageConfig{Dir: "/tmp", MaxUploadBytes: 1 << 20},
		Server: config.ServerConfig{
			Addr:         ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			CORSOrigins:  []string{"https://hr.acme.test"},
		},
	}
}

func newServer(t *testing.T, mutate func(d *server.Deps)) (http.Handler, *prometheus.Registry) {
	t.Helper()

	company := int64(3)
	reg := prometheus.NewRegistry()
	d := server.Deps{
		Auth: &authStub{login: func(_ context.Context, email, _ string) (*auth.LoginResult, error) {
			if email != "ana@acme.test" {
				return nil, auth.ErrInvalidCredentials
			}
			return &auth.LoginResult{
				Session: &domain.Session{Token: "fresh", UserID: 5, CreatedAt: time.Now()},
				User:    &domain.User{ID: 5, Email: email, Role: domain.RoleHR, CompanyID: &company},
			}, nil
		}},
		Employees: &employeesStub{departments: func(context.Context, *domain.Principal, *int64) ([]string, error) {
			return []string{"Engineering"}, nil
		}},
		Resolver: resolverFunc(func(_ context.Context, token string) (*domain.Principal, error) {
			if token == "good" {
				return &domain.Principal{UserID: 5, Role: domain.RoleHR, CompanyID: &company, Active: true}, nil
			}
			return nil, auth.ErrSessionExpired
		}),
		Health:   map[string]server.HealthCheck{"postgres": func(context.Context) error { return nil }},
		Registry: reg,
	}
	if mutate != nil {
		mutate(&d)
	}
	return server.New(t.Context(), testConfig(), d).Handler(), reg
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if method == http.MethodPost {
		body = strings.NewReader(`{"email":"ana@acme.test","password":"pw"}`)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "hrm_session", Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIRequiresSession(t *testing.T) {
	t.Parallel()

	h, _ := newServer(t, nil)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
		{name: "expired", token: "stale", wantStatus: http.StatusUnauthorized},
		{name: "valid", token: "good", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(h, http.MethodGet, "/api/v1/meta/departments", tt.token)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestLoginWithStaleCookie(t *testing.T) {
	t.Parallel()

	h, _ := newServer(t, nil)
	rec := do(h, http.MethodPost, "/api/v1/auth/login", "stale")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var issued bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "hrm_session" && c.Value == "fresh" {
			issued = true
		}
	}
	assert.True(t, issued)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		h, _ := newServer(t, nil)
		rec := do(h, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok"}}`, rec.Body.String())
	})

	t.Run("degraded", func(t *testing.T) {
		t.Parallel()

		h, _ := newServer(t, func(d *server.Deps) {
			d.Health["redis"] = func(context.Context) error { return errors.New("connection refused") }
		})
		rec := do(h, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "unavailable", body.Checks["redis"])
		assert.NotContains(t, rec.Body.String(), "refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h, _ := newServer(t, nil)
	_ = do(h, http.MethodGet, "/api/v1/meta/departments", "good")

	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hrm_http_requests_total{method="GET",route="/api/v1/meta/departments",status="200"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	t.Parallel()

	h, _ := newServer(t, func(d *server.Deps) { d.Registry = nil })
	rec := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSPAFallback(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{
		"index.html":    {Data: []byte("<html>hrm</html>")},
		"assets/app.js": {Data: []byte("console.log('hrm')")},
	}
	h, _ := newServer(t, func(d *server.Deps) { d.WebAssets = assets })

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/", wantStatus: http.StatusOK, wantBody: "<html>hrm</html>"},
		{path: "/employees/42", wantStatus: http.StatusOK, wantBody: "<html>hrm</html>"},
		{path: "/assets/app.js", wantStatus: http.StatusOK, wantBody: "console.log('hrm')"},
		{path: "/api/v2/employees", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			rec := do(h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}
